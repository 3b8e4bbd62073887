package app

import (
	"github.com/finman/finman/internal/config"
	"github.com/finman/finman/internal/event_bus"
	"github.com/finman/finman/internal/scheduler"
	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/account"
	"github.com/finman/finman/pkg/bill"
	"github.com/finman/finman/pkg/budget"
	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/notification"
	"github.com/finman/finman/pkg/transaction"
	"github.com/finman/finman/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services, jobs and handlers of the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserRepo    user.Repo
	UserService user.Service
	UserHandler *user.Handler

	CategoryRepo    category.Repository
	AccountRepo     account.Repository
	TransactionRepo transaction.Store

	BudgetRepo    budget.BudgetRepo
	Monitor       *budget.Monitor
	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	BillRepo     bill.Repository
	BillResetter *bill.Resetter
	BillService  *bill.ServiceImpl
	BillHandler  *bill.Handler

	NotificationService *notification.ServiceImpl
	NotificationHandler *notification.Handler

	Scheduler *scheduler.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application, sink notification.Sink, clock utils.Clock) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus(deps.Clock)

	deps.UserRepo = user.NewUserRepo(db)
	deps.UserService = user.NewUserService(deps.UserRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CategoryRepo = category.NewRepository(db)
	deps.AccountRepo = account.NewRepository(db)
	deps.TransactionRepo = transaction.NewStore(db)

	deps.NotificationService = notification.NewService(notification.NewRepository(db), sink, deps.Clock)
	deps.NotificationService.Subscribe(deps.EventBus)
	deps.NotificationHandler = notification.NewHandler(deps.NotificationService)

	deps.BudgetRepo = budget.NewBudgetRepo(db)
	deps.Monitor = budget.NewMonitor(
		deps.UserRepo,
		deps.AccountRepo,
		deps.BudgetRepo,
		budget.NewSpendingAggregator(deps.TransactionRepo),
		budget.NewEventDispatcher(deps.EventBus),
		deps.Clock,
	)
	deps.BudgetService = budget.NewBudgetServiceImpl(deps.BudgetRepo, deps.CategoryRepo, deps.Monitor)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	deps.BillRepo = bill.NewRepository(db)
	deps.BillResetter = bill.NewResetter(deps.UserRepo, deps.BillRepo)
	deps.BillService = bill.NewService(deps.BillRepo, deps.UserRepo, deps.CategoryRepo, deps.Clock)
	deps.BillHandler = bill.NewHandler(deps.BillService, cfg.Bills.UpcomingDays)

	deps.Scheduler = scheduler.New(deps.Monitor, deps.BillResetter, deps.Clock, scheduler.Options{
		Workers:      cfg.Scheduler.Workers,
		BillResetDay: cfg.Scheduler.BillResetDay,
	})

	return deps
}
