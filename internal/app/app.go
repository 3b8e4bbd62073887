package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/finman/finman/internal/amqp"
	"github.com/finman/finman/internal/config"
	"github.com/finman/finman/internal/database"
	"github.com/finman/finman/internal/scheduler"
	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/notification"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	broker *amqp.Client
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication loads the configuration, migrates the database and builds the full application,
// ready to Run() or to execute a single job.
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, db: db}

	var sink notification.Sink = notification.LogSink{}
	if cfg.Notification.Enabled {
		a.broker, err = amqp.NewClient(cfg.Notification.AmqpUrl, cfg.Notification.Exchange, cfg.Notification.Queue)
		if err != nil {
			db.Close()
			return nil, err
		}
		sink = notification.NewBrokerSink(a.broker)
	}

	a.deps = BuildDependencies(db, cfg, sink, utils.SystemClock{})

	a.router = mux.NewRouter()
	SetupMiddleware(a.router, a.deps, cfg)
	RegisterRoutes(a.router, a.deps)

	a.srv = &http.Server{
		Handler:      a.router,
		Addr:         cfg.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// Dependencies exposes the wired services, used by the one-shot commands.
func (a *Application) Dependencies() *Dependencies {
	return a.deps
}

func (a *Application) Config() config.Application {
	return a.cfg
}

// Run serves HTTP and, when enabled, runs the scheduler until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down server")
		return a.srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Scheduler.Enabled {
		g.Go(func() error {
			budgetTicker := scheduler.NewTicker(a.cfg.Scheduler.BudgetCheckInterval)
			billTicker := scheduler.NewTicker(a.cfg.Scheduler.PollInterval)
			return a.deps.Scheduler.Run(ctx, budgetTicker, billTicker)
		})
	} else {
		log.Info("Scheduler disabled")
	}

	return g.Wait()
}

// Close releases the broker connection and the database pool.
func (a *Application) Close() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			log.Warnf("failed to close broker connection: %v", err)
		}
	}
	a.db.Close()
}
