package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")

	// Budget
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget", deps.BudgetHandler.Register).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Update).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/budget/{budgetId}/spending", deps.BudgetHandler.Spending).Methods("GET")

	// Bill, fixed paths before {billId}
	r.HandleFunc("/api/bill", deps.BillHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/bill", deps.BillHandler.Create).Methods("POST")
	r.HandleFunc("/api/bill/due", deps.BillHandler.Due).Methods("GET")
	r.HandleFunc("/api/bill/upcoming", deps.BillHandler.Upcoming).Methods("GET")
	r.HandleFunc("/api/bill/by-category", deps.BillHandler.ByCategory).Methods("GET")
	r.HandleFunc("/api/bill/total", deps.BillHandler.MonthlyTotal).Methods("GET")
	r.HandleFunc("/api/bill/{billId}", deps.BillHandler.Get).Methods("GET")
	r.HandleFunc("/api/bill/{billId}", deps.BillHandler.Update).Methods("PUT")
	r.HandleFunc("/api/bill/{billId}", deps.BillHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/bill/{billId}/paid", deps.BillHandler.MarkPaid).Methods("PUT")
	r.HandleFunc("/api/bill/{billId}/paid", deps.BillHandler.MarkUnpaid).Methods("DELETE")

	// Income
	r.HandleFunc("/api/income/remaining", deps.BillHandler.RemainingIncome).Methods("GET")

	// Notifications
	r.HandleFunc("/api/notification", deps.NotificationHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/notification/read", deps.NotificationHandler.MarkAllRead).Methods("PUT")
	r.HandleFunc("/api/notification/{notificationId}/read", deps.NotificationHandler.MarkRead).Methods("PUT")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
}
