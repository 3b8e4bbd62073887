package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/finman/finman/pkg/user"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type NotificationDTO struct {
	Id       string    `json:"id"`
	BudgetId int       `json:"budgetId"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
	IsRead   bool      `json:"isRead"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	notifications, err := h.service.GetAll(r.Context(), r.URL.Query().Has("unread"))
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, NotificationDTO{
			Id:       n.Id.String(),
			BudgetId: n.BudgetId,
			Subject:  n.Subject,
			Message:  n.Message,
			SentAt:   n.SentAt,
			IsRead:   n.IsRead,
		})
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["notificationId"])
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.service.MarkRead(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.MarkAllRead(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrNotificationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("notification request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
