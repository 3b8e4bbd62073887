package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid           string              `json:"uid"`
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	MonthlyIncome decimal.NullDecimal `json:"monthlyIncome"`
	PaydayDay     *int                `json:"paydayDay"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{userService: userService}
}

// CreateUser registers a user. An authenticated identity overrides the uid of the body.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Debug("Creating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body format", http.StatusBadRequest)
		return
	}
	if uid, ok := Identity(r.Context()); ok {
		dto.Uid = uid
	}

	created, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	log.Tracef("Created user: %+v", created)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(userToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	current, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(current)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// UpdateUser changes the e-mail, monthly income and payday of the current user.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body format", http.StatusBadRequest)
		return
	}

	updated, err := h.userService.UpdateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	log.Debugf("Updated user %d", updated.Id)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrUserDataInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUserAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Errorf("user request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:           user.Uid,
		Username:      user.Username,
		Email:         user.Email,
		MonthlyIncome: user.MonthlyIncome,
		PaydayDay:     user.PaydayDay,
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Uid:           dto.Uid,
		Username:      dto.Username,
		Email:         dto.Email,
		MonthlyIncome: dto.MonthlyIncome,
		PaydayDay:     dto.PaydayDay,
	}
}
