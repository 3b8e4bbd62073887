package bill

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BillDTO struct {
	Id           int             `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDay       int             `json:"dueDay"`
	IsPaid       bool            `json:"isPaid"`
	IsRecurring  bool            `json:"isRecurring"`
	CategoryId   *int            `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
}

type AmountDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type Handler struct {
	service      Service
	upcomingDays int
}

func NewHandler(service Service, upcomingDays int) *Handler {
	return &Handler{service: service, upcomingDays: upcomingDays}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto BillDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), fromDTO(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusCreated, toDTO(created))
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTOs(bills))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	billId, err := billIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bill, err := h.service.Get(r.Context(), billId)
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTO(bill))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	billId, err := billIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var dto BillDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Id != 0 && dto.Id != billId {
		http.Error(w, "Invalid bill id in request body", http.StatusBadRequest)
		return
	}
	dto.Id = billId
	updated, err := h.service.Update(r.Context(), fromDTO(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTO(updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	billId, err := billIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), billId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.setPaid(w, r, true)
}

func (h *Handler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	h.setPaid(w, r, false)
}

func (h *Handler) setPaid(w http.ResponseWriter, r *http.Request, paid bool) {
	billId, err := billIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bill, err := h.service.SetPaid(r.Context(), billId, paid)
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTO(bill))
}

func (h *Handler) Due(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.Due(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTOs(bills))
}

func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := h.upcomingDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "days must be a non-negative integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	bills, err := h.service.Upcoming(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, toDTOs(bills))
}

func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.service.ByCategory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	result := make(map[string][]BillDTO, len(grouped))
	for name, bills := range grouped {
		result[name] = toDTOs(bills)
	}
	encode(w, http.StatusOK, result)
}

func (h *Handler) MonthlyTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.MonthlyTotal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, AmountDTO{Amount: total})
}

func (h *Handler) RemainingIncome(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.service.RemainingIncome(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	encode(w, http.StatusOK, AmountDTO{Amount: remaining})
}

func encode(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func billIdFromPath(r *http.Request) (int, error) {
	billId, err := strconv.ParseInt(mux.Vars(r)["billId"], 10, 64)
	return int(billId), err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrBillNotFound), errors.Is(err, user.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidBill), errors.Is(err, ErrInvalidDueDay), errors.Is(err, category.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("bill request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(b Bill) BillDTO {
	return BillDTO{
		Id:           b.Id,
		Name:         b.Name,
		Amount:       b.Amount,
		DueDay:       b.DueDay,
		IsPaid:       b.IsPaid,
		IsRecurring:  b.IsRecurring,
		CategoryId:   b.CategoryId,
		CategoryName: b.CategoryName,
	}
}

func toDTOs(bills []Bill) []BillDTO {
	dtos := make([]BillDTO, 0, len(bills))
	for _, b := range bills {
		dtos = append(dtos, toDTO(b))
	}
	return dtos
}

func fromDTO(dto BillDTO) Bill {
	return Bill{
		Id:          dto.Id,
		Name:        dto.Name,
		Amount:      dto.Amount,
		DueDay:      dto.DueDay,
		IsPaid:      dto.IsPaid,
		IsRecurring: dto.IsRecurring,
		CategoryId:  dto.CategoryId,
	}
}
