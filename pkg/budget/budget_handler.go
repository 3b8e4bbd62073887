package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	ID               int                 `json:"id"`
	Name             string              `json:"name"`
	Amount           decimal.Decimal     `json:"amount"`
	CategoryId       *int                `json:"categoryId,omitempty"`
	CategoryName     string              `json:"categoryName,omitempty"`
	Period           string              `json:"period"`
	StartDate        string              `json:"startDate"`
	EndDate          string              `json:"endDate,omitempty"`
	WarningThreshold decimal.NullDecimal `json:"warningThreshold"`
}

type SpendingDTO struct {
	BudgetId    int             `json:"budgetId"`
	WindowStart time.Time       `json:"windowStart"`
	WindowEnd   time.Time       `json:"windowEnd"`
	Spent       decimal.Decimal `json:"spent"`
	Amount      decimal.Decimal `json:"amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Ratio       decimal.Decimal `json:"ratio"`
	Warn        bool            `json:"warn"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

func (handler *BudgetHandler) Register(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new budget")
	w.Header().Set("Content-Type", "application/json")

	var budgetDTO BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&budgetDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	budget, err := DTOToBudget(budgetDTO)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createdBudget, err := handler.budgetService.Create(r.Context(), budget)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(BudgetToDTO(createdBudget)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	budgets, err := handler.budgetService.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	budgetsDTO := make([]BudgetDTO, 0, len(budgets))
	for _, budget := range budgets {
		budgetsDTO = append(budgetsDTO, BudgetToDTO(budget))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(budgetsDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, err := budgetIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	budget, err := handler.budgetService.Get(r.Context(), budgetId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(BudgetToDTO(budget)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, err := budgetIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var budgetDTO BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&budgetDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if budgetDTO.ID == 0 || budgetDTO.ID != budgetId {
		http.Error(w, "Invalid budget id in request body", http.StatusBadRequest)
		return
	}
	budget, err := DTOToBudget(budgetDTO)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.budgetService.Update(r.Context(), budget)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(BudgetToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	budgetId, err := budgetIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.budgetService.Delete(r.Context(), budgetId); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *BudgetHandler) Spending(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, err := budgetIdFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	spending, err := handler.budgetService.CurrentSpending(r.Context(), budgetId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(SpendingDTO{
		BudgetId:    spending.Budget.ID,
		WindowStart: spending.Window.Start,
		WindowEnd:   spending.Window.End,
		Spent:       spending.Spent,
		Amount:      spending.Budget.Amount,
		Remaining:   spending.Remaining,
		Ratio:       spending.Ratio,
		Warn:        spending.Warn,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func budgetIdFromPath(r *http.Request) (int, error) {
	budgetId, err := strconv.ParseInt(mux.Vars(r)["budgetId"], 10, 64)
	return int(budgetId), err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrBudgetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidBudget), errors.Is(err, ErrUnknownPeriod), errors.Is(err, category.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("budget request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func BudgetToDTO(budget Budget) BudgetDTO {
	var endDate string
	if !budget.EndDate.IsZero() {
		endDate = budget.EndDate.Format(time.DateOnly)
	}
	return BudgetDTO{
		ID:               budget.ID,
		Name:             budget.Name,
		Amount:           budget.Amount,
		CategoryId:       budget.CategoryId,
		CategoryName:     budget.CategoryName,
		Period:           string(budget.Period),
		StartDate:        budget.StartDate.Format(time.DateOnly),
		EndDate:          endDate,
		WarningThreshold: budget.WarningThreshold,
	}
}

func DTOToBudget(budgetDTO BudgetDTO) (Budget, error) {
	period, err := ParsePeriod(budgetDTO.Period)
	if err != nil {
		return Budget{}, err
	}
	var startDate time.Time
	if budgetDTO.StartDate != "" {
		startDate, err = time.Parse(time.DateOnly, budgetDTO.StartDate)
		if err != nil {
			return Budget{}, err
		}
	}
	var endDate time.Time
	if budgetDTO.EndDate != "" {
		endDate, err = time.Parse(time.DateOnly, budgetDTO.EndDate)
		if err != nil {
			return Budget{}, err
		}
	}

	return Budget{
		ID:               budgetDTO.ID,
		Name:             budgetDTO.Name,
		Amount:           budgetDTO.Amount,
		CategoryId:       budgetDTO.CategoryId,
		Period:           period,
		StartDate:        startDate,
		EndDate:          endDate,
		WarningThreshold: budgetDTO.WarningThreshold,
	}, nil
}
