package http

import (
	"math"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type recurringRequest struct {
	IsRecurring bool   `json:"isRecurring"`
	Frequency   string `json:"frequency"`
	EndDate     string `json:"endDate"`
}

type expenseRequest struct {
	Title         *string           `json:"title"`
	Amount        *core.Money       `json:"amount"`
	Category      *string           `json:"category"`
	Description   *string           `json:"description"`
	Date          *string           `json:"date"`
	PaymentMethod *string           `json:"paymentMethod"`
	Tags          *[]string         `json:"tags"`
	Recurring     *recurringRequest `json:"recurring"`
	Receipt       *string           `json:"receipt"`
}

// parsedDates resolves the request's string dates, collecting violations.
func (req *expenseRequest) parsedDates(verr *core.ValidationError) (date *time.Time, recurringEnd *time.Time) {
	if req.Date != nil && *req.Date != "" {
		if t, err := parseDate(*req.Date); err == nil {
			date = &t
		} else {
			verr.Add("date", "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
	}
	if req.Recurring != nil && req.Recurring.EndDate != "" {
		if t, err := parseDate(req.Recurring.EndDate); err == nil {
			recurringEnd = &t
		} else {
			verr.Add("recurring.endDate", "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
	}
	return date, recurringEnd
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	date, recurringEnd := req.parsedDates(verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	e := &core.Expense{}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if date != nil {
		e.Date = *date
	}
	if req.PaymentMethod != nil {
		e.PaymentMethod = *req.PaymentMethod
	}
	if req.Tags != nil {
		e.Tags = *req.Tags
	}
	if req.Recurring != nil {
		e.Recurring = core.RecurringSpec{
			IsRecurring: req.Recurring.IsRecurring,
			Frequency:   core.Frequency(req.Recurring.Frequency),
			EndDate:     recurringEnd,
		}
	}
	if req.Receipt != nil {
		e.Receipt = *req.Receipt
	}

	created, err := s.expenses.Create(r.Context(), user.ID, e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": "Expense created",
		"expense": created,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	expense, err := s.expenses.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"expense": expense})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	date, recurringEnd := req.parsedDates(verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	u := services.ExpenseUpdate{
		Title:         req.Title,
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Tags:          req.Tags,
		Receipt:       req.Receipt,
	}
	if req.Recurring != nil {
		u.Recurring = &core.RecurringSpec{
			IsRecurring: req.Recurring.IsRecurring,
			Frequency:   core.Frequency(req.Recurring.Frequency),
			EndDate:     recurringEnd,
		}
	}

	updated, err := s.expenses.Update(r.Context(), user.ID, r.PathValue("id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Expense updated",
		"expense": updated,
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.expenses.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Expense deleted"})
}

// pagination is the listing metadata block.
type pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

func paginate(page, limit, total int) pagination {
	totalPages := (total + limit - 1) / limit
	return pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	filter, err := parseExpenseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, summary, err := s.expenses.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	average := core.Money{}
	if summary.Count > 0 {
		average = core.Money{Cents: int64(math.Round(float64(summary.TotalCents) / float64(summary.Count)))}
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, envelope{
		"expenses":   expenses,
		"pagination": paginate(filter.Page, filter.Limit, summary.Count),
		"summary": map[string]any{
			"totalAmount":   core.Money{Cents: summary.TotalCents},
			"count":         summary.Count,
			"averageAmount": average,
		},
	})
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	verr := &core.ValidationError{}
	from := parseDateParam(query, "startDate", verr)
	to := parseDateParam(query, "endDate", verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.expenses.CategorySummary(r.Context(), user.ID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var grandTotal int64
	for _, stat := range stats {
		grandTotal += stat.TotalCents
	}

	categories := make([]map[string]any, 0, len(stats))
	for _, stat := range stats {
		percentage := 0.0
		if grandTotal > 0 {
			percentage = float64(stat.TotalCents) / float64(grandTotal) * 100
		}
		categories = append(categories, map[string]any{
			"category":    stat.Category,
			"totalAmount": core.Money{Cents: stat.TotalCents},
			"count":       stat.Count,
			"percentage":  percentage,
		})
	}
	writeJSON(w, http.StatusOK, envelope{
		"categories":  categories,
		"totalAmount": core.Money{Cents: grandTotal},
	})
}
