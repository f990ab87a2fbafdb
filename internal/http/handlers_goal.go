package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type autoContributeRequest struct {
	Enabled   bool        `json:"enabled"`
	Amount    *core.Money `json:"amount"`
	Frequency string      `json:"frequency"`
}

type goalRequest struct {
	Title          *string                `json:"title"`
	Description    *string                `json:"description"`
	TargetAmount   *core.Money            `json:"targetAmount"`
	CurrentAmount  *core.Money            `json:"currentAmount"`
	TargetDate     *string                `json:"targetDate"`
	Category       *string                `json:"category"`
	Priority       *string                `json:"priority"`
	Status         *string                `json:"status"`
	AutoContribute *autoContributeRequest `json:"autoContribute"`
}

func (req *goalRequest) parsedTargetDate(verr *core.ValidationError) *time.Time {
	if req.TargetDate == nil || *req.TargetDate == "" {
		return nil
	}
	t, err := parseDate(*req.TargetDate)
	if err != nil {
		verr.Add("targetDate", "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return nil
	}
	return &t
}

func (req *goalRequest) autoContributeSpec() *core.AutoContributeSpec {
	if req.AutoContribute == nil {
		return nil
	}
	spec := &core.AutoContributeSpec{
		Enabled:   req.AutoContribute.Enabled,
		Frequency: core.Frequency(req.AutoContribute.Frequency),
	}
	if req.AutoContribute.Amount != nil {
		spec.Amount = *req.AutoContribute.Amount
	}
	return spec
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	target := req.parsedTargetDate(verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	g := &core.Goal{}
	if req.Title != nil {
		g.Title = *req.Title
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	if target != nil {
		g.TargetDate = *target
	}
	if req.Category != nil {
		g.Category = *req.Category
	}
	if req.Priority != nil {
		g.Priority = *req.Priority
	}
	if spec := req.autoContributeSpec(); spec != nil {
		g.AutoContribute = *spec
	}

	created, err := s.goals.Create(r.Context(), user.ID, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": "Goal created",
		"goal":    created,
	})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	goal, err := s.goals.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"goal":     goal,
		"progress": goal.ProgressAt(time.Now().UTC()),
	})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := &core.ValidationError{}
	target := req.parsedTargetDate(verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	u := services.GoalUpdate{
		Title:          req.Title,
		Description:    req.Description,
		TargetAmount:   req.TargetAmount,
		CurrentAmount:  req.CurrentAmount,
		TargetDate:     target,
		Category:       req.Category,
		Priority:       req.Priority,
		Status:         req.Status,
		AutoContribute: req.autoContributeSpec(),
	}

	updated, err := s.goals.Update(r.Context(), user.ID, r.PathValue("id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Goal updated",
		"goal":    updated,
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.goals.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Goal deleted"})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	goals, err := s.goals.List(r.Context(), user.ID, query.Get("status"), query.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	byStatus := make(map[string]int, len(core.GoalStatuses))
	for _, status := range core.GoalStatuses {
		byStatus[status] = 0
	}
	var targetCents, currentCents int64
	for _, g := range goals {
		byStatus[g.Status]++
		targetCents += g.TargetAmount.Cents
		currentCents += g.CurrentAmount.Cents
	}

	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, envelope{
		"goals": goals,
		"statistics": map[string]any{
			"total":        len(goals),
			"byStatus":     byStatus,
			"totalTarget":  core.Money{Cents: targetCents},
			"totalCurrent": core.Money{Cents: currentCents},
		},
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetGoalStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.goals.SetStatus(r.Context(), user.ID, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Goal status updated",
		"goal":    updated,
	})
}

type contributionRequest struct {
	Amount *core.Money `json:"amount"`
	Date   *string     `json:"date"`
	Note   string      `json:"note"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req contributionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c := &core.Contribution{Note: req.Note}
	if req.Amount != nil {
		c.Amount = *req.Amount
	}
	if req.Date != nil && *req.Date != "" {
		t, err := parseDate(*req.Date)
		if err != nil {
			verr := &core.ValidationError{}
			verr.Add("date", "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
			writeError(w, r, verr)
			return
		}
		c.Date = t
	}

	goal, err := s.goals.Contribute(r.Context(), user.ID, r.PathValue("id"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Contribution recorded",
		"goal":    goal,
	})
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	contributions, err := s.goals.Contributions(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var totalCents int64
	for _, c := range contributions {
		totalCents += c.Amount.Cents
	}
	if contributions == nil {
		contributions = []core.Contribution{}
	}
	writeJSON(w, http.StatusOK, envelope{
		"contributions": contributions,
		"count":         len(contributions),
		"total":         core.Money{Cents: totalCents},
	})
}
