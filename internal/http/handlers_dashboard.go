package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// Dashboard handlers are thin shims over the aggregation engine: parse
// the query, call the engine, write the result.

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	overview, err := s.reports.Overview(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	trends, err := s.reports.Trends(r.Context(), user.ID, query.Get("period"), query.Get("groupBy"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	verr := &core.ValidationError{}
	start := parseDateParam(query, "startDate", verr)
	end := parseDateParam(query, "endDate", verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	analysis, err := s.reports.CategoryAnalysis(r.Context(), user.ID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleGoalsProgress(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	progress, err := s.reports.GoalsProgress(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	verr := &core.ValidationError{}
	year := parseIntParam(query, "year", verr)
	month := parseIntParam(query, "month", verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.MonthlyReport(r.Context(), user, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
