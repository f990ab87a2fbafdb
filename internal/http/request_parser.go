// Package http provides the JSON API server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data. It reduces duplication by providing reusable functions for query
// parameter extraction.
package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parsePagination extracts page and limit, clamping them to sane bounds.
func parsePagination(query url.Values) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// parseDateParam returns the named query parameter as a time, nil when
// absent, or a field violation when malformed.
func parseDateParam(query url.Values, name string, verr *core.ValidationError) *time.Time {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil
	}
	t, err := parseDate(v)
	if err != nil {
		verr.Add(name, "Must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return nil
	}
	return &t
}

// parseAmountParam returns the named decimal query parameter in cents,
// nil when absent.
func parseAmountParam(query url.Values, name string, verr *core.ValidationError) *int64 {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil
	}
	cents, err := core.ParseDecimalToCents(v)
	if err != nil {
		verr.Add(name, "Must be a non-negative decimal amount")
		return nil
	}
	return &cents
}

// parseExpenseFilter assembles the full listing filter from the query
// string, collecting every malformed parameter.
func parseExpenseFilter(query url.Values) (storage.ExpenseFilter, error) {
	verr := &core.ValidationError{}
	page, limit := parsePagination(query)

	f := storage.ExpenseFilter{
		Category:  strings.TrimSpace(query.Get("category")),
		StartDate: parseDateParam(query, "startDate", verr),
		EndDate:   parseDateParam(query, "endDate", verr),
		MinCents:  parseAmountParam(query, "minAmount", verr),
		MaxCents:  parseAmountParam(query, "maxAmount", verr),
		Search:    strings.TrimSpace(query.Get("search")),
		Page:      page,
		Limit:     limit,
	}
	if err := verr.OrNil(); err != nil {
		return storage.ExpenseFilter{}, err
	}
	return f, nil
}

// parseIntParam returns the named integer query parameter, 0 when absent.
func parseIntParam(query url.Values, name string, verr *core.ValidationError) int {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(name, "Must be an integer")
		return 0
	}
	return n
}
