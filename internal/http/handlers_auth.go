package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Currency string `json:"currency"`
}

func (req *registerRequest) validate() error {
	verr := &core.ValidationError{}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		verr.Add("email", "A valid email address is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "Name is required")
	}
	if len(req.Password) < 8 {
		verr.Add("password", "Password must be at least 8 characters")
	}
	return verr.OrNil()
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	user := &core.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Currency:     currency,
	}
	if err := s.storage.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			verr := &core.ValidationError{}
			verr.Add("email", "Email is already registered")
			writeError(w, r, verr)
			return
		}
		writeError(w, r, err)
		return
	}

	token, err := s.openSession(r, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": "Account created",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.storage.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// An unknown address and a wrong password must be indistinguishable.
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, r, core.ErrUnauthorized)
			return
		}
		writeError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, r, core.ErrUnauthorized)
		return
	}

	token, err := s.openSession(r, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Logged in",
		"token":   token,
		"user":    user,
	})
}

func (s *Server) openSession(r *http.Request, userID string) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	expires := time.Now().UTC().Add(s.sessionTTL)
	if err := s.storage.CreateSession(r.Context(), token, userID, expires); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteSession(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

type profileRequest struct {
	Name          *string     `json:"name"`
	Currency      *string     `json:"currency"`
	MonthlyBudget *core.Money `json:"monthlyBudget"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Currency != nil {
		user.Currency = strings.TrimSpace(*req.Currency)
	}
	if req.MonthlyBudget != nil {
		user.MonthlyBudget = *req.MonthlyBudget
	}

	verr := &core.ValidationError{}
	if user.Name == "" {
		verr.Add("name", "Name is required")
	}
	if user.Currency == "" {
		verr.Add("currency", "Currency is required")
	}
	if user.MonthlyBudget.Cents < 0 {
		verr.Add("monthlyBudget", "Monthly budget cannot be negative")
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.storage.UpdateUserProfile(r.Context(), user.ID, user.Name, user.Currency, user.MonthlyBudget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "Profile updated",
		"user":    user,
	})
}
