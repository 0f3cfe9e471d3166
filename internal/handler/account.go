package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/validation"
)

// Accounts is the account directory as the HTTP layer sees it.
type Accounts interface {
	Signup(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	MarkNotNew(ctx context.Context, userID string) error
}

// AccountHandler serves signup, login and the first-visit flag.
// There are no sessions: a successful login just returns the user.
type AccountHandler struct {
	validator *validation.Validator
	accounts  Accounts
	logger    *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(v *validation.Validator, accounts Accounts, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		validator: v,
		accounts:  accounts,
		logger:    logger,
	}
}

// SignupResponse is the body of a successful POST /signup.
type SignupResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	User model.PublicUser `json:"user"`
}

// HandleSignup registers an account.
//
// HTTP: POST /signup
// REQUEST BODY: {"name": "...", "email": "...", "password": "..."}
func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.validator.Signup(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SignupResponse{
		Message: "User registered successfully",
		User:    user.Public(),
	})
}

// HandleLogin checks credentials and returns the public user.
//
// HTTP: POST /login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.validator.Login(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{User: user.Public()})
}

// HandleMarkNotNew clears the new-user flag. Repeating it is fine.
//
// HTTP: POST /mark-not-new/{user_id}
func (h *AccountHandler) HandleMarkNotNew(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.MarkNotNew(r.Context(), chi.URLParam(r, "user_id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User marked as old"})
}
