package handlers

import (
	"net/http"

	"github.com/pribylovaa/techblog/internal/auth"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func viewOf(a models.Account) userView {
	return userView{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

type loginResponse struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

// Login - POST /api/auth/login. Логин принимается в username (или email).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	identifier := in.Username
	if identifier == "" {
		identifier = in.Email
	}

	res, err := h.svc.Login(r.Context(), identifier, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, h.session.CookieName, res.Token, h.session.TTL, h.session.Secure)
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: viewOf(res.Account)})
}

// Logout - POST /api/auth/logout. Сервер не хранит сессий: достаточно стереть cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.session.CookieName, h.session.Secure)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// Me - GET /api/auth/me, текущий аккаунт.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.gate.RequireAuthenticated(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User userView `json:"user"`
	}{viewOf(*acc)})
}
