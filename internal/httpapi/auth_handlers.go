package httpapi

import (
	"errors"
	"net/http"
	"unicode"

	"github.com/camelloncase/participa-auth/internal/audit"
	"github.com/camelloncase/participa-auth/internal/auth"
	"github.com/camelloncase/participa-auth/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin("rejected")
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return
	}
	obs.ObserveLogin("ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.User.ID,
	})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.FullName == "" || req.Email == "" {
		writeError(w, r, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if msg, ok := checkPasswordPolicy(req.Password); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}
	profile, err := a.auth.Register(r.Context(), req.FullName, req.Email, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyExists):
			writeError(w, r, http.StatusConflict, "email already in use")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, r, http.StatusBadRequest, "email and password are required")
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": profile.ID,
	})
	writeJSON(w, http.StatusCreated, profile)
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	session, err := a.auth.Refresh(r.Context(), r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"user_id": session.User.ID,
	})
	writeJSON(w, http.StatusOK, session)
}

// handleForgotPassword always answers 204: whether the email exists is never
// disclosed.
func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "password recovery failed")
		return
	}
	// The counter tracks tokens actually minted; the response is the same
	// 204 either way.
	if created {
		obs.ObserveResetTokenIssued()
	}
	_ = audit.LogEvent(r.Context(), "auth.password.forgot", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		writeError(w, r, http.StatusBadRequest, "token is required")
		return
	}
	if msg, ok := checkPasswordPolicy(req.NewPassword); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}
	err := a.auth.ResetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrResetTokenNotFound),
			errors.Is(err, auth.ErrResetTokenExpiredOrUsed):
			writeError(w, r, http.StatusBadRequest, "invalid or expired password reset token")
		case errors.Is(err, auth.ErrPasswordMismatch):
			writeError(w, r, http.StatusBadRequest, "new password and confirmation must match")
		default:
			writeError(w, r, http.StatusInternalServerError, "password reset failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password.reset", nil)
	w.WriteHeader(http.StatusNoContent)
}

// checkPasswordPolicy enforces at least 8 characters with one upper, one
// lower and one digit.
func checkPasswordPolicy(password string) (string, bool) {
	if len(password) < 8 {
		return "password must have at least 8 characters", false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "password must contain an upper-case letter, a lower-case letter and a digit", false
	}
	return "", true
}
