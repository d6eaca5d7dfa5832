package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camelloncase/participa-auth/internal/auth"
)

func rawResetToken(t *testing.T, store *auth.MemStore) string {
	t.Helper()
	values := store.ResetTokenValues()
	if len(values) != 1 {
		t.Fatalf("expected exactly one reset token, got %d", len(values))
	}
	return values[0]
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginHandler(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUser(t, store, "ana@example.com", "Sup3rSecret")
	handler := api.Handler()

	rec := postJSON(handler, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Sup3rSecret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var session auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" || session.TokenType != "Bearer" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.ExpiresInMs != time.Hour.Milliseconds() {
		t.Fatalf("unexpected expiresIn: %d", session.ExpiresInMs)
	}
	if session.User.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", session.User)
	}
}

func TestLoginHandlerRejections(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUser(t, store, "ana@example.com", "Sup3rSecret")
	handler := api.Handler()

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"ana@example.com","password":"WrongPass1"}`},
		{"unknown email", `{"email":"nobody@example.com","password":"Sup3rSecret"}`},
	}
	for _, tc := range cases {
		rec := postJSON(handler, "/api/v1/auth/login", tc.body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, rec.Code)
		}
		var payload map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["error"] != "invalid email or password" {
			t.Fatalf("%s: disclosing error message: %v", tc.name, payload["error"])
		}
	}

	rec := postJSON(handler, "/api/v1/auth/login", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", getRec.Code)
	}
}

func TestRegisterHandler(t *testing.T) {
	api, _, _ := newTestAPI(t)
	handler := api.Handler()

	rec := postJSON(handler, "/api/v1/auth/register",
		`{"fullName":"Ana Souza","email":"ana@example.com","phone":"+5561999990000","password":"Sup3rSecret"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile auth.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "ana@example.com" || profile.Role != auth.RoleCustomer {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// Duplicate email.
	rec = postJSON(handler, "/api/v1/auth/register",
		`{"fullName":"Other","email":"ana@example.com","phone":"","password":"An0therPass"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// Password policy.
	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		rec = postJSON(handler, "/api/v1/auth/register",
			`{"fullName":"Ana","email":"new@example.com","phone":"","password":"`+password+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("password %q: expected 400, got %d", password, rec.Code)
		}
	}
}

func TestRefreshTokenHandler(t *testing.T) {
	api, store, clock := newTestAPI(t)
	seedUser(t, store, "ana@example.com", "Sup3rSecret")
	handler := api.Handler()
	token := loginToken(t, handler)

	clock.Advance(time.Second)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var session auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == token {
		t.Fatal("refresh must return a different token")
	}

	// Missing and malformed headers.
	for _, header := range []string{"", "Token abc"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestForgotPasswordHandlerNeverDiscloses(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUser(t, store, "ana@example.com", "Sup3rSecret")
	handler := api.Handler()

	// Known email: 204 and one token created.
	rec := postJSON(handler, "/api/v1/auth/forgot-password", `{"email":"ana@example.com"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if n := store.ResetTokenCount(); n != 1 {
		t.Fatalf("expected 1 token, got %d", n)
	}

	// Unknown email: same 204, nothing persisted.
	rec = postJSON(handler, "/api/v1/auth/forgot-password", `{"email":"nobody@example.com"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown email, got %d", rec.Code)
	}
	if n := store.ResetTokenCount(); n != 1 {
		t.Fatalf("unknown email must not create a token, got %d", n)
	}
}

func TestResetPasswordHandler(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUser(t, store, "ana@example.com", "Sup3rSecret")
	handler := api.Handler()

	rec := postJSON(handler, "/api/v1/auth/forgot-password", `{"email":"ana@example.com"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("forgot: expected 204, got %d", rec.Code)
	}
	raw := rawResetToken(t, store)

	// Confirmation mismatch.
	rec = postJSON(handler, "/api/v1/auth/reset-password",
		`{"token":"`+raw+`","newPassword":"N3wPassword","confirmNewPassword":"D1fferent"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatch: expected 400, got %d", rec.Code)
	}

	// Success.
	rec = postJSON(handler, "/api/v1/auth/reset-password",
		`{"token":"`+raw+`","newPassword":"N3wPassword","confirmNewPassword":"N3wPassword"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Replay of a consumed token.
	rec = postJSON(handler, "/api/v1/auth/reset-password",
		`{"token":"`+raw+`","newPassword":"An0therPass","confirmNewPassword":"An0therPass"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("replay: expected 400, got %d", rec.Code)
	}

	// Unknown token gets the same non-disclosing message as expired/used.
	rec = postJSON(handler, "/api/v1/auth/reset-password",
		`{"token":"no-such-token","newPassword":"N3wPassword","confirmNewPassword":"N3wPassword"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown: expected 400, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error"] != "invalid or expired password reset token" {
		t.Fatalf("disclosing error: %v", payload["error"])
	}

	// New password works, old one does not.
	rec = postJSON(handler, "/api/v1/auth/login", `{"email":"ana@example.com","password":"N3wPassword"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: %d", rec.Code)
	}
	rec = postJSON(handler, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Sup3rSecret"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with old password: %d", rec.Code)
	}
}
