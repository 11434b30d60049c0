package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/model"
)

type stubUsers struct {
	byID map[uint64]model.User
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return model.User{}, sql.ErrNoRows
}

// invoke runs the middleware chain against a GET request carrying the
// given Authorization header and returns the recorder plus the principal
// seen by the terminal handler, if any.
func invoke(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Principal
	h := func(c echo.Context) error {
		if p, ok := CurrentPrincipal(c); ok {
			seen = &p
		}
		return c.NoContent(http.StatusOK)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, seen
}

func responseCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	codec := auth.NewCodec("test-secret", 15)
	users := &stubUsers{byID: map[uint64]model.User{
		7: {ID: 7, Email: "ana@example.org", Role: model.RoleManager, IsActive: true},
	}}
	token, _, err := codec.Sign(7, model.RoleManager)
	if err != nil {
		t.Fatal(err)
	}

	rec, p := invoke(t, []echo.MiddlewareFunc{Authenticate(codec, users)}, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if p == nil {
		t.Fatal("no principal attached")
	}
	if p.ID != 7 || p.Email != "ana@example.org" || p.Role != model.RoleManager {
		t.Fatalf("principal = %+v", p)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	codec := auth.NewCodec("test-secret", 15)
	users := &stubUsers{byID: map[uint64]model.User{
		7: {ID: 7, Email: "ana@example.org", Role: model.RoleVolunteer, IsActive: true},
		8: {ID: 8, Email: "off@example.org", Role: model.RoleVolunteer, IsActive: false},
	}}
	valid := func(uid uint64) string {
		t.Helper()
		token, _, err := codec.Sign(uid, model.RoleVolunteer)
		if err != nil {
			t.Fatal(err)
		}
		return token
	}
	expired, _, err := auth.NewCodec("test-secret", -1).Sign(7, model.RoleVolunteer)
	if err != nil {
		t.Fatal(err)
	}
	foreign, _, err := auth.NewCodec("other-secret", 15).Sign(7, model.RoleVolunteer)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"no header", "", http.StatusUnauthorized, "missing_token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "missing_token"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid_token"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "token_expired"},
		{"wrong signing key", "Bearer " + foreign, http.StatusUnauthorized, "invalid_token"},
		{"deleted subject", "Bearer " + valid(99), http.StatusUnauthorized, "unknown_subject"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, p := invoke(t, []echo.MiddlewareFunc{Authenticate(codec, users)}, tc.header)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if code := responseCode(t, rec); code != tc.wantCode {
				t.Fatalf("code = %q, want %q", code, tc.wantCode)
			}
			if p != nil {
				t.Fatal("principal attached on rejected request")
			}
		})
	}

	t.Run("disabled account", func(t *testing.T) {
		rec, p := invoke(t, []echo.MiddlewareFunc{Authenticate(codec, users)}, "Bearer "+valid(8))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		if p != nil {
			t.Fatal("principal attached for disabled account")
		}
	})
}

func TestRequireRole(t *testing.T) {
	codec := auth.NewCodec("test-secret", 15)
	users := &stubUsers{byID: map[uint64]model.User{
		1: {ID: 1, Email: "v@example.org", Role: model.RoleVolunteer, IsActive: true},
		2: {ID: 2, Email: "m@example.org", Role: model.RoleManager, IsActive: true},
	}}
	chain := []echo.MiddlewareFunc{
		Authenticate(codec, users),
		RequireRole(model.RoleManager, model.RoleAdmin),
	}

	mgr, _, err := codec.Sign(2, model.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := invoke(t, chain, "Bearer "+mgr)
	if rec.Code != http.StatusOK {
		t.Fatalf("manager blocked: %d", rec.Code)
	}

	vol, _, err := codec.Sign(1, model.RoleVolunteer)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ = invoke(t, chain, "Bearer "+vol)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("volunteer not blocked: %d", rec.Code)
	}

	// Without Authenticate in the chain there is no principal at all.
	rec, _ = invoke(t, []echo.MiddlewareFunc{RequireRole(model.RoleManager)}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing principal: %d, want 401", rec.Code)
	}
}
