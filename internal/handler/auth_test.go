package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/config"
	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/model"
	"github.com/volunteerhub/volunteer-hub/internal/repository"
	"github.com/volunteerhub/volunteer-hub/internal/service"
)

// Minimal in-memory stores backing a real AuthService so the handlers can
// be exercised end to end through httptest.

type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.User
}

func (m *memUsers) Create(_ context.Context, email, passwordHash, fullName, role string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	m.byID[m.nextID] = &model.User{
		ID: m.nextID, Email: email, PasswordHash: passwordHash,
		FullName: fullName, Role: role, IsActive: true,
	}
	return m.nextID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return *u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memUsers) SetEmailVerified(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.IsEmailVerified = true
		return nil
	}
	return sql.ErrNoRows
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (m *memUsers) ResetPassword(ctx context.Context, id uint64, passwordHash string) error {
	return m.UpdatePassword(ctx, id, passwordHash)
}

func (m *memUsers) UpsertFederated(_ context.Context, email, fullName, googleID string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.byID[m.nextID] = &model.User{
		ID: m.nextID, Email: email, FullName: fullName, Role: model.RoleVolunteer,
		GoogleID: googleID, IsActive: true, IsEmailVerified: true,
	}
	return *m.byID[m.nextID], nil
}

type memSessions struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[string]*model.RefreshToken
}

func (m *memSessions) Store(_ context.Context, userID uint64, tokenHash string, expiresAt time.Time, device, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.byHash[tokenHash] = &model.RefreshToken{ID: m.nextID, TokenHash: tokenHash, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *memSessions) GetByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[tokenHash]; ok {
		return *t, nil
	}
	return model.RefreshToken{}, sql.ErrNoRows
}

func (m *memSessions) ConsumeByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[tokenHash]
	if !ok {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	delete(m.byHash, tokenHash)
	return *t, nil
}

func (m *memSessions) RevokeByID(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type memEphemeral struct {
	mu    sync.Mutex
	byKey map[string]*model.EphemeralToken
}

func (m *memEphemeral) Replace(_ context.Context, userID uint64, purpose model.TokenPurpose, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[string(purpose)+":"+tokenHash] = &model.EphemeralToken{
		TokenHash: tokenHash, UserID: userID, Purpose: purpose, ExpiresAt: expiresAt,
	}
	return nil
}

func (m *memEphemeral) ConsumeByHash(_ context.Context, purpose model.TokenPurpose, tokenHash string) (model.EphemeralToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(purpose) + ":" + tokenHash
	t, ok := m.byKey[k]
	if !ok {
		return model.EphemeralToken{}, sql.ErrNoRows
	}
	delete(m.byKey, k)
	return *t, nil
}

type nopMailer struct{}

func (nopMailer) SendVerificationEmail(context.Context, string, string) error  { return nil }
func (nopMailer) SendPasswordResetEmail(context.Context, string, string) error { return nil }

func newTestHandler(t *testing.T) (*AuthHandler, *memUsers) {
	t.Helper()
	users := &memUsers{byID: map[uint64]*model.User{}}
	sessions := &memSessions{byHash: map[string]*model.RefreshToken{}}
	ephemeral := &memEphemeral{byKey: map[string]*model.EphemeralToken{}}
	hasher := auth.NewHasher(auth.Argon2Params{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	svc := service.NewAuthService(users, sessions, ephemeral, nopMailer{}, hasher, auth.NewCodec("test-secret", 15), 30)
	cfg := config.Config{ClientURL: "https://app.example.org"}
	return NewAuthHandler(cfg, svc), users
}

func seedVerifiedUser(t *testing.T, h *AuthHandler, users *memUsers, email, password string) model.User {
	t.Helper()
	hash, err := h.Auth.Hasher.Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	uid, err := users.Create(context.Background(), email, hash, "Test User", model.RoleVolunteer)
	if err != nil {
		t.Fatal(err)
	}
	if err := users.SetEmailVerified(context.Background(), uid); err != nil {
		t.Fatal(err)
	}
	u, err := users.GetByID(context.Background(), uid)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func postJSON(t *testing.T, fn echo.HandlerFunc, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	if err := fn(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookie {
			return ck
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	rec := postJSON(t, h.Login, `{"email":"ana@example.org","password":"pw-secret-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	ck := refreshCookieFrom(t, rec)
	if len(ck.Value) != auth.RawTokenLen {
		t.Fatalf("cookie value length %d, want %d", len(ck.Value), auth.RawTokenLen)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteNoneMode {
		t.Fatalf("cookie attributes wrong: %+v", ck)
	}
	if ck.Path != "/v1/auth" {
		t.Fatalf("cookie path = %q", ck.Path)
	}
	// rememberMe defaults to true: a 30-day window.
	if ck.MaxAge != 30*24*60*60 {
		t.Fatalf("cookie max-age = %d", ck.MaxAge)
	}

	// The raw refresh token never leaks into the body.
	if strings.Contains(rec.Body.String(), ck.Value) {
		t.Fatal("raw refresh token present in response body")
	}
	var body struct {
		AccessToken string `json:"accessToken"`
		ExpiryDays  int    `json:"expiryDays"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.AccessToken == "" || body.ExpiryDays != 30 {
		t.Fatalf("body = %+v", body)
	}
}

func TestLoginShortWindowCookie(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	rec := postJSON(t, h.Login, `{"email":"ana@example.org","password":"pw-secret-1","rememberMe":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ck := refreshCookieFrom(t, rec); ck.MaxAge != 24*60*60 {
		t.Fatalf("cookie max-age = %d, want one day", ck.MaxAge)
	}
}

func TestLoginRejections(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	for _, tc := range []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"ana@example.org","password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@example.org","password":"whatever1"}`, http.StatusUnauthorized},
		{"empty body", `{}`, http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == refreshCookie {
					t.Fatal("refresh cookie set on failed login")
				}
			}
		})
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	login := postJSON(t, h.Login, `{"email":"ana@example.org","password":"pw-secret-1"}`)
	first := refreshCookieFrom(t, login)

	rec := postJSON(t, h.Refresh, "", first)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	second := refreshCookieFrom(t, rec)
	if second.Value == first.Value {
		t.Fatal("refresh did not rotate the cookie")
	}

	// The consumed cookie is dead; presenting it again clears it.
	rec = postJSON(t, h.Refresh, "", first)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", rec.Code)
	}
	if ck := refreshCookieFrom(t, rec); ck.MaxAge >= 0 || ck.Value != "" {
		t.Fatalf("stale cookie not cleared: %+v", ck)
	}
}

func TestRefreshFromBodyForNonBrowserClients(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	login := postJSON(t, h.Login, `{"email":"ana@example.org","password":"pw-secret-1"}`)
	raw := refreshCookieFrom(t, login).Value

	rec := postJSON(t, h.Refresh, `{"refreshToken":"`+raw+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshRejectsMalformedToken(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, body := range []string{
		`{}`,
		`{"refreshToken":"short"}`,
		`{"refreshToken":"` + strings.Repeat("z", auth.RawTokenLen+1) + `"}`,
	} {
		rec := postJSON(t, h.Refresh, body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: status = %d, want 401", body, rec.Code)
		}
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h, users := newTestHandler(t)
	u := seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	login := postJSON(t, h.Login, `{"email":"ana@example.org","password":"pw-secret-1"}`)
	ck := refreshCookieFrom(t, login)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("principal", middleware.Principal{ID: u.ID, Email: u.Email, Role: u.Role})

	if err := h.Logout(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if cleared := refreshCookieFrom(t, rec); cleared.MaxAge >= 0 {
		t.Fatal("cookie not cleared on logout")
	}
	// The revoked token no longer refreshes.
	if rec := postJSON(t, h.Refresh, "", ck); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d, want 401", rec.Code)
	}
}

func TestForgotPasswordIsUniform(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	hit := postJSON(t, h.ForgotPassword, `{"email":"ana@example.org"}`)
	miss := postJSON(t, h.ForgotPassword, `{"email":"ghost@example.org"}`)
	if hit.Code != http.StatusOK || miss.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", hit.Code, miss.Code)
	}
	if hit.Body.String() != miss.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", hit.Body.String(), miss.Body.String())
	}
}

func TestRegisterConflict(t *testing.T) {
	h, users := newTestHandler(t)
	seedVerifiedUser(t, h, users, "ana@example.org", "pw-secret-1")

	rec := postJSON(t, h.Register, `{"email":"ana@example.org","password":"pw-secret-2","fullName":"Dup"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
