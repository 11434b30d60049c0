package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/config"
	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/repository"
	"github.com/volunteerhub/volunteer-hub/internal/service"
)

// refreshCookie is the name of the HTTP-only session cookie. It is scoped
// to the auth routes so the browser never sends it anywhere else.
const refreshCookie = "refresh_token"

const refreshCookiePath = "/v1/auth"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: svc}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"` // VOLUNTEER | MANAGER
}
type loginReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe *bool  `json:"rememberMe"` // defaults to true, matching the web client
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}
type sessionResp struct {
	User        userPart  `json:"user"`
	AccessToken string    `json:"accessToken"`
	Expires     time.Time `json:"expires"`
	ExpiryDays  int       `json:"expiryDays"`
}

func toUserPart(s service.Session) userPart {
	return userPart{ID: s.User.ID, Email: s.User.Email, FullName: s.User.FullName, Role: s.User.Role}
}

// setRefreshCookie installs the raw refresh token in an HTTP-only,
// same-site-restricted cookie whose lifetime matches the issued window.
// The raw value never appears in a response body; access tokens stay out
// of cookies entirely.
func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, days int) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    raw,
		Path:     refreshCookiePath,
		MaxAge:   days * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// presentedRefreshToken pulls the raw refresh token from the cookie or,
// for non-browser clients, the JSON body. Anything that is not exactly
// the generator's output length is rejected before touching storage.
func presentedRefreshToken(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: create an unverified account and queue the verification mail.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and fullName required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Email, req.Password, strings.TrimSpace(req.FullName), req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Printf("auth: register failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered; check your email to verify the account",
		"user":    userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role},
	})
}

// Login: verify credentials, set the refresh cookie and return the access
// token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	rememberMe := true
	if req.RememberMe != nil {
		rememberMe = *req.RememberMe
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password, rememberMe, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		case errors.Is(err, auth.ErrEmailNotVerified):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
		case errors.Is(err, auth.ErrAccountDisabled):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
		}
		log.Printf("auth: login failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	h.setRefreshCookie(c, sess.RefreshToken, sess.ExpiryDays)
	return c.JSON(http.StatusOK, sessionResp{
		User:        toUserPart(sess),
		AccessToken: sess.AccessToken,
		Expires:     sess.AccessExpires,
		ExpiryDays:  sess.ExpiryDays,
	})
}

// Refresh: rotate the presented refresh token and return a fresh pair.
// Every failure is a uniform 401; a rotated-away or guessed token must
// look identical to an expired one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := presentedRefreshToken(c)
	if len(raw) != auth.RawTokenLen {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, raw, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenRevoked),
			errors.Is(err, auth.ErrAccountDisabled):
			h.clearRefreshCookie(c)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		log.Printf("auth: refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	h.setRefreshCookie(c, sess.RefreshToken, sess.ExpiryDays)
	return c.JSON(http.StatusOK, sessionResp{
		User:        toUserPart(sess),
		AccessToken: sess.AccessToken,
		Expires:     sess.AccessExpires,
		ExpiryDays:  sess.ExpiryDays,
	})
}

// Logout: revoke the presented refresh token and clear the cookie. A
// missing or already-dead token is a no-op success; only revoking someone
// else's token is an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	raw := presentedRefreshToken(c)
	if raw == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Auth.Logout(ctx, raw, p.ID)
	h.clearRefreshCookie(c)
	switch {
	case err == nil, errors.Is(err, auth.ErrTokenInvalid):
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, auth.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	log.Printf("auth: logout failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
}

// ChangePassword: re-verify the old password and rotate the digest. Wrong
// old password is reported as such; the caller is already authenticated.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "oldPassword and newPassword required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, p.ID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "wrong old password"})
		}
		log.Printf("auth: change password failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed; other sessions were signed out"})
}

// ForgotPassword: always answers 200 with the same body so callers cannot
// probe which addresses have accounts.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		// Storage faults are logged but still answered generically.
		log.Printf("auth: password reset request failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if that account exists, a reset email has been sent"})
}

// ResetPassword: consume the reset token and set the new password. Unknown
// and expired tokens share one external message.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and newPassword required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if len(req.Token) != auth.RawTokenLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.PerformPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenExpired):
			// Distinguished internally for logs, merged externally.
			log.Printf("auth: password reset rejected: %v", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		log.Printf("auth: password reset failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset"})
}

// VerifyEmail: consume the verification token from the emailed link and
// bounce the browser to the client login page.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if len(token) != auth.RawTokenLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired link"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.VerifyEmail(ctx, token); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenExpired):
			log.Printf("auth: email verification rejected: %v", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired link"})
		}
		log.Printf("auth: email verification failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	return c.Redirect(http.StatusFound, h.Cfg.ClientURL+"/login?verified=true")
}
