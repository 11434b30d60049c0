package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// Principal is the resolved acting user attached to the request context by
// Authenticate. Downstream handlers and the role gate read it via
// CurrentPrincipal.
type Principal struct {
	ID    uint64
	Email string
	Role  string
}

// principalKey is the echo context key the principal is stored under.
const principalKey = "principal"

// CurrentPrincipal returns the authenticated principal for the request, or
// false when Authenticate did not run or did not succeed.
func CurrentPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// UserLookup is the slice of user storage the authenticator needs to
// resolve a token subject into a live account.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticate returns middleware that verifies the bearer access token
// and resolves the acting principal. The token's claims are not trusted on
// their own: the user is re-fetched so accounts deactivated after the
// token was signed are rejected. All token failures collapse into a
// uniform 401; expired vs tampered is only distinguished in the response
// body's code field so well-behaved clients know when a refresh is worth
// attempting.
func Authenticate(codec *auth.Codec, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "missing_token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := codec.Verify(raw)
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, auth.ErrTokenExpired) {
					// Normal condition: the client should refresh, not
					// re-authenticate.
					code = "token_expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": code})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unknown_subject"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth lookup failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
			}

			c.Set(principalKey, Principal{ID: u.ID, Email: u.Email, Role: u.Role})
			return next(c)
		}
	}
}
