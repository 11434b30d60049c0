package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/config"
	"github.com/volunteerhub/volunteer-hub/internal/handler"
	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires all authentication routes. The unauthenticated token
// flows live under /v1/auth behind the rate limiter; logout and password
// change additionally require a valid access token. The refresh cookie is
// path-scoped to /v1/auth, so every endpoint that reads it must live in
// this group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, codec *auth.Codec, users middleware.UserLookup, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.NewTokenBucket(rlCfg, rdb))

	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.GET("/verify-email", a.VerifyEmail)

	authed := g.Group("", middleware.Authenticate(codec, users))
	authed.POST("/logout", a.Logout)
	authed.POST("/change-password", a.ChangePassword)
}

// RegisterProfile wires the authenticated profile endpoints under /v1.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, codec *auth.Codec, users middleware.UserLookup) {
	g := e.Group("/v1", middleware.Authenticate(codec, users))
	g.GET("/me", p.Me)
	g.PATCH("/me", p.UpdateMe)
}

// RegisterEvents wires the event surface: public browsing, manager
// management and volunteer registration.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, codec *auth.Codec, users middleware.UserLookup) {
	e.GET("/v1/events", ev.List)
	e.GET("/v1/events/:id", ev.Get)

	manage := e.Group("/v1/events",
		middleware.Authenticate(codec, users),
		middleware.RequireRole(model.RoleManager, model.RoleAdmin))
	manage.POST("", ev.Create)
	manage.PUT("/:id", ev.Update)
	manage.DELETE("/:id", ev.Delete)

	member := e.Group("/v1/events", middleware.Authenticate(codec, users))
	member.POST("/:id/register", ev.Register)
	member.DELETE("/:id/register", ev.Unregister)
}

// RegisterBoard wires the per-event discussion board. Reading is public;
// posting and moderation require a valid access token.
func RegisterBoard(e *echo.Echo, b *handler.PostHandler, codec *auth.Codec, users middleware.UserLookup) {
	e.GET("/v1/events/:id/posts", b.ListPosts)
	e.GET("/v1/posts/:id/comments", b.ListComments)

	authed := e.Group("/v1", middleware.Authenticate(codec, users))
	authed.POST("/events/:id/posts", b.CreatePost)
	authed.DELETE("/posts/:id", b.DeletePost)
	authed.POST("/posts/:id/comments", b.CreateComment)
	authed.DELETE("/comments/:id", b.DeleteComment)
}

// RegisterCategories wires the category surface. The list is public;
// mutations are admin only.
func RegisterCategories(e *echo.Echo, cat *handler.CategoryHandler, codec *auth.Codec, users middleware.UserLookup) {
	e.GET("/v1/categories", cat.List)

	admin := e.Group("/v1/categories",
		middleware.Authenticate(codec, users),
		middleware.RequireRole(model.RoleAdmin))
	admin.POST("", cat.Create)
	admin.PATCH("/:id", cat.Update)
	admin.DELETE("/:id", cat.Delete)
}

// RegisterNotifications wires the authenticated notification feed.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, codec *auth.Codec, users middleware.UserLookup) {
	g := e.Group("/v1/notifications", middleware.Authenticate(codec, users))
	g.GET("", n.List)
	g.PATCH("/:id/read", n.MarkRead)
	g.POST("/read-all", n.MarkAllRead)
}
