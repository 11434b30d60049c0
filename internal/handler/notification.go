package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/middleware"
)

// NotificationHandler serves the authenticated user's own notification
// feed. Writing notifications happens as a side effect of board actions;
// this surface only reads and acknowledges them.
type NotificationHandler struct {
	Notifications NotificationStore
}

func NewNotificationHandler(notifications NotificationStore) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

type notificationResp struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"-"`
	Content    string    `json:"content"`
	TargetType string    `json:"targetType"`
	TargetID   uint64    `json:"targetId"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List returns one page of the principal's notifications, newest first.
// ?filter=unread restricts the page to unread rows.
func (h *NotificationHandler) List(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset, page := pageArgs(c)
	unreadOnly := c.QueryParam("filter") == "unread"

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Notifications.ListForUser(ctx, p.ID, unreadOnly, limit, offset)
	if err != nil {
		log.Printf("notifications: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notifications failed"})
	}
	out := make([]notificationResp, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResp(n))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out, "pagination": makePageMeta(total, page, limit)})
}

// MarkRead acknowledges one notification. Notifications belonging to
// someone else are indistinguishable from missing ones.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		log.Printf("notifications: mark read failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification read"})
}

// MarkAllRead acknowledges every unread notification of the principal.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, p.ID); err != nil {
		log.Printf("notifications: mark all read failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark all read failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all notifications read"})
}
