package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// PostStore is the slice of post persistence the board handlers need.
type PostStore interface {
	ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]model.Post, int, error)
	GetByID(ctx context.Context, id uint64) (model.Post, error)
	Create(ctx context.Context, p *model.Post) (uint64, error)
	Delete(ctx context.Context, id uint64) error
}

// CommentStore is the slice of comment persistence the board handlers
// need.
type CommentStore interface {
	ListByPost(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, int, error)
	GetByID(ctx context.Context, id uint64) (model.Comment, error)
	Create(ctx context.Context, c *model.Comment) (uint64, error)
	Delete(ctx context.Context, id uint64) error
}

// EventLookup resolves the event a post belongs to, both for existence
// checks and for the board's moderation rule: the event's creator may
// remove any post or comment under it.
type EventLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// NotificationStore receives the in-app notifications the board actions
// fan out.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, id, userID uint64) error
	MarkAllRead(ctx context.Context, userID uint64) error
}

// PostHandler serves the per-event discussion board: posts and their
// comments. New posts notify the event's creator; new comments notify the
// post's author.
type PostHandler struct {
	Posts         PostStore
	Comments      CommentStore
	Events        EventLookup
	Notifications NotificationStore
}

func NewPostHandler(posts PostStore, comments CommentStore, events EventLookup, notifications NotificationStore) *PostHandler {
	return &PostHandler{Posts: posts, Comments: comments, Events: events, Notifications: notifications}
}

type contentReq struct {
	Content string `json:"content"`
}

type postResp struct {
	ID         uint64    `json:"id"`
	EventID    uint64    `json:"eventId"`
	AuthorID   uint64    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type commentResp struct {
	ID         uint64    `json:"id"`
	PostID     uint64    `json:"postId"`
	AuthorID   uint64    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type pageMeta struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// pageArgs reads the page/limit query parameters with defensive defaults.
func pageArgs(c echo.Context) (limit, offset, page int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return limit, (page - 1) * limit, page
}

func makePageMeta(total, page, limit int) pageMeta {
	pages := (total + limit - 1) / limit
	return pageMeta{TotalItems: total, TotalPages: pages, CurrentPage: page, Limit: limit}
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// ListPosts returns one page of an event's board, public.
func (h *PostHandler) ListPosts(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit, offset, page := pageArgs(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Printf("board: event lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list posts failed"})
	}
	posts, total, err := h.Posts.ListByEvent(ctx, eventID, limit, offset)
	if err != nil {
		log.Printf("board: list posts failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list posts failed"})
	}
	out := make([]postResp, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out, "pagination": makePageMeta(total, page, limit)})
}

// CreatePost adds a post to an event's board and notifies the event's
// creator.
func (h *PostHandler) CreatePost(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req contentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Printf("board: event lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}

	post := model.Post{EventID: eventID, AuthorID: p.ID, Content: strings.TrimSpace(req.Content)}
	id, err := h.Posts.Create(ctx, &post)
	if err != nil {
		log.Printf("board: create post failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}
	post.ID = id

	if ev.CreatedBy != p.ID {
		h.notify(ev.CreatedBy,
			fmt.Sprintf("New post in your event %q", ev.Title),
			model.TargetPost, id)
	}
	return c.JSON(http.StatusCreated, postResp(post))
}

// DeletePost removes a post. Allowed for the post's author, the event's
// creator and admins.
func (h *PostHandler) DeletePost(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		log.Printf("board: post lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
	}
	allowed, err := h.canModerate(ctx, p, post.AuthorID, post.EventID)
	if err != nil {
		log.Printf("board: moderation check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Posts.Delete(ctx, id); err != nil {
		log.Printf("board: delete post failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListComments returns one page of a post's comments, public, oldest
// first.
func (h *PostHandler) ListComments(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	limit, offset, page := pageArgs(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		log.Printf("board: post lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list comments failed"})
	}
	comments, total, err := h.Comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		log.Printf("board: list comments failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list comments failed"})
	}
	out := make([]commentResp, 0, len(comments))
	for _, cm := range comments {
		out = append(out, commentResp(cm))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out, "pagination": makePageMeta(total, page, limit)})
}

// CreateComment replies to a post and notifies the post's author.
func (h *PostHandler) CreateComment(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req contentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	post, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		log.Printf("board: post lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}

	comment := model.Comment{PostID: postID, AuthorID: p.ID, Content: strings.TrimSpace(req.Content)}
	id, err := h.Comments.Create(ctx, &comment)
	if err != nil {
		log.Printf("board: create comment failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}
	comment.ID = id

	if post.AuthorID != p.ID {
		h.notify(post.AuthorID, "Someone commented on your post", model.TargetPost, postID)
	}
	return c.JSON(http.StatusCreated, commentResp(comment))
}

// DeleteComment removes a comment, same moderation rule as DeletePost.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	comment, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		log.Printf("board: comment lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	post, err := h.Posts.GetByID(ctx, comment.PostID)
	if err != nil {
		log.Printf("board: post lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	allowed, err := h.canModerate(ctx, p, comment.AuthorID, post.EventID)
	if err != nil {
		log.Printf("board: moderation check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Comments.Delete(ctx, id); err != nil {
		log.Printf("board: delete comment failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// canModerate reports whether the principal may remove content authored
// by authorID under the given event: the author, the event's creator and
// admins may.
func (h *PostHandler) canModerate(ctx context.Context, p middleware.Principal, authorID, eventID uint64) (bool, error) {
	if p.ID == authorID || p.Role == model.RoleAdmin {
		return true, nil
	}
	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return ev.CreatedBy == p.ID, nil
}

// notify writes an in-app notification on a detached goroutine. Failures
// are logged and never surface to the request that triggered them.
func (h *PostHandler) notify(userID uint64, content, targetType string, targetID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n := model.Notification{UserID: userID, Content: content, TargetType: targetType, TargetID: targetID}
		if err := h.Notifications.Create(ctx, &n); err != nil {
			log.Printf("board: notification for user %d failed: %v", userID, err)
		}
	}()
}
