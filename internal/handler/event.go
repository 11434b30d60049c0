package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/model"
	"github.com/volunteerhub/volunteer-hub/internal/repository"
)

// EventHandler serves the volunteer-event CRUD surface. This is the thin
// request/response layer around storage; the interesting invariants all
// live in the auth subsystem.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

type eventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Capacity    uint32    `json:"capacity"`
}

type eventResp struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Capacity    uint32    `json:"capacity"`
	Registered  uint32    `json:"registered"`
	CreatedBy   uint64    `json:"createdBy"`
}

func toEventResp(e model.Event, registered uint32) eventResp {
	return eventResp{
		ID: e.ID, Title: e.Title, Description: e.Description, Location: e.Location,
		StartsAt: e.StartsAt, EndsAt: e.EndsAt, Capacity: e.Capacity,
		Registered: registered, CreatedBy: e.CreatedBy,
	}
}

func eventID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List returns all events, public.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.List(ctx)
	if err != nil {
		log.Printf("events: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		n, err := h.Events.CountRegistrations(ctx, e.ID)
		if err != nil {
			log.Printf("events: count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
		}
		out = append(out, toEventResp(e, n))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one event, public.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Printf("events: get failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get event failed"})
	}
	n, err := h.Events.CountRegistrations(ctx, id)
	if err != nil {
		log.Printf("events: count failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get event failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(e, n))
}

// Create inserts a new event owned by the acting manager.
func (h *EventHandler) Create(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, startsAt and endsAt required"})
	}
	if !req.EndsAt.After(req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endsAt must be after startsAt"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := model.Event{
		Title: strings.TrimSpace(req.Title), Description: req.Description,
		Location: req.Location, StartsAt: req.StartsAt, EndsAt: req.EndsAt,
		Capacity: req.Capacity, CreatedBy: p.ID,
	}
	id, err := h.Events.Create(ctx, &e)
	if err != nil {
		log.Printf("events: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	e.ID = id
	return c.JSON(http.StatusCreated, toEventResp(e, 0))
}

// Update replaces an event's fields. Managers may only touch their own
// events; admins may touch any.
func (h *EventHandler) Update(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := eventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Printf("events: get failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	if e.CreatedBy != p.ID && p.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if strings.TrimSpace(req.Title) != "" {
		e.Title = strings.TrimSpace(req.Title)
	}
	e.Description = req.Description
	e.Location = req.Location
	if !req.StartsAt.IsZero() {
		e.StartsAt = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		e.EndsAt = req.EndsAt
	}
	e.Capacity = req.Capacity
	if !e.EndsAt.After(e.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endsAt must be after startsAt"})
	}
	if err := h.Events.Update(ctx, &e); err != nil {
		log.Printf("events: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	n, _ := h.Events.CountRegistrations(ctx, id)
	return c.JSON(http.StatusOK, toEventResp(e, n))
}

// Delete removes an event and its registrations, same ownership rule as
// Update.
func (h *EventHandler) Delete(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := eventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		log.Printf("events: get failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	if e.CreatedBy != p.ID && p.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Events.Delete(ctx, id); err != nil {
		log.Printf("events: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Register signs the acting volunteer up for an event.
func (h *EventHandler) Register(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := eventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Register(ctx, id, p.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already registered or event full"})
		}
		log.Printf("events: register failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "registered"})
}

// Unregister removes the acting volunteer's registration.
func (h *EventHandler) Unregister(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := eventID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Unregister(ctx, id, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		log.Printf("events: unregister failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unregister failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
