package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/middleware"
	"github.com/volunteerhub/volunteer-hub/internal/model"
	"github.com/volunteerhub/volunteer-hub/internal/repository"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	Users *repository.UserRepo
}

func NewProfileHandler(users *repository.UserRepo) *ProfileHandler {
	return &ProfileHandler{Users: users}
}

type profileResp struct {
	ID              uint64    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Location        string    `json:"location"`
	PhoneNumber     string    `json:"phoneNumber"`
	Bio             string    `json:"bio"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toProfileResp(u model.User) profileResp {
	return profileResp{
		ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role,
		IsEmailVerified: u.IsEmailVerified, Location: u.Location,
		PhoneNumber: u.PhoneNumber, Bio: u.Bio,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

type updateProfileReq struct {
	FullName    *string `json:"fullName"`
	Location    *string `json:"location"`
	PhoneNumber *string `json:"phoneNumber"`
	Bio         *string `json:"bio"`
}

// Me returns the resolved principal's profile.
func (h *ProfileHandler) Me(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		log.Printf("profile: load failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UpdateMe applies a partial profile update. Omitted fields keep their
// stored values.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName == nil && req.Location == nil && req.PhoneNumber == nil && req.Bio == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		log.Printf("profile: load failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName cannot be empty"})
		}
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Location != nil {
		u.Location = strings.TrimSpace(*req.Location)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Bio != nil {
		u.Bio = strings.TrimSpace(*req.Bio)
	}
	if err := h.Users.UpdateProfile(ctx, u.ID, u.FullName, u.Location, u.PhoneNumber, u.Bio); err != nil {
		log.Printf("profile: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	u, err = h.Users.GetByID(ctx, p.ID)
	if err != nil {
		log.Printf("profile: reload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}
