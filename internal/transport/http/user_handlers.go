package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

// UserHandlers provides HTTP handlers for profile operations.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UserResponse represents a user in API responses. The password hash never leaves the store.
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
}

// UpdateProfileRequest carries optional profile fields. Absent or blank fields are unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=64"`
	LastName  *string `json:"lastName" binding:"omitempty,max=64"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	Avatar    *string `json:"avatar" binding:"omitempty,max=2048"`
}

// nonBlank trims v and returns nil when nothing is left.
func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Me returns the authenticated user.
// GET /api/users/me
func (h *UserHandlers) Me(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateMe changes profile fields of the authenticated user.
// PUT /api/users/me
func (h *UserHandlers) UpdateMe(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid profile update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.store.UpdateProfile(c.Request.Context(), uid, store.ProfileUpdate{
		FirstName: nonBlank(req.FirstName),
		LastName:  nonBlank(req.LastName),
		Phone:     nonBlank(req.Phone),
		Avatar:    nonBlank(req.Avatar),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// ListAll returns every account.
// GET /api/users/all
func (h *UserHandlers) ListAll(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(users, func(u *store.User, _ int) UserResponse {
		return userToResponse(u)
	}))
}
