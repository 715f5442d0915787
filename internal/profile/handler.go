package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/middleware"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/gin-gonic/gin"
)

// Synchronizer defines the operations the HTTP layer needs from the
// profile service.
type Synchronizer interface {
	Upsert(ctx context.Context, req UpsertRequest) (*models.Profile, error)
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

// Handler exposes the upsert/get pipeline over HTTP.
type Handler struct {
	svc Synchronizer
}

func NewHandler(svc Synchronizer) *Handler {
	return &Handler{svc: svc}
}

type UpsertProfileRequest struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	AvatarRef   string `json:"avatar_ref"`
}

// RegisterRoutes attaches the profile endpoints to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/user/v1/upsert", h.Upsert)
	router.GET("/users/v1/getUser", h.GetUser)
}

func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	p, err := h.svc.Upsert(c.Request.Context(), UpsertRequest{
		UserID:      req.UserID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		AvatarRef:   req.AvatarRef,
	})
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid profile data")
			return
		}
		middleware.RespondWithError(c, http.StatusNotFound, "Failed to upsert user")
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetUser(c *gin.Context) {
	userID := c.Query("user_id")

	p, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			middleware.RespondWithError(c, http.StatusBadRequest, "user_id is required")
			return
		}
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, p)
}
