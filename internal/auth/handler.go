package auth

import (
	"context"
	"net/http"

	"github.com/chvishal182/finance-panorama/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Authenticator defines the operations the HTTP layer needs from the auth
// service.
type Authenticator interface {
	Signup(ctx context.Context, req SignupRequest) (*TokenPair, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, token string) (*TokenPair, error)
}

type Handler struct {
	svc Authenticator
}

func NewHandler(svc Authenticator) *Handler {
	return &Handler{svc: svc}
}

type SignupHTTPRequest struct {
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

// RegisterRoutes attaches the auth endpoints to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/v1/signup", h.Signup)
	router.POST("/auth/v1/login", h.Login)
	router.POST("/auth/v1/refresh", h.Refresh)
	router.GET("/ping", middleware.AuthMiddleware(), h.Ping)
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	pair, err := h.svc.Signup(c.Request.Context(), SignupRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if IsConflict(err) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Already exists")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Ping returns the authenticated caller's user id, confirming the token is
// valid.
func (h *Handler) Ping(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.String(http.StatusOK, userID)
}
