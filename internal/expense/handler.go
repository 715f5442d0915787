package expense

import (
	"context"
	"errors"
	"net/http"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/middleware"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/gin-gonic/gin"
)

// Expenser defines the operations the HTTP layer needs from the expense
// service.
type Expenser interface {
	Create(ctx context.Context, e *models.Expense) error
	List(ctx context.Context, userID string) ([]models.Expense, error)
	Update(ctx context.Context, req UpdateRequest) (*models.Expense, error)
}

type Handler struct {
	svc Expenser
}

func NewHandler(svc Expenser) *Handler {
	return &Handler{svc: svc}
}

type AddExpenseRequest struct {
	ExternalID string  `json:"external_id"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Merchant   string  `json:"merchant"`
	Currency   string  `json:"currency"`
}

type UpdateExpenseRequest struct {
	ExternalID string  `json:"external_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Merchant   string  `json:"merchant"`
	Currency   string  `json:"currency"`
}

// RegisterRoutes attaches the expense endpoints to the router. The owning
// user is taken from the X-User-Id header, set upstream by the gateway.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/expense/v1/getExpense", h.GetExpenses)
	router.POST("/expense/v1/addExpense", h.AddExpense)
	router.PUT("/expense/v1/updateExpense", h.UpdateExpense)
}

func (h *Handler) GetExpenses(c *gin.Context) {
	userID := c.Query("user_id")

	list, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			middleware.RespondWithError(c, http.StatusBadRequest, "user_id is required")
			return
		}
		middleware.RespondWithError(c, http.StatusNotFound, "Failed to fetch expenses")
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddExpense(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		middleware.RespondWithError(c, http.StatusBadRequest, "X-User-Id header required")
		return
	}

	var req AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	e := &models.Expense{
		ExternalID: req.ExternalID,
		UserID:     userID,
		Amount:     req.Amount,
		Merchant:   req.Merchant,
		Currency:   req.Currency,
	}
	if err := h.svc.Create(c.Request.Context(), e); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Failed to create expense")
		return
	}

	c.JSON(http.StatusOK, true)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		middleware.RespondWithError(c, http.StatusBadRequest, "X-User-Id header required")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	e, err := h.svc.Update(c.Request.Context(), UpdateRequest{
		UserID:     userID,
		ExternalID: req.ExternalID,
		Amount:     req.Amount,
		Merchant:   req.Merchant,
		Currency:   req.Currency,
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Expense not found")
			return
		}
		middleware.RespondWithError(c, http.StatusBadRequest, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, e)
}
