package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockExpenser struct {
	createFn func(ctx context.Context, e *models.Expense) error
	listFn   func(ctx context.Context, userID string) ([]models.Expense, error)
	updateFn func(ctx context.Context, req UpdateRequest) (*models.Expense, error)
}

func (m *mockExpenser) Create(ctx context.Context, e *models.Expense) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return fmt.Errorf("not configured")
}

func (m *mockExpenser) List(ctx context.Context, userID string) ([]models.Expense, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockExpenser) Update(ctx context.Context, req UpdateRequest) (*models.Expense, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newExpenseTestRouter(svc Expenser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func expenseDoRequest(router *gin.Engine, method, url, userID string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestAddExpenseEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		body           interface{}
		createFn       func(ctx context.Context, e *models.Expense) error
		expectedStatus int
	}{
		{
			name:   "success - creates expense for header user",
			userID: "usr-001",
			body:   map[string]interface{}{"amount": 120.5, "merchant": "Cafe"},
			createFn: func(_ context.Context, e *models.Expense) error {
				if e.UserID != "usr-001" || e.Amount != 120.5 {
					return fmt.Errorf("unexpected expense: %+v", e)
				}
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing X-User-Id header",
			userID:         "",
			body:           map[string]interface{}{"amount": 10},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing amount",
			userID:         "usr-001",
			body:           map[string]interface{}{"merchant": "Cafe"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "service failure",
			userID: "usr-001",
			body:   map[string]interface{}{"amount": 10},
			createFn: func(_ context.Context, _ *models.Expense) error {
				return fmt.Errorf("store down: %w", errs.ErrTransient)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newExpenseTestRouter(&mockExpenser{createFn: tt.createFn})
			w := expenseDoRequest(router, http.MethodPost, "/expense/v1/addExpense", tt.userID, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddExpenseReturnsTrue(t *testing.T) {
	router := newExpenseTestRouter(&mockExpenser{
		createFn: func(_ context.Context, _ *models.Expense) error { return nil },
	})
	w := expenseDoRequest(router, http.MethodPost, "/expense/v1/addExpense", "usr-001",
		map[string]interface{}{"amount": 1.0})

	if strings.TrimSpace(w.Body.String()) != "true" {
		t.Errorf("expected boolean true body, got %q", w.Body.String())
	}
}

func TestGetExpensesEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		listFn         func(ctx context.Context, userID string) ([]models.Expense, error)
		expectedStatus int
	}{
		{
			name: "success - returns list",
			url:  "/expense/v1/getExpense?user_id=usr-001",
			listFn: func(_ context.Context, userID string) ([]models.Expense, error) {
				return []models.Expense{{ExternalID: "ext-1", UserID: userID, Amount: 10, Currency: "INR"}}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing user_id",
			url:  "/expense/v1/getExpense",
			listFn: func(_ context.Context, _ string) ([]models.Expense, error) {
				return nil, fmt.Errorf("user_id is required: %w", errs.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			url:  "/expense/v1/getExpense?user_id=usr-001",
			listFn: func(_ context.Context, _ string) ([]models.Expense, error) {
				return nil, fmt.Errorf("store down: %w", errs.ErrTransient)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newExpenseTestRouter(&mockExpenser{listFn: tt.listFn})
			w := expenseDoRequest(router, http.MethodGet, tt.url, "", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateExpenseEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		body           interface{}
		updateFn       func(ctx context.Context, req UpdateRequest) (*models.Expense, error)
		expectedStatus int
	}{
		{
			name:   "success",
			userID: "usr-001",
			body:   map[string]interface{}{"external_id": "ext-1", "amount": 25.0},
			updateFn: func(_ context.Context, req UpdateRequest) (*models.Expense, error) {
				return &models.Expense{ExternalID: req.ExternalID, UserID: req.UserID, Amount: req.Amount, Currency: "INR"}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing external_id",
			userID:         "usr-001",
			body:           map[string]interface{}{"amount": 25.0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "not found",
			userID: "usr-001",
			body:   map[string]interface{}{"external_id": "ghost", "amount": 25.0},
			updateFn: func(_ context.Context, _ UpdateRequest) (*models.Expense, error) {
				return nil, fmt.Errorf("expense: %w", errs.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newExpenseTestRouter(&mockExpenser{updateFn: tt.updateFn})
			w := expenseDoRequest(router, http.MethodPut, "/expense/v1/updateExpense", tt.userID, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
