package profile

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

type mockSynchronizer struct {
	upsertFn func(ctx context.Context, req UpsertRequest) (*models.Profile, error)
	getFn    func(ctx context.Context, userID string) (*models.Profile, error)
}

func (m *mockSynchronizer) Upsert(ctx context.Context, req UpsertRequest) (*models.Profile, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, req)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockSynchronizer) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newProfileTestRouter(svc Synchronizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func profileDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var testProfile = &models.Profile{
	UserID: "usr-001", FirstName: "Ann", LastName: "Lee",
	Email: "ann@example.com", PhoneNumber: "+911234567890",
}

// ---- tests ----

func TestUpsertEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		upsertFn       func(ctx context.Context, req UpsertRequest) (*models.Profile, error)
		expectedStatus int
	}{
		{
			name: "success - upserts profile",
			body: map[string]interface{}{"user_id": "usr-001", "first_name": "Ann"},
			upsertFn: func(_ context.Context, req UpsertRequest) (*models.Profile, error) {
				if req.UserID != "usr-001" || req.FirstName != "Ann" {
					return nil, fmt.Errorf("unexpected request: %+v", req)
				}
				return testProfile, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid body",
			body:           "not-json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email rejected",
			body: map[string]interface{}{"user_id": "usr-001", "email": "not-an-email"},
			upsertFn: func(_ context.Context, _ UpsertRequest) (*models.Profile, error) {
				return testProfile, nil
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service failure maps to 404",
			body: map[string]interface{}{"user_id": "usr-001"},
			upsertFn: func(_ context.Context, _ UpsertRequest) (*models.Profile, error) {
				return nil, fmt.Errorf("store down: %w", errs.ErrTransient)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProfileTestRouter(&mockSynchronizer{upsertFn: tt.upsertFn})
			w := profileDoRequest(router, http.MethodPost, "/user/v1/upsert", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		getFn          func(ctx context.Context, userID string) (*models.Profile, error)
		expectedStatus int
	}{
		{
			name: "success - returns profile",
			url:  "/users/v1/getUser?user_id=usr-001",
			getFn: func(_ context.Context, userID string) (*models.Profile, error) {
				if userID != "usr-001" {
					return nil, fmt.Errorf("unexpected id %s", userID)
				}
				return testProfile, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			url:  "/users/v1/getUser?user_id=usr-unknown",
			getFn: func(_ context.Context, _ string) (*models.Profile, error) {
				return nil, fmt.Errorf("user: %w", errs.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "missing user_id",
			url:  "/users/v1/getUser",
			getFn: func(_ context.Context, _ string) (*models.Profile, error) {
				return nil, fmt.Errorf("user_id is required: %w", errs.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProfileTestRouter(&mockSynchronizer{getFn: tt.getFn})
			w := profileDoRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserResponseBody(t *testing.T) {
	router := newProfileTestRouter(&mockSynchronizer{
		getFn: func(_ context.Context, _ string) (*models.Profile, error) { return testProfile, nil },
	})
	w := profileDoRequest(router, http.MethodGet, "/users/v1/getUser?user_id=usr-001", nil)

	var got models.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if got.UserID != "usr-001" || got.FirstName != "Ann" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
