package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/api/handler"
	"pharmadms/internal/dto"
	"pharmadms/internal/service"
	"pharmadms/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testSecret = "router-test-secret-0123456789"
	testRepID  = "11111111-1111-1111-1111-111111111111"
)

type stubVisitPlanService struct {
	listCalls int
}

func (s *stubVisitPlanService) Generate(context.Context, *dto.GenerateVisitPlanRequest, string) (*dto.GenerateVisitPlanResponse, error) {
	return &dto.GenerateVisitPlanResponse{}, nil
}
func (s *stubVisitPlanService) Preview(context.Context, *dto.PreviewVisitPlanRequest) (*dto.PreviewVisitPlanResponse, error) {
	return &dto.PreviewVisitPlanResponse{}, nil
}
func (s *stubVisitPlanService) List(context.Context, *dto.VisitPlanListRequest) ([]dto.VisitPlanResponse, int64, error) {
	s.listCalls++
	return []dto.VisitPlanResponse{}, 0, nil
}
func (s *stubVisitPlanService) ListAssignedCustomers(context.Context, string) ([]dto.CustomerSummary, error) {
	return []dto.CustomerSummary{}, nil
}

func setupEngine(t *testing.T) (*gin.Engine, *stubVisitPlanService) {
	t.Helper()
	cfg := &config.Config{
		Auth:      config.AuthConfig{JWTSecret: testSecret, Issuer: "pharma-dms"},
		Import:    config.ImportConfig{MaxRows: 100, MaxFileSize: 1 << 20, MaxRangeDays: 366},
		RateLimit: config.RateLimitConfig{Requests: 30, Window: time.Minute},
	}
	stub := &stubVisitPlanService{}
	h := handler.NewHandler(cfg, &service.Service{VisitPlan: stub})

	r, err := Setup(cfg, h, jwt.NewVerifier(&cfg.Auth), nil, zap.NewNop())
	require.NoError(t, err)
	return r, stub
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	now := time.Now()
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwt.Claims{
		UserID:    "user-1",
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    "pharma-dms",
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestHealth(t *testing.T) {
	r, _ := setupEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "pharmadms_http_requests_total"))
}

func TestVisitPlanRoutes_Auth(t *testing.T) {
	tests := []struct {
		name       string
		auth       string
		wantStatus int
		wantCalls  int
	}{
		{"未携带 Token", "", http.StatusUnauthorized, 0},
		{"代表角色无权限", "representative", http.StatusForbidden, 0},
		{"主管可访问", "manager", http.StatusOK, 1},
		{"管理员可访问", "admin", http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, stub := setupEngine(t)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/v1/visit-plans?representative_id="+testRepID, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", bearer(t, tt.auth))
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, stub.listCalls)
		})
	}
}

func TestCustomValidatorsRegistered(t *testing.T) {
	r, _ := setupEngine(t)

	body := `{"frequency":"F3","days_of_week":[2],"start_date":"2024-11-01","end_date":"2024-11-10"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/visit-plans/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "admin"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "frequency_code")
}
