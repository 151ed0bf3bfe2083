package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chitchat/internal/services"
	chitchat_errors "chitchat/pkg/errors"
	"chitchat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newEngine(auth *services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestIDMiddleware(), ErrorHandler(logger.NewNop()))
	engine.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		id, _ := services.UserIDFromContext(c.Request.Context())
		c.String(http.StatusOK, id.String())
	})
	engine.GET("/missing", func(c *gin.Context) {
		_ = c.Error(chitchat_errors.ErrNotFound)
	})
	engine.GET("/boom", func(c *gin.Context) {
		_ = c.Error(http.ErrAbortHandler)
	})
	return engine
}

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("secret", time.Hour)
	engine := newEngine(auth)
	id := uuid.New()
	token, _, err := auth.IssueAccessToken(id)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != id.String() {
				t.Fatalf("body = %q, want user id", rec.Body.String())
			}
		})
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	engine := newEngine(services.NewAuthService("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id = %q, want abc", got)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if got := rec.Header().Get(RequestIDHeader); len(got) != 32 {
		t.Fatalf("generated request id = %q, want 32 hex chars", got)
	}
}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	engine := newEngine(services.NewAuthService("secret", time.Hour))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body["code"] != "NOT_FOUND" || body["success"] != false {
		t.Fatalf("body = %v", body)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
