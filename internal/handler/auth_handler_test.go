package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stutxi/paytm/internal/cqrs"
)

// ---- mock implementations ----

type mockAuthQuerier struct {
	loginFn   func(cqrs.LoginCommand) (string, error)
	refreshFn func(cqrs.RefreshTokenCommand) (string, error)
}

func (m *mockAuthQuerier) Login(cmd cqrs.LoginCommand) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}
func (m *mockAuthQuerier) RefreshToken(cmd cqrs.RefreshTokenCommand) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

// ---- helpers ----

func newAuthTestRouter(qrys AuthQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(qrys)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.RefreshToken)
	return r
}

// ---- tests ----

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		loginFn        func(cqrs.LoginCommand) (string, error)
		expectedStatus int
	}{
		{
			name: "success - valid credentials",
			body: map[string]interface{}{"email": "ravi@example.com", "password": "secret123"},
			loginFn: func(cmd cqrs.LoginCommand) (string, error) {
				return "signed-token", nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing password",
			body:           map[string]interface{}{"email": "ravi@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed email",
			body:           map[string]interface{}{"email": "not-an-email", "password": "secret123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unauthorized - wrong password",
			body: map[string]interface{}{"email": "ravi@example.com", "password": "wrong"},
			loginFn: func(cmd cqrs.LoginCommand) (string, error) {
				return "", fmt.Errorf("invalid credentials")
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{loginFn: tt.loginFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginReturnsToken(t *testing.T) {
	qrys := &mockAuthQuerier{
		loginFn: func(cmd cqrs.LoginCommand) (string, error) {
			return "signed-token", nil
		},
	}
	router := newAuthTestRouter(qrys)
	w := doRequest(router, http.MethodPost, "/v1/auth/login", map[string]interface{}{
		"email": "ravi@example.com", "password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Errorf("expected token in response, got %q", resp.Token)
	}
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		refreshFn      func(cqrs.RefreshTokenCommand) (string, error)
		expectedStatus int
	}{
		{
			name: "success - valid token",
			body: map[string]interface{}{"token": "old-token"},
			refreshFn: func(cmd cqrs.RefreshTokenCommand) (string, error) {
				return "new-token", nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unauthorized - expired token",
			body: map[string]interface{}{"token": "expired-token"},
			refreshFn: func(cmd cqrs.RefreshTokenCommand) (string, error) {
				return "", fmt.Errorf("token expired")
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{refreshFn: tt.refreshFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/refresh", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
