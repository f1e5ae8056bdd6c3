package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/models"
	"github.com/roadassist/roadassist-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAppTest(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ServiceRequest{}))
	config.SetDB(db)

	services.SetTokenService(services.NewTokenService("test-secret", "roadassist-test", time.Hour))
}

func TestHealthEndpoint(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
}

func TestDatabaseStatusEndpoint(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/database/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Database connected", response["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	t.Run("Client-provided ID is echoed", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("Missing ID is generated", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/user/profile"},
		{http.MethodGet, "/api/v1/service-requests"},
		{http.MethodPost, "/api/v1/service-requests"},
		{http.MethodGet, "/api/v1/admin/service-requests"},
		{http.MethodGet, "/api/v1/admin/employees"},
		{http.MethodGet, "/api/v1/admin/analytics"},
	}

	for _, r := range routes {
		req, _ := http.NewRequest(r.method, r.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should require auth", r.method, r.path)
	}
}

func TestRoleGatesOnRoutes(t *testing.T) {
	setupAppTest(t)
	router := setupRouter(nil)

	ts := services.GetTokenService()
	userToken, err := ts.Issue(1, models.RoleUser)
	require.NoError(t, err)
	mechToken, err := ts.Issue(2, models.RoleMechanic)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"Customer cannot reach admin surface", http.MethodGet, "/api/v1/admin/employees", userToken},
		{"Mechanic cannot reach admin surface", http.MethodGet, "/api/v1/admin/analytics", mechToken},
		{"Mechanic cannot create requests", http.MethodPost, "/api/v1/service-requests", mechToken},
		{"Customer cannot run request actions", http.MethodPatch, "/api/v1/service-requests/1", userToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}
