package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roadassist/roadassist-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "me@example.com", models.RoleUser)

	t.Run("Returns the caller's account", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/user/profile", mockAuthMiddleware(user.ID, models.RoleUser), GetProfile)

		req, _ := http.NewRequest(http.MethodGet, "/user/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		data := response["user"].(map[string]interface{})
		assert.Equal(t, "me@example.com", data["email"])
		_, exposed := data["password"]
		assert.False(t, exposed, "Password hash must never be serialized")
	})

	t.Run("Unknown principal returns 404", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/user/profile", mockAuthMiddleware(99999, models.RoleUser), GetProfile)

		req, _ := http.NewRequest(http.MethodGet, "/user/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	mechanic := createTestMechanic(t, db, "mech@example.com", admin.ID)

	doUpdate := func(t *testing.T, userID uint, body map[string]interface{}) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.PUT("/user/profile", mockAuthMiddleware(userID, models.RoleMechanic), UpdateProfile)

		payload, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPut, "/user/profile", bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Updates name, phone, and profile fields", func(t *testing.T) {
		w := doUpdate(t, mechanic.ID, map[string]interface{}{
			"name":             "  Updated Name  ",
			"phone":            "555-0177",
			"specialties":      []string{"electrical"},
			"years_experience": 9,
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.User
		require.NoError(t, db.First(&updated, mechanic.ID).Error)
		assert.Equal(t, "Updated Name", updated.Name)
		assert.Equal(t, "555-0177", updated.Phone)
		assert.Equal(t, 9, updated.Profile.YearsExperience)
		assert.Equal(t, []string{"electrical"}, updated.Profile.SpecialtiesList())
	})

	t.Run("Email and role are not updatable", func(t *testing.T) {
		w := doUpdate(t, mechanic.ID, map[string]interface{}{
			"email": "hijack@example.com",
			"role":  "admin",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.User
		require.NoError(t, db.First(&updated, mechanic.ID).Error)
		assert.Equal(t, "mech@example.com", updated.Email)
		assert.Equal(t, models.RoleMechanic, updated.Role)
	})

	t.Run("Empty body is a no-op", func(t *testing.T) {
		w := doUpdate(t, mechanic.ID, map[string]interface{}{})
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.User
		require.NoError(t, db.First(&updated, mechanic.ID).Error)
		assert.Equal(t, "Updated Name", updated.Name)
	})
}
