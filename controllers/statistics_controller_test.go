package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roadassist/roadassist-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmployeeStatistics(t *testing.T) {
	db := setupTestDB(t)

	customer := createTestUser(t, db, "customer@example.com", models.RoleUser)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	otherAdmin := createTestUser(t, db, "other@example.com", models.RoleAdmin)
	mechanic := createTestMechanic(t, db, "mech@example.com", admin.ID)
	foreign := createTestMechanic(t, db, "foreign@example.com", otherAdmin.ID)

	now := time.Now()
	lastYear := now.AddDate(-1, 0, 0)

	// One job completed today, one completed a year ago
	recent := createTestRequest(t, db, customer.ID, models.StatusCompleted)
	db.Model(recent).Updates(map[string]interface{}{
		"mechanic_id":        mechanic.ID,
		"timeline_completed": now,
	})
	old := createTestRequest(t, db, customer.ID, models.StatusCompleted)
	db.Model(old).Updates(map[string]interface{}{
		"mechanic_id":        mechanic.ID,
		"timeline_completed": lastYear,
	})

	// In-progress work must not count
	open := createTestRequest(t, db, customer.ID, models.StatusInProgress)
	db.Model(open).Update("mechanic_id", mechanic.ID)

	doGet := func(t *testing.T, adminID uint, query string) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.GET("/admin/employees/statistics",
			mockAuthMiddleware(adminID, models.RoleAdmin),
			GetEmployeeStatistics,
		)

		req, _ := http.NewRequest(http.MethodGet, "/admin/employees/statistics"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Fail without employee ID", func(t *testing.T) {
		w := doGet(t, admin.ID, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Another shop's mechanic reads as not found", func(t *testing.T) {
		w := doGet(t, admin.ID, fmt.Sprintf("?employeeId=%d", foreign.ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Counts and revenue are scoped per period", func(t *testing.T) {
		w := doGet(t, admin.ID, fmt.Sprintf("?employeeId=%d", mechanic.ID))
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		employee := response["employee"].(map[string]interface{})
		assert.Equal(t, float64(mechanic.ID), employee["id"])

		stats := response["statistics"].(map[string]interface{})
		assert.Equal(t, float64(2), stats["total_completed_jobs"])
		assert.Equal(t, float64(1), stats["monthly_completed_jobs"])
		assert.Equal(t, float64(1), stats["weekly_completed_jobs"])
		// battery pricing: 50 per job
		assert.Equal(t, float64(100), stats["total_revenue"])
		assert.Equal(t, float64(50), stats["monthly_revenue"])

		recentJobs := response["recent_jobs"].([]interface{})
		assert.Equal(t, 2, len(recentJobs))
		// Most recent completion first
		first := recentJobs[0].(map[string]interface{})
		assert.Equal(t, float64(recent.ID), first["id"])
	})
}
