package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
	"gorm.io/gorm"
)

// GetEmployeeStatistics handles GET /api/v1/admin/employees/statistics -
// per-mechanic job counts and revenue sums, scoped to week, month, and
// all time. Read-only; computed with aggregate queries.
func GetEmployeeStatistics(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	employeeID, err := strconv.ParseUint(c.Query("employeeId"), 10, 64)
	if err != nil || employeeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Employee ID is required"})
		return
	}

	employee, ok := findShopEmployee(c, adminID, uint(employeeID))
	if !ok {
		return
	}

	db := config.GetDB()
	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfWeek := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -int(now.Weekday()))

	// Every aggregate below shares the same base filter
	base := func() *gorm.DB {
		return db.Model(&models.ServiceRequest{}).
			Where("mechanic_id = ? AND status = ?", employee.ID, models.StatusCompleted)
	}

	var totalCompletedJobs, monthlyCompletedJobs, weeklyCompletedJobs int64
	if err := base().Count(&totalCompletedJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := base().Where("timeline_completed >= ?", startOfMonth).Count(&monthlyCompletedJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := base().Where("timeline_completed >= ?", startOfWeek).Count(&weeklyCompletedJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var totalRevenue, monthlyRevenue float64
	if err := base().Select("COALESCE(SUM(pricing_total), 0)").Scan(&totalRevenue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := base().Where("timeline_completed >= ?", startOfMonth).
		Select("COALESCE(SUM(pricing_total), 0)").Scan(&monthlyRevenue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var recentJobs []models.ServiceRequest
	if err := db.
		Where("mechanic_id = ? AND status = ?", employee.ID, models.StatusCompleted).
		Preload("User").
		Order("timeline_completed DESC").
		Limit(5).
		Find(&recentJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employee": gin.H{
			"id":      employee.ID,
			"name":    employee.Name,
			"email":   employee.Email,
			"profile": employee.Profile,
		},
		"statistics": gin.H{
			"total_completed_jobs":   totalCompletedJobs,
			"monthly_completed_jobs": monthlyCompletedJobs,
			"weekly_completed_jobs":  weeklyCompletedJobs,
			"average_rating":         employee.Profile.Rating,
			"total_revenue":          totalRevenue,
			"monthly_revenue":        monthlyRevenue,
		},
		"recent_jobs": recentJobs,
	})
}
