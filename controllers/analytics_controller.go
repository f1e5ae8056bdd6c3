package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/models"
)

// serviceTypeStat is one row of the requests-by-type breakdown
type serviceTypeStat struct {
	ServiceType string  `gorm:"column:service_type" json:"service_type"`
	Count       int64   `json:"count"`
	Revenue     float64 `json:"revenue"`
}

// GetAnalytics handles GET /api/v1/admin/analytics?period=week|month|year -
// aggregate dashboard numbers for shop owners
func GetAnalytics(c *gin.Context) {
	period := c.DefaultQuery("period", "month")

	now := time.Now()
	var startDate time.Time
	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "year":
		startDate = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		period = "month"
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}

	db := config.GetDB()

	var totalUsers, totalMechanics, totalRequests, activeRequests, completedRequests int64
	if err := db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleUser, true).
		Count(&totalUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleMechanic, true).
		Count(&totalMechanics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.Model(&models.ServiceRequest{}).Count(&totalRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.Model(&models.ServiceRequest{}).
		Where("status IN ?", []string{models.StatusPending, models.StatusAssigned, models.StatusInProgress}).
		Count(&activeRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.Model(&models.ServiceRequest{}).
		Where("status = ? AND timeline_completed >= ?", models.StatusCompleted, startDate).
		Count(&completedRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var totalRevenue, averagePrice float64
	if err := db.Model(&models.ServiceRequest{}).
		Where("status = ? AND timeline_completed >= ?", models.StatusCompleted, startDate).
		Select("COALESCE(SUM(pricing_total), 0)").Scan(&totalRevenue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.Model(&models.ServiceRequest{}).
		Where("status = ? AND timeline_completed >= ?", models.StatusCompleted, startDate).
		Select("COALESCE(AVG(pricing_total), 0)").Scan(&averagePrice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var byType []serviceTypeStat
	if err := db.Model(&models.ServiceRequest{}).
		Select("service_type, COUNT(*) AS count, COALESCE(SUM(pricing_total), 0) AS revenue").
		Group("service_type").
		Order("count DESC").
		Scan(&byType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var averageRating float64
	if err := db.Model(&models.ServiceRequest{}).
		Where("rating_score IS NOT NULL").
		Select("COALESCE(AVG(rating_score), 0)").
		Scan(&averageRating).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var recentRequests []models.ServiceRequest
	if err := db.
		Preload("User").
		Preload("Mechanic").
		Order("created_at DESC").
		Limit(10).
		Find(&recentRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"totals": gin.H{
			"users":              totalUsers,
			"mechanics":          totalMechanics,
			"requests":           totalRequests,
			"active_requests":    activeRequests,
			"completed_requests": completedRequests,
		},
		"revenue": gin.H{
			"total":         totalRevenue,
			"average_price": averagePrice,
		},
		"requests_by_type": byType,
		"average_rating":   averageRating,
		"recent_requests":  recentRequests,
	})
}
