package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
)

// ClaimRequestBody represents the request body for claiming a pending request
type ClaimRequestBody struct {
	RequestID uint   `json:"request_id"`
	Action    string `json:"action"`
}

// AssignEmployeeBody represents the request body for delegating a claimed
// request to one of the admin's mechanics
type AssignEmployeeBody struct {
	RequestID  uint `json:"request_id"`
	MechanicID uint `json:"mechanic_id"`
}

// ListAdminServiceRequests handles GET /api/v1/admin/service-requests -
// lists the admin's claim pool: requests claimed by their shop plus all
// pending requests. The response includes the shop's active employees for
// the assignment dropdown.
func ListAdminServiceRequests(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, limit, skip := parsePagination(c)
	status := c.Query("status")

	db := config.GetDB()
	query := db.Model(&models.ServiceRequest{}).
		Where("admin_id = ? OR status = ?", adminID, models.StatusPending)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var requests []models.ServiceRequest
	if err := query.
		Preload("User").
		Preload("Admin").
		Preload("Mechanic").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	valid := make([]models.ServiceRequest, 0, len(requests))
	for _, r := range requests {
		if r.User != nil {
			valid = append(valid, r)
		}
	}

	var employees []models.User
	if err := db.
		Where("role = ? AND shop_id = ? AND is_active = ?", models.RoleMechanic, adminID, true).
		Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":   valid,
		"employees":  employees,
		"pagination": newPagination(page, limit, total),
	})
}

// ClaimServiceRequest handles POST /api/v1/admin/service-requests - an
// admin claims a pending request for their shop. The pending pool is a
// shared resource: the status predicate in the UPDATE makes the first
// successful claim win and every later claim fail its guard.
func ClaimServiceRequest(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body ClaimRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if body.RequestID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request ID is required"})
		return
	}

	if body.Action != "claim" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	db := config.GetDB()

	var request models.ServiceRequest
	if err := db.First(&request, body.RequestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
		return
	}

	now := time.Now()
	res := db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", body.RequestID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":            models.StatusAdminReview,
			"admin_id":          adminID,
			"timeline_assigned": now,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		guardFailure(c, db, body.RequestID, "Can only claim pending requests")
		return
	}

	respondWithRequest(c, body.RequestID, "Service request claimed successfully")
}

// AssignToEmployee handles PUT /api/v1/admin/service-requests - the
// claiming admin delegates a request to one of their own mechanics.
// Mechanics outside the admin's shop are reported as not found rather
// than forbidden, so other shops' staff lists never leak.
func AssignToEmployee(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body AssignEmployeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if body.RequestID == 0 || body.MechanicID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request ID and mechanic ID are required"})
		return
	}

	db := config.GetDB()

	var request models.ServiceRequest
	if err := db.First(&request, body.RequestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
		return
	}

	// Only the claiming admin may delegate
	if request.AdminID == nil || *request.AdminID != adminID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to assign this request"})
		return
	}

	// The mechanic must be an active employee of this admin's shop
	var mechanic models.User
	err = db.Where("id = ? AND role = ? AND shop_id = ? AND is_active = ?",
		body.MechanicID, models.RoleMechanic, adminID, true).
		First(&mechanic).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Mechanic not found or not authorized"})
		return
	}

	updates := map[string]interface{}{
		"status":      models.StatusAssigned,
		"mechanic_id": body.MechanicID,
	}
	// The assigned timestamp was already stamped at claim time; it is
	// only set here when the claim somehow skipped it.
	if request.Timeline.Assigned == nil {
		updates["timeline_assigned"] = time.Now()
	}

	res := db.Model(&models.ServiceRequest{}).
		Where("id = ? AND admin_id = ? AND status IN ?",
			body.RequestID, adminID, []string{models.StatusAdminReview, models.StatusAssigned}).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		var current models.ServiceRequest
		if err := db.First(&current, body.RequestID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Can only assign claimed requests. Current status: %s", current.Status),
		})
		return
	}

	respondWithRequest(c, body.RequestID, "Service request assigned to employee successfully")
}
