package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
	"gorm.io/gorm"
)

// CreateServiceRequestBody represents the request body for creating a service request
type CreateServiceRequestBody struct {
	Service  models.ServiceDetail `json:"service"`
	Vehicle  models.Vehicle       `json:"vehicle"`
	Location models.Location      `json:"location"`
	Notes    string               `json:"notes"`
}

// UpdateServiceRequestBody represents the request body for the mechanic
// status-update endpoint
type UpdateServiceRequestBody struct {
	Status            string  `json:"status"`
	Notes             string  `json:"notes"`
	AdditionalCharges float64 `json:"additional_charges"`
}

// ServiceRequestActionBody represents the request body for the mechanic
// action endpoint
type ServiceRequestActionBody struct {
	Action            string  `json:"action"`
	AdditionalCharges float64 `json:"additional_charges"`
}

// ListServiceRequests handles GET /api/v1/service-requests - lists requests
// visible to the caller, filtered by role:
//   - user: only their own requests
//   - mechanic: requests assigned to them, plus the pending pool
//   - admin: requests claimed by their shop, plus the pending pool
func ListServiceRequests(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	role, err := middleware.GetUserRole(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, limit, skip := parsePagination(c)
	status := c.Query("status")

	db := config.GetDB()
	query := db.Model(&models.ServiceRequest{})

	switch role {
	case models.RoleUser:
		query = query.Where("user_id = ?", userID)
	case models.RoleMechanic:
		query = query.Where("mechanic_id = ? OR status = ?", userID, models.StatusPending)
	case models.RoleAdmin:
		query = query.Where("admin_id = ? OR status = ?", userID, models.StatusPending)
	}

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
		Preload("Mechanic").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Requests whose customer account no longer resolves are dropped from
	// the listing rather than surfaced as errors.
	valid := make([]models.ServiceRequest, 0, len(requests))
	for _, r := range requests {
		if r.User != nil {
			valid = append(valid, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":   valid,
		"pagination": newPagination(page, limit, total),
	})
}

// CreateServiceRequest handles POST /api/v1/service-requests - creates a new
// request (customers only). Pricing is computed from the base-fee table.
func CreateServiceRequest(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body CreateServiceRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if body.Service.Type == "" || body.Service.Description == "" ||
		body.Vehicle.Make == "" || body.Vehicle.Model == "" || body.Location.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Service type, description, vehicle, and location are required"})
		return
	}

	if !models.ValidServiceType(body.Service.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service type"})
		return
	}

	if body.Service.Urgency == "" {
		body.Service.Urgency = models.UrgencyMedium
	}
	if !models.ValidUrgency(body.Service.Urgency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid urgency level"})
		return
	}

	request := models.ServiceRequest{
		UserID:   userID,
		Service:  body.Service,
		Vehicle:  body.Vehicle,
		Location: body.Location,
		Notes:    body.Notes,
		Status:   models.StatusPending,
		Pricing:  models.ComputePricing(body.Service.Type),
	}

	db := config.GetDB()
	if err := db.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.Preload("User").First(&request, request.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Service request created successfully",
		"request": request,
	})
}

// UpdateServiceRequest handles PUT /api/v1/service-requests/:id - mechanic
// status update. Status changes go through the same guarded transitions as
// the action endpoint; notes may be updated on their own.
func UpdateServiceRequest(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	request, ok := fetchRequestByParam(c)
	if !ok {
		return
	}

	var body UpdateServiceRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if request.MechanicID == nil || *request.MechanicID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this request"})
		return
	}

	db := config.GetDB()

	switch body.Status {
	case "":
		// Notes-only update
		if body.Notes != "" {
			if err := db.Model(&models.ServiceRequest{}).
				Where("id = ?", request.ID).
				Update("notes", body.Notes).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}
	case models.StatusInProgress:
		if !startTransition(c, db, request, userID, body.Notes) {
			return
		}
	case models.StatusCompleted:
		if !completeTransition(c, db, request, userID, body.AdditionalCharges, body.Notes) {
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
		return
	}

	respondWithRequest(c, request.ID, "Service request updated successfully")
}

// HandleServiceRequestAction handles PATCH /api/v1/service-requests/:id -
// mechanic lifecycle actions: accept, start, complete (and assign, the
// legacy alias for accept).
func HandleServiceRequestAction(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	request, ok := fetchRequestByParam(c)
	if !ok {
		return
	}

	var body ServiceRequestActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	db := config.GetDB()

	switch body.Action {
	case "accept", "assign":
		if !acceptTransition(c, db, request, userID) {
			return
		}
	case "start":
		if !startTransition(c, db, request, userID, "") {
			return
		}
	case "complete":
		if !completeTransition(c, db, request, userID, body.AdditionalCharges, "") {
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	respondWithRequest(c, request.ID, fmt.Sprintf("Service request %s successful", body.Action))
}

// acceptTransition moves a pending request directly to assigned with the
// calling mechanic as owner. The status predicate in the WHERE clause makes
// the transition a compare-and-swap: two racing mechanics cannot both win.
func acceptTransition(c *gin.Context, db *gorm.DB, request *models.ServiceRequest, mechanicID uint) bool {
	now := time.Now()
	res := db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", request.ID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":            models.StatusAssigned,
			"mechanic_id":       mechanicID,
			"timeline_assigned": now,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	if res.RowsAffected == 0 {
		guardFailure(c, db, request.ID, "Can only accept pending requests")
		return false
	}
	return true
}

// startTransition moves an assigned request to in-progress. Only the
// assigned mechanic passes the predicate.
func startTransition(c *gin.Context, db *gorm.DB, request *models.ServiceRequest, mechanicID uint, notes string) bool {
	now := time.Now()
	updates := map[string]interface{}{
		"status":           models.StatusInProgress,
		"timeline_started": now,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	res := db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND mechanic_id = ?", request.ID, models.StatusAssigned, mechanicID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	if res.RowsAffected == 0 {
		guardFailure(c, db, request.ID, "Can only start assigned requests")
		return false
	}
	return true
}

// completeTransition moves an in-progress request to completed. When
// additional charges are supplied, the total is recomputed so that it
// stays the sum of its parts.
func completeTransition(c *gin.Context, db *gorm.DB, request *models.ServiceRequest, mechanicID uint, additionalCharges float64, notes string) bool {
	now := time.Now()
	updates := map[string]interface{}{
		"status":             models.StatusCompleted,
		"timeline_completed": now,
	}
	if additionalCharges > 0 {
		updates["pricing_additional_charges"] = additionalCharges
		updates["pricing_total"] = request.Pricing.BaseFee + request.Pricing.ServiceFee + additionalCharges
	}
	if notes != "" {
		updates["notes"] = notes
	}
	res := db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND mechanic_id = ?", request.ID, models.StatusInProgress, mechanicID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	if res.RowsAffected == 0 {
		guardFailure(c, db, request.ID, "Can only complete in-progress requests")
		return false
	}

	// Completed work counts toward the mechanic's track record
	db.Model(&models.User{}).
		Where("id = ?", mechanicID).
		UpdateColumn("profile_completed_jobs", gorm.Expr("profile_completed_jobs + 1"))

	return true
}

// guardFailure reports a failed transition guard, naming the request's
// actual status so the caller can render a precise message
func guardFailure(c *gin.Context, db *gorm.DB, id uint, prefix string) {
	var current models.ServiceRequest
	if err := db.First(&current, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error": fmt.Sprintf("%s. Current status: %s", prefix, current.Status),
	})
}

// fetchRequestByParam loads the service request named by the :id URL
// parameter, writing the error response itself when it cannot
func fetchRequestByParam(c *gin.Context) (*models.ServiceRequest, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request ID is required"})
		return nil, false
	}

	var request models.ServiceRequest
	if err := config.GetDB().First(&request, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
		return nil, false
	}
	return &request, true
}

// respondWithRequest returns the request in its current state with the
// customer and mechanic relationships loaded
func respondWithRequest(c *gin.Context, id uint, message string) {
	var request models.ServiceRequest
	if err := config.GetDB().
		Preload("User").
		Preload("Admin").
		Preload("Mechanic").
		First(&request, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"request": request,
	})
}
