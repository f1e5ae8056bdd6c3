package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
)

// UpdateProfileBody represents the request body for self-service profile updates
type UpdateProfileBody struct {
	Name            *string   `json:"name"`
	Phone           *string   `json:"phone"`
	Specialties     *[]string `json:"specialties"`
	YearsExperience *int      `json:"years_experience"`
}

// GetProfile handles GET /api/v1/user/profile - returns the caller's account
func GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var user models.User
	if err := config.GetDB().First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles PUT /api/v1/user/profile - self-service updates to
// name, phone, and the mechanic profile bag. Email, role, and shop linkage
// are not updatable here.
func UpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body UpdateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	db := config.GetDB()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := make(map[string]interface{})
	if body.Name != nil && *body.Name != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Phone != nil {
		updates["phone"] = strings.TrimSpace(*body.Phone)
	}
	if body.YearsExperience != nil {
		updates["profile_years_experience"] = *body.YearsExperience
	}
	if body.Specialties != nil {
		var p models.MechanicProfile
		if err := p.SetSpecialties(*body.Specialties); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		updates["profile_specialties"] = p.Specialties
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "Profile updated successfully",
			"user":    user,
		})
		return
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
