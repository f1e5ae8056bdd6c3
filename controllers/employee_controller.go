package controllers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
	"github.com/roadassist/roadassist-api/utils"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// CreateEmployeeBody represents the request body for adding a mechanic to a shop
type CreateEmployeeBody struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Password        string   `json:"password"`
	Specialties     []string `json:"specialties"`
	YearsExperience int      `json:"years_experience"`
}

// UpdateEmployeeBody represents the request body for updating a mechanic.
// Role, shop, and password are never updatable through this endpoint.
type UpdateEmployeeBody struct {
	EmployeeID      uint      `json:"employee_id"`
	Name            *string   `json:"name"`
	Phone           *string   `json:"phone"`
	Specialties     *[]string `json:"specialties"`
	YearsExperience *int      `json:"years_experience"`
	IsActive        *bool     `json:"is_active"`
}

// ListEmployees handles GET /api/v1/admin/employees - lists the active
// mechanics belonging to the calling admin's shop
func ListEmployees(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	db := config.GetDB()
	var employees []models.User
	if err := db.
		Where("role = ? AND shop_id = ? AND is_active = ?", models.RoleMechanic, adminID, true).
		Order("created_at DESC").
		Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":       employees,
		"total_employees": len(employees),
	})
}

// CreateEmployee handles POST /api/v1/admin/employees - adds a mechanic to
// the calling admin's shop. Role and shop ownership are forced server-side.
func CreateEmployee(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body CreateEmployeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if body.Name == "" || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email, and password are required"})
		return
	}

	if !emailPattern.MatchString(body.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	if len(body.Password) < utils.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	db := config.GetDB()
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	specialties := make([]string, 0, len(body.Specialties))
	for _, s := range body.Specialties {
		if strings.TrimSpace(s) != "" {
			specialties = append(specialties, strings.TrimSpace(s))
		}
	}

	employee := models.User{
		Name:     strings.TrimSpace(body.Name),
		Email:    email,
		Phone:    strings.TrimSpace(body.Phone),
		Password: hashed,
		Role:     models.RoleMechanic,
		ShopID:   &adminID,
		IsActive: true,
		Profile: models.MechanicProfile{
			YearsExperience: body.YearsExperience,
			Rating:          0,
			CompletedJobs:   0,
		},
	}
	if err := employee.Profile.SetSpecialties(specialties); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.Create(&employee).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Employee added successfully",
		"employee": employee,
	})
}

// UpdateEmployee handles PUT /api/v1/admin/employees - updates a mechanic
// after re-verifying that they belong to the calling admin's shop
func UpdateEmployee(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var body UpdateEmployeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if body.EmployeeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Employee ID is required"})
		return
	}

	db := config.GetDB()
	employee, ok := findShopEmployee(c, adminID, body.EmployeeID)
	if !ok {
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
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if body.Specialties != nil {
		var p models.MechanicProfile
		if err := p.SetSpecialties(*body.Specialties); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		updates["profile_specialties"] = p.Specialties
	}

	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", employee.ID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	var updated models.User
	if err := db.First(&updated, employee.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Employee updated successfully",
		"employee": updated,
	})
}

// DeleteEmployee handles DELETE /api/v1/admin/employees?employee_id= -
// soft-deactivates a mechanic. The row is never removed; past service
// requests keep referencing it.
func DeleteEmployee(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	employeeID, err := strconv.ParseUint(c.Query("employee_id"), 10, 64)
	if err != nil || employeeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Employee ID is required"})
		return
	}

	db := config.GetDB()
	employee, ok := findShopEmployee(c, adminID, uint(employeeID))
	if !ok {
		return
	}

	if err := db.Model(&models.User{}).Where("id = ?", employee.ID).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Employee deactivated successfully",
	})
}

// findShopEmployee loads a mechanic and verifies shop ownership. Employees
// of other shops are reported as not found, never as forbidden.
func findShopEmployee(c *gin.Context, adminID, employeeID uint) (*models.User, bool) {
	var employee models.User
	err := config.GetDB().
		Where("id = ? AND role = ? AND shop_id = ?", employeeID, models.RoleMechanic, adminID).
		First(&employee).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found or not authorized"})
		return nil, false
	}
	return &employee, true
}
