package controllers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/models"
	"github.com/roadassist/roadassist-api/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.ServiceRequest{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware injects an authenticated principal into the context,
// bypassing token parsing the way the real middleware would populate it
func mockAuthMiddleware(userID uint, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	hashed, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Email:    email,
		Password: hashed,
		Name:     "Test " + string(role),
		Role:     role,
		IsActive: true,
	}
	if role == models.RoleAdmin {
		user.ShopName = "Test Shop"
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestMechanic(t *testing.T, db *gorm.DB, email string, shopID uint) *models.User {
	hashed, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	mechanic := models.User{
		Email:    email,
		Password: hashed,
		Name:     "Test Mechanic",
		Role:     models.RoleMechanic,
		ShopID:   &shopID,
		IsActive: true,
	}
	if err := db.Create(&mechanic).Error; err != nil {
		t.Fatalf("Failed to create test mechanic: %v", err)
	}
	return &mechanic
}

func createTestRequest(t *testing.T, db *gorm.DB, userID uint, status string) *models.ServiceRequest {
	request := models.ServiceRequest{
		UserID: userID,
		Service: models.ServiceDetail{
			Type:        "battery",
			Description: "Car won't start",
			Urgency:     models.UrgencyHigh,
		},
		Vehicle: models.Vehicle{
			Make:  "Toyota",
			Model: "Corolla",
			Year:  2018,
		},
		Location: models.Location{
			Address: "123 Main St",
		},
		Status:  status,
		Pricing: models.ComputePricing("battery"),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("Failed to create test request: %v", err)
	}
	return &request
}
