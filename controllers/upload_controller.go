package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
	"github.com/roadassist/roadassist-api/services"
	"github.com/roadassist/roadassist-api/utils"
	"gorm.io/datatypes"
)

// UploadRequestImage handles POST /api/v1/service-requests/:id/images -
// attaches a photo to the caller's own service request. The file is stored
// in S3 and its key appended to the request's image list.
func UploadRequestImage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	request, ok := fetchRequestByParam(c)
	if !ok {
		return
	}

	if request.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to add photos to this request"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image storage is not configured"})
		return
	}

	s3Key, err := imageService.UploadImage(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": uploadErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	var keys []string
	if len(request.Images) > 0 {
		if err := json.Unmarshal(request.Images, &keys); err != nil {
			keys = nil
		}
	}
	keys = append(keys, s3Key)
	encoded, err := json.Marshal(keys)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	db := config.GetDB()
	if err := db.Model(&models.ServiceRequest{}).
		Where("id = ?", request.ID).
		Update("images", datatypes.JSON(encoded)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	url, err := imageService.GetImageURL(s3Key)
	if err != nil {
		// The upload itself succeeded; the key is still returned
		url = ""
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Photo uploaded successfully",
		"image": gin.H{
			"key": s3Key,
			"url": url,
		},
	})
}
