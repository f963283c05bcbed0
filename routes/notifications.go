package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ehrm-server/database"
	"ehrm-server/models"
)

// RegisterNotificationRoutes registers in-app notification and push token routes
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	router.POST("/register-token", registerPushToken)
	router.GET("/has-token", hasPushToken)
	router.GET("/", getNotifications)
	router.GET("/unread-count", getUnreadCount)
	router.PUT("/:id/read", markNotificationRead)
	router.PUT("/mark-all-read", markAllNotificationsRead)
}

// registerPushToken stores or reactivates an Expo push token for the caller
func registerPushToken(c *gin.Context) {
	userID := c.GetUint("user_id")

	var request struct {
		PushToken string `json:"push_token" binding:"required"`
		Platform  string `json:"platform" binding:"required,oneof=ios android"`
		DeviceID  string `json:"device_id"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.PushToken
	err := database.DB.Where("token = ?", request.PushToken).First(&existing).Error

	switch {
	case err == gorm.ErrRecordNotFound:
		token := models.PushToken{
			UserID:   userID,
			Token:    request.PushToken,
			Platform: request.Platform,
			DeviceID: request.DeviceID,
			Active:   true,
		}
		if err := database.DB.Create(&token).Error; err != nil {
			log.Printf("❌ Error creating push token: %v", err)
			respondError(c, err)
			return
		}
		log.Printf("✅ Push token registered for user %d", userID)
	case err != nil:
		respondError(c, err)
		return
	default:
		// token exists, re-bind it to the current user and reactivate
		existing.UserID = userID
		existing.Platform = request.Platform
		existing.DeviceID = request.DeviceID
		existing.Active = true
		if err := database.DB.Save(&existing).Error; err != nil {
			respondError(c, err)
			return
		}
		log.Printf("🔄 Push token reactivated for user %d", userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Push token registered",
	})
}

// hasPushToken reports whether the caller has any active push token
func hasPushToken(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := database.DB.Model(&models.PushToken{}).
		Where("user_id = ? AND active = ?", userID, true).
		Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"has_token": count > 0,
	})
}

// getNotifications lists the caller's notifications, newest first
func getNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")
	offset, limit := paginationParams(c)

	query := database.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
	})
}

func getUnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}

func markNotificationRead(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}

func markAllNotificationsRead(c *gin.Context) {
	userID := c.GetUint("user_id")

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": result.RowsAffected,
	})
}
