package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers notification routes
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	router.GET("", getUserNotifications)
	router.POST("/:id/read", markNotificationRead)
}

// getUserNotifications lists the caller's notifications, newest first
func getUserNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, limit := paginationParams(c)

	notifications, total, err := notificationSvc.ListForUser(userID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifications retrieved successfully",
		"data":    notifications,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// markNotificationRead marks one of the caller's notifications as read
func markNotificationRead(c *gin.Context) {
	notificationID, ok := parseIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	if err := notificationSvc.MarkRead(userID, notificationID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}
