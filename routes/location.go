package routes

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/config"
	"mechanic-service-server/database"
	"mechanic-service-server/models"
	"mechanic-service-server/utils"
)

// RegisterLocationRoutes registers location tracking and search routes
func RegisterLocationRoutes(router *gin.RouterGroup) {
	router.POST("/update", updateLocation)
	router.GET("/nearby-mechanics", getNearbyMechanics)
}

// updateLocation stores a mechanic's current position and availability
func updateLocation(c *gin.Context) {
	var req models.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	if !utils.IsLocationValid(req.Latitude, req.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid coordinates",
			"message": "Latitude must be in [-90, 90] and longitude in [-180, 180]",
		})
		return
	}

	userID := c.GetUint("user_id")
	var profile models.MechanicProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Profile not found",
			"message": "No mechanic profile exists for this account",
		})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"current_lat":          req.Latitude,
		"current_lng":          req.Longitude,
		"last_location_update": now,
		"is_available":         req.IsAvailable,
	}
	if err := database.DB.Model(&profile).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Update failed",
			"message": "Failed to store location update",
		})
		return
	}

	log.Printf("📍 Mechanic %d location updated (available=%v)", profile.ID, req.IsAvailable)

	// Customers waiting on this mechanic get the fresh position.
	var active []models.Booking
	database.DB.Where("mechanic_id = ? AND status IN ?", profile.ID, []models.BookingStatus{
		models.BookingStatusAccepted,
		models.BookingStatusArrived,
		models.BookingStatusInProgress,
	}).Find(&active)
	for _, booking := range active {
		notificationSvc.Notify(booking.CustomerID, "location_update", "Mechanic location updated",
			"Your mechanic's position was updated", map[string]interface{}{
				"booking_id": booking.ID,
				"latitude":   req.Latitude,
				"longitude":  req.Longitude,
			})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Location updated successfully",
		"data": gin.H{
			"latitude":     req.Latitude,
			"longitude":    req.Longitude,
			"is_available": req.IsAvailable,
			"updated_at":   now,
		},
	})
}

// getNearbyMechanics returns available mechanics around a point, closest
// first. Radius defaults to the configured search radius and is capped.
func getNearbyMechanics(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing coordinates",
			"message": "lat and lng query parameters are required",
		})
		return
	}
	if !utils.IsLocationValid(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid coordinates",
			"message": "Latitude must be in [-90, 90] and longitude in [-180, 180]",
		})
		return
	}

	radius := config.AppConfig.Business.DefaultSearchRadiusKm
	if r, err := strconv.ParseFloat(c.Query("radius_km"), 64); err == nil && r > 0 {
		radius = r
	}
	if radius > config.AppConfig.Business.MaxSearchRadiusKm {
		radius = config.AppConfig.Business.MaxSearchRadiusKm
	}

	mechanics, err := utils.FindNearbyMechanics(database.DB, utils.Location{
		Latitude:  lat,
		Longitude: lng,
	}, radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Search failed",
			"message": "Failed to search for nearby mechanics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Nearby mechanics retrieved successfully",
		"data":      mechanics,
		"count":     len(mechanics),
		"radius_km": radius,
	})
}
