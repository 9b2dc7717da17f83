package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
)

// RegisterAdminRoutes registers administration routes
func RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard/stats", getDashboardStats)
	RegisterAdminPayoutRoutes(router.Group("/payouts"))
	RegisterAdminDisputeRoutes(router.Group("/disputes"))
}

// getDashboardStats returns aggregate counts for the operations dashboard
func getDashboardStats(c *gin.Context) {
	var (
		totalUsers       int64
		totalMechanics   int64
		activeBookings   int64
		openDisputes     int64
		pendingPayouts   int64
		completedToday   int64
		successPayments  int64
		collectedAmount  struct{ Total int64 }
	)

	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.MechanicProfile{}).Count(&totalMechanics)
	database.DB.Model(&models.Booking{}).
		Where("status NOT IN ?", []models.BookingStatus{
			models.BookingStatusCompleted,
			models.BookingStatusCancelled,
		}).Count(&activeBookings)
	database.DB.Model(&models.Dispute{}).
		Where("status = ?", models.DisputeStatusOpen).Count(&openDisputes)
	database.DB.Model(&models.Payout{}).
		Where("status IN ?", []models.PayoutStatus{
			models.PayoutStatusRequested,
			models.PayoutStatusProcessing,
		}).Count(&pendingPayouts)
	database.DB.Model(&models.Booking{}).
		Where("status = ? AND completed_at >= CURRENT_DATE", models.BookingStatusCompleted).
		Count(&completedToday)
	database.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSuccess).Count(&successPayments)
	database.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0) AS total").Scan(&collectedAmount)

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard stats retrieved successfully",
		"data": gin.H{
			"total_users":       totalUsers,
			"total_mechanics":   totalMechanics,
			"active_bookings":   activeBookings,
			"open_disputes":     openDisputes,
			"pending_payouts":   pendingPayouts,
			"completed_today":   completedToday,
			"success_payments":  successPayments,
			"collected_amount":  collectedAmount.Total,
		},
	})
}
