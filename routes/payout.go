package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/models"
)

// RegisterPayoutRoutes registers payout routes for authenticated users
func RegisterPayoutRoutes(router *gin.RouterGroup) {
	router.POST("", requestPayout)
	router.GET("", listPayouts)
}

// RegisterAdminPayoutRoutes registers payout administration routes
func RegisterAdminPayoutRoutes(router *gin.RouterGroup) {
	router.POST("/:id/result", markPayoutResult)
}

// requestPayout debits the caller's wallet and hands the transfer to the
// payment gateway.
func requestPayout(c *gin.Context) {
	var req models.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	payout, err := payoutSvc.Request(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payout requested successfully",
		"data":    payout,
	})
}

// listPayouts lists the caller's payouts, optionally filtered by status
func listPayouts(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, limit := paginationParams(c)
	status := models.PayoutStatus(c.Query("status"))

	payouts, total, err := payoutSvc.List(userID, status, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payouts retrieved successfully",
		"data":    payouts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// markPayoutResult finalizes a payout as paid or failed. Failed payouts
// refund the held amount back to the wallet. Safe to call twice.
func markPayoutResult(c *gin.Context) {
	payoutID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.PayoutResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	if err := payoutSvc.MarkResult(payoutID, req.Status, req.ProviderRef, req.FailureReason); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payout result recorded successfully",
	})
}
