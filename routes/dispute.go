package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
)

// RegisterDisputeRoutes registers dispute routes for authenticated users
func RegisterDisputeRoutes(router *gin.RouterGroup) {
	router.POST("", raiseDispute)
	router.GET("/my", getMyDisputes)
}

// RegisterAdminDisputeRoutes registers dispute administration routes
func RegisterAdminDisputeRoutes(router *gin.RouterGroup) {
	router.GET("", getAllDisputes)
	router.POST("/:id/resolve", resolveDispute)
}

// raiseDispute freezes a booking and opens a dispute on it
func raiseDispute(c *gin.Context) {
	var req models.DisputeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	dispute, err := disputeSvc.Raise(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Dispute raised successfully",
		"data":    dispute,
	})
}

// getMyDisputes lists disputes the caller raised
func getMyDisputes(c *gin.Context) {
	userID := c.GetUint("user_id")

	var disputes []models.Dispute
	if err := database.DB.Where("raised_by_id = ?", userID).
		Order("created_at DESC").Find(&disputes).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Disputes retrieved successfully",
		"data":    disputes,
	})
}

// getAllDisputes lists disputes for review, optionally filtered by status
func getAllDisputes(c *gin.Context) {
	page, limit := paginationParams(c)

	query := database.DB.Model(&models.Dispute{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	var disputes []models.Dispute
	if err := query.Order("created_at ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&disputes).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Disputes retrieved successfully",
		"data":    disputes,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// resolveDispute settles an open dispute, optionally moving money
func resolveDispute(c *gin.Context) {
	disputeID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.DisputeResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	dispute, err := disputeSvc.Resolve(disputeID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dispute resolved successfully",
		"data":    dispute,
	})
}
