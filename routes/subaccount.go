package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
)

// RegisterSubaccountRoutes registers settlement subaccount routes
func RegisterSubaccountRoutes(router *gin.RouterGroup) {
	router.POST("", createSubaccount)
	router.GET("/my", getMySubaccount)
}

// createSubaccount registers the caller's bank details with the gateway
// for split settlement. One subaccount per user.
func createSubaccount(c *gin.Context) {
	var req models.SubaccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	subaccount, err := paymentSvc.CreateSubaccount(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Subaccount created successfully",
		"data":    subaccount,
	})
}

// getMySubaccount returns the caller's subaccount if one exists
func getMySubaccount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var subaccount models.Subaccount
	if err := database.DB.Where("user_id = ?", userID).First(&subaccount).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "No subaccount exists for this account",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subaccount retrieved successfully",
		"data":    subaccount,
	})
}
