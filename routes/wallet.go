package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RegisterWalletRoutes registers wallet routes
func RegisterWalletRoutes(router *gin.RouterGroup) {
	router.GET("/balance", getWalletBalance)
	router.GET("/transactions", getWalletTransactions)
}

// getWalletBalance returns the caller's wallet, creating it on first use
func getWalletBalance(c *gin.Context) {
	userID := c.GetUint("user_id")

	wallet, err := walletSvc.EnsureWallet(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wallet retrieved successfully",
		"data":    wallet,
	})
}

// getWalletTransactions returns the caller's ledger entries, newest first
func getWalletTransactions(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, limit := paginationParams(c)

	entries, total, err := walletSvc.Transactions(userID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data":    entries,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// paginationParams reads page/limit query parameters with sane bounds
func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
