package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mechanic-service-server/database"
	"mechanic-service-server/models"
	"mechanic-service-server/utils"
)

// RegisterBookingRoutes registers booking lifecycle routes
func RegisterBookingRoutes(router *gin.RouterGroup) {
	router.POST("", createBooking)
	router.GET("/my", getMyBookings)
	router.GET("/:id", getBooking)
	router.PATCH("/:id/status", updateBookingStatus)
	router.POST("/:id/cancel", cancelBooking)
	router.POST("/:id/pay", payForBooking)
	router.POST("/:id/rating", rateBooking)
}

// createBooking opens a booking and immediately tries to match a mechanic
func createBooking(c *gin.Context) {
	var req models.BookingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	customerID := c.GetUint("user_id")
	booking, err := bookingSvc.Create(customerID, req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCoordinates) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid coordinates",
				"message": "Pickup latitude/longitude are out of range",
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"data":    booking,
	})
}

// getMyBookings lists the caller's bookings, as customer or as mechanic
func getMyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")
	role := c.GetString("user_role")

	if role == string(models.RoleMechanic) {
		var profile models.MechanicProfile
		if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Profile not found",
				"message": "No mechanic profile exists for this account",
			})
			return
		}
		var bookings []models.Booking
		if err := database.DB.Where("mechanic_id = ?", profile.ID).
			Order("created_at DESC").Find(&bookings).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Bookings retrieved successfully",
			"data":    bookings,
		})
		return
	}

	bookings, err := bookingSvc.ListForCustomer(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Bookings retrieved successfully",
		"data":    bookings,
	})
}

// getBooking returns one booking the caller is a party to
func getBooking(c *gin.Context) {
	booking, ok := bookingForCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// updateBookingStatus moves a booking forward through its lifecycle. Only
// the assigned mechanic may drive accepted/arrived/in_progress/completed.
func updateBookingStatus(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.BookingStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")

	var (
		booking *models.Booking
		err     error
	)
	switch req.Status {
	case models.BookingStatusAccepted:
		booking, err = bookingSvc.Accept(bookingID, userID)
	case models.BookingStatusArrived:
		booking, err = bookingSvc.Arrive(bookingID, userID)
	case models.BookingStatusInProgress:
		booking, err = bookingSvc.Start(bookingID, userID)
	case models.BookingStatusCompleted:
		booking, err = bookingSvc.Complete(bookingID, userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unsupported status",
			"message": "Status must be one of accepted, arrived, in_progress, completed",
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking status updated successfully",
		"data":    booking,
	})
}

// cancelBooking cancels a booking the caller owns. Refunds follow the
// cancellation policy for the stage the booking was in.
func cancelBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	userID := c.GetUint("user_id")
	role := c.GetString("user_role")

	existing, err := bookingSvc.Get(bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if existing.CustomerID != userID && role != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only the booking's customer may cancel it",
		})
		return
	}

	booking, err := bookingSvc.Cancel(bookingID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"data":    booking,
	})
}

// payForBooking starts a payment attempt against the gateway
func payForBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	existing, err := bookingSvc.Get(bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if existing.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only the booking's customer may pay for it",
		})
		return
	}

	payment, err := paymentSvc.Initialize(bookingID, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment initialized successfully",
		"data":    payment,
	})
}

// rateBooking records a customer's rating for a completed booking and
// folds it into the mechanic's running average.
func rateBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.RatingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	booking, err := bookingSvc.Get(bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if booking.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only the booking's customer may rate it",
		})
		return
	}
	if booking.Status != models.BookingStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Booking not completed",
			"message": "Only completed bookings can be rated",
		})
		return
	}
	if booking.MechanicID == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "No mechanic",
			"message": "This booking has no assigned mechanic to rate",
		})
		return
	}

	rating := models.Rating{
		BookingID:  bookingID,
		MechanicID: *booking.MechanicID,
		CustomerID: userID,
		Score:      req.Score,
		Comment:    req.Comment,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rating).Error; err != nil {
			return err
		}
		// Recompute the running average from the new totals
		return tx.Model(&models.MechanicProfile{}).
			Where("id = ?", *booking.MechanicID).
			Updates(map[string]interface{}{
				"rating":        gorm.Expr("(rating * total_reviews + ?) / (total_reviews + 1)", req.Score),
				"total_reviews": gorm.Expr("total_reviews + 1"),
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Rating failed",
			"message": "This booking may already have been rated",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Rating submitted successfully",
		"data":    rating,
	})
}

// bookingForCaller loads a booking and verifies the caller is a party to it
func bookingForCaller(c *gin.Context) (*models.Booking, bool) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return nil, false
	}

	booking, err := bookingSvc.Get(bookingID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}

	userID := c.GetUint("user_id")
	role := c.GetString("user_role")
	if role == string(models.RoleAdmin) || booking.CustomerID == userID {
		return booking, true
	}
	if booking.MechanicID != nil {
		var profile models.MechanicProfile
		if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err == nil &&
			profile.ID == *booking.MechanicID {
			return booking, true
		}
	}

	c.JSON(http.StatusForbidden, gin.H{
		"error":   "Forbidden",
		"message": "You are not a party to this booking",
	})
	return nil, false
}

// parseIDParam reads the :id path parameter
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid ID",
			"message": "The id path parameter must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}
