package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/services"
)

// Shared service instances, wired once at startup before any route is
// registered.
var (
	walletSvc       *services.WalletService
	bookingSvc      *services.BookingService
	paymentSvc      *services.PaymentService
	payoutSvc       *services.PayoutService
	disputeSvc      *services.DisputeService
	notificationSvc *services.NotificationService
)

// Init wires the service layer into the routes package
func Init(
	wallets *services.WalletService,
	bookings *services.BookingService,
	payments *services.PaymentService,
	payouts *services.PayoutService,
	disputes *services.DisputeService,
	notifications *services.NotificationService,
) {
	walletSvc = wallets
	bookingSvc = bookings
	paymentSvc = payments
	payoutSvc = payouts
	disputeSvc = disputes
	notificationSvc = notifications
}

// respondServiceError maps service layer errors to HTTP responses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "The requested resource does not exist",
		})
	case errors.Is(err, services.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Insufficient funds",
			"message": "Wallet balance is too low for this operation",
		})
	case errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid amount",
			"message": "Amount must be a positive number of minor units",
		})
	case errors.Is(err, services.ErrNotYourBooking):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "You are not a party to this booking",
		})
	case errors.Is(err, services.ErrCancelCompleted):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Cannot cancel",
			"message": "Completed bookings cannot be cancelled",
		})
	case errors.Is(err, services.ErrNoMechanicFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "No mechanic found",
			"message": "No available mechanic in range, the booking stays in searching",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "The resource is in a state that does not allow this operation",
		})
	case services.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid transition",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"message": "Something went wrong, please try again",
		})
	}
}
