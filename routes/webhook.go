package routes

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mechanic-service-server/config"
	"mechanic-service-server/database"
	"mechanic-service-server/gateway"
	"mechanic-service-server/models"
)

// webhookEvent is the envelope the gateway posts to us. Only the event
// name and the reference are trusted; everything else is re-verified
// against the gateway before any state changes.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Reason    string `json:"reason"`
	} `json:"data"`
}

// RegisterWebhookRoutes registers the unauthenticated gateway webhook
// endpoint. Authenticity comes from the HMAC signature, not a session.
func RegisterWebhookRoutes(router *gin.RouterGroup) {
	router.POST("/payment", handlePaymentWebhook)
}

// handlePaymentWebhook processes charge and transfer events from the
// payment gateway.
func handlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid body",
			"message": "Failed to read webhook payload",
		})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Paystack-Signature")
	}
	if !gateway.VerifySignature(config.AppConfig.Gateway.WebhookSecret, body, signature) {
		log.Printf("🚫 Webhook signature mismatch from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid signature",
			"message": "Webhook signature verification failed",
		})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid payload",
			"message": "Webhook payload is not valid JSON",
		})
		return
	}
	if event.Data.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid payload",
			"message": "Webhook payload has no reference",
		})
		return
	}

	switch event.Event {
	case "charge.success", "charge.failed":
		// The webhook is only a hint; Confirm re-verifies the status with
		// the gateway before touching the payment row.
		payment, err := paymentSvc.Confirm(c.Request.Context(), event.Data.Reference)
		if err != nil {
			log.Printf("⚠️ Webhook confirm for %s failed: %v", event.Data.Reference, err)
			c.JSON(http.StatusOK, gin.H{"message": "Event received"})
			return
		}
		log.Printf("✅ Webhook confirmed payment %s as %s", payment.Reference, payment.Status)

	case "transfer.success", "transfer.failed", "transfer.reversed":
		var payout models.Payout
		if err := database.DB.Where("provider_ref = ?", event.Data.Reference).First(&payout).Error; err != nil {
			log.Printf("⚠️ Webhook transfer event for unknown reference %s", event.Data.Reference)
			c.JSON(http.StatusOK, gin.H{"message": "Event received"})
			return
		}
		status := models.PayoutStatusPaid
		if event.Event != "transfer.success" {
			status = models.PayoutStatusFailed
		}
		if err := payoutSvc.MarkResult(payout.ID, status, event.Data.Reference, event.Data.Reason); err != nil {
			log.Printf("⚠️ Webhook payout result for %s failed: %v", event.Data.Reference, err)
		}

	default:
		log.Printf("ℹ️ Ignoring webhook event %q", event.Event)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event received"})
}
