package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mechanic-service-server/config"
	"mechanic-service-server/database"
	"mechanic-service-server/gateway"
	"mechanic-service-server/jobs"
	"mechanic-service-server/middleware"
	"mechanic-service-server/routes"
	"mechanic-service-server/services"
	ws "mechanic-service-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()
	cfg := config.AppConfig

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Set Gin mode
	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// WebSocket hub for realtime notification delivery
	hub := ws.NewHub()
	go hub.Run()

	// Payment gateway adapter
	gw := buildGateway(cfg.Gateway)
	gatewayTimeout := time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second

	// Service layer
	notifications := services.NewNotificationService(database.DB, hub)
	wallets := services.NewWalletService(database.DB)
	bookings := services.NewBookingService(database.DB, wallets, notifications)
	bookings.CommissionPct = cfg.Business.CommissionPct
	bookings.CancelInProgressCustPct = cfg.Business.CancelInProgressCustPct
	bookings.DefaultRadiusKm = cfg.Business.DefaultSearchRadiusKm
	payments := services.NewPaymentService(database.DB, gw, notifications, gatewayTimeout)
	payouts := services.NewPayoutService(database.DB, wallets, gw, notifications, gatewayTimeout)
	payouts.Async = true
	disputes := services.NewDisputeService(database.DB, bookings, wallets, notifications)

	routes.Init(wallets, bookings, payments, payouts, disputes, notifications)

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	router.Use(middleware.CORSMiddleware())

	// Audit logging
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Mechanic Service Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint for realtime notifications (token via query param)
	router.GET("/api/v1/ws", middleware.WebSocketAuthMiddleware(), func(c *gin.Context) {
		ws.ServeWebSocket(hub, c.Writer, c.Request, c.GetUint("user_id"))
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Gateway webhooks (no session auth, HMAC-signed)
		routes.RegisterWebhookRoutes(api.Group("/webhooks"))

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/auth/me", routes.GetCurrentUser)

			routes.RegisterBookingRoutes(protected.Group("/bookings"))
			routes.RegisterWalletRoutes(protected.Group("/wallet"))
			routes.RegisterPayoutRoutes(protected.Group("/payouts"))
			routes.RegisterLocationRoutes(protected.Group("/location"))
			routes.RegisterDisputeRoutes(protected.Group("/disputes"))
			routes.RegisterSubaccountRoutes(protected.Group("/subaccounts"))
			routes.RegisterNotificationRoutes(protected.Group("/notifications"))
		}

		// Admin routes (protected with admin authentication)
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		routes.RegisterAdminRoutes(adminRoutes)
	}

	// Start background jobs
	staleJob := jobs.NewStaleBookingJob(database.DB, bookings,
		time.Duration(cfg.Jobs.StaleBookingAgeMinutes)*time.Minute,
		time.Duration(cfg.Jobs.StaleBookingIntervalSeconds)*time.Second)
	staleJob.Start()
	defer staleJob.Stop()

	reconcileJob := jobs.NewPaymentReconciliationJob(database.DB, payments, payouts,
		time.Duration(cfg.Jobs.ReconcilePaymentAgeMinutes)*time.Minute,
		time.Duration(cfg.Jobs.ReconcileIntervalSeconds)*time.Second,
		cfg.Jobs.ReconcileBatchSize)
	reconcileJob.Start()
	defer reconcileJob.Stop()

	slaJob := jobs.NewSlaMonitorJob(database.DB, notifications,
		time.Duration(cfg.Jobs.SlaAcceptThresholdMinutes)*time.Minute,
		time.Duration(cfg.Jobs.SlaArrivalThresholdMinutes)*time.Minute,
		time.Duration(cfg.Jobs.SlaIntervalSeconds)*time.Second)
	slaJob.Start()
	defer slaJob.Stop()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := router.Run("0.0.0.0:" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// buildGateway wires the payment gateway adapter named in the config.
// Unknown providers fall back to the sandbox so a misconfigured box never
// charges anyone.
func buildGateway(cfg config.GatewayConfig) gateway.PaymentGateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "paystack":
		if cfg.PaystackSecret == "" {
			log.Fatal("PAYSTACK_SECRET_KEY is required when PAYMENT_GATEWAY=paystack")
		}
		log.Println("🔌 Using Paystack payment gateway")
		return gateway.NewPaystack(cfg.PaystackSecret, timeout)
	case "stripe":
		if cfg.StripeKey == "" {
			log.Fatal("STRIPE_API_KEY is required when PAYMENT_GATEWAY=stripe")
		}
		log.Println("🔌 Using Stripe payment gateway")
		return gateway.NewStripe(cfg.StripeKey, cfg.StripeSuccessURL, cfg.StripeCancelURL)
	case "sandbox":
		log.Println("🔌 Using sandbox payment gateway")
		return gateway.NewSandbox()
	default:
		log.Printf("⚠️ Unknown payment gateway %q, falling back to sandbox", cfg.Provider)
		return gateway.NewSandbox()
	}
}
