package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tours/internal/clock"
	"tours/internal/handler"
	"tours/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CatalogHandler  *handler.CatalogHandler
	BookingHandler  *handler.BookingHandler
	PurchaseHandler *handler.PurchaseHandler
	PaymentHandler  *handler.PaymentHandler
	GalleryHandler  *handler.GalleryHandler
	AdminHandler    *handler.AdminHandler
	TokenValidator  middleware.TokenValidator
	ResponseStore   middleware.ResponseStore
	NewRelicApp     *newrelic.Application
	CORSOrigins     []string
}

// NewRouterDeps builds handlers from the container.
func NewRouterDeps(c *Container, redisClient *redis.Client, corsOrigins []string, defaultCurrency string) RouterDeps {
	return RouterDeps{
		CatalogHandler:  handler.NewCatalogHandler(c.Catalog, clock.NewSystem()),
		BookingHandler:  handler.NewBookingHandler(c.Bookings, c.Receipts),
		PurchaseHandler: handler.NewPurchaseHandler(c.Purchases, c.Receipts),
		PaymentHandler:  handler.NewPaymentHandler(c.Payments, c.Providers, defaultCurrency),
		GalleryHandler:  handler.NewGalleryHandler(c.Gallery),
		AdminHandler:    handler.NewAdminHandler(c.Auth, c.Dashboard),
		TokenValidator:  c.Auth,
		ResponseStore:   middleware.NewRedisResponseStore(redisClient),
		NewRelicApp:     c.NewRelic,
		CORSOrigins:     corsOrigins,
	}
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.NewRelic(deps.NewRelicApp))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.TransactionAttributes())
	router.Use(middleware.CORS(deps.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")

	// Webhooks are signed over the raw body and must never be replayed from
	// the idempotency cache.
	v1.POST("/payments/webhooks/paystack", deps.PaymentHandler.PaystackWebhook)

	// Login is never replayed: a cached response would hand out a token.
	v1.POST("/admin/login", deps.AdminHandler.Login)

	api := v1.Group("")
	api.Use(middleware.Idempotency(deps.ResponseStore))
	{
		destinations := api.Group("/destinations")
		{
			destinations.GET("", deps.CatalogHandler.ListDestinations)
			destinations.GET("/nearby", deps.CatalogHandler.NearbyDestinations)
			destinations.GET("/:id", deps.CatalogHandler.GetDestination)
		}

		events := api.Group("/events")
		{
			events.GET("", deps.CatalogHandler.ListEvents)
			events.GET("/:id", deps.CatalogHandler.GetEvent)
			events.GET("/:id/ticket-types", deps.CatalogHandler.ListTicketTypes)
		}

		api.GET("/ticket-types/:id", deps.CatalogHandler.GetTicketType)
		api.GET("/add-ons", deps.CatalogHandler.ListAddOns)

		galleries := api.Group("/galleries")
		{
			galleries.GET("", deps.GalleryHandler.ListGalleries)
			galleries.GET("/:id", deps.GalleryHandler.GetGallery)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/receipt", deps.BookingHandler.GetReceipt)
		}

		purchases := api.Group("/ticket-purchases")
		{
			purchases.POST("", deps.PurchaseHandler.CreatePurchase)
			purchases.GET("/:id", deps.PurchaseHandler.GetPurchase)
			purchases.GET("/:id/receipt", deps.PurchaseHandler.GetReceipt)
		}

		payments := api.Group("/payments")
		{
			payments.GET("/methods", deps.PaymentHandler.ListMethods)
			payments.POST("/checkout", deps.PaymentHandler.Checkout)
			payments.GET("/:reference", deps.PaymentHandler.GetStatus)
		}
	}

	// Admin requests authenticate before the idempotency cache is consulted,
	// and their keys are scoped to the admin.
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(deps.TokenValidator), middleware.Idempotency(deps.ResponseStore))
	{
		admin.GET("/providers", deps.PaymentHandler.ListProviders)
		admin.PUT("/providers/:code", deps.PaymentHandler.UpsertProvider)
		admin.GET("/payments", deps.PaymentHandler.ListPayments)
		admin.POST("/payments/:reference/cancel", deps.PaymentHandler.Cancel)

		admin.GET("/dashboard/overview", deps.AdminHandler.Overview)
		admin.GET("/dashboard/bookings", deps.AdminHandler.Bookings)
		admin.GET("/dashboard/activity", deps.AdminHandler.Activity)

		admin.POST("/bookings/:id/cancel", deps.BookingHandler.CancelBooking)

		admin.POST("/destinations", deps.CatalogHandler.CreateDestination)
		admin.POST("/destinations/sync-locations", deps.CatalogHandler.SyncLocations)
		admin.POST("/events", deps.CatalogHandler.CreateEvent)
		admin.POST("/ticket-types", deps.CatalogHandler.CreateTicketType)

		admin.POST("/galleries", deps.GalleryHandler.CreateGallery)
		admin.POST("/galleries/:id/images", deps.GalleryHandler.AddImage)
	}

	return router
}
