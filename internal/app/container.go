package app

import (
	"database/sql"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tours/internal/clock"
	"tours/internal/config"
	"tours/internal/events"
	"tours/internal/log"
	internalRedis "tours/internal/redis"
	"tours/internal/repository/postgres"
	"tours/internal/service"
)

// Container holds the wired services shared by the API and the standalone
// auto-completion daemon.
type Container struct {
	DB              *sql.DB
	SQLX            *sqlx.DB
	Redis           *redis.Client
	NewRelic        *newrelic.Application
	WatermillLogger watermill.LoggerAdapter

	Catalog       *service.CatalogService
	Pricing       *service.PricingService
	Bookings      *service.BookingService
	Purchases     *service.PurchaseService
	Providers     *service.ProviderService
	Payments      *service.PaymentService
	AutoCompleter *service.AutoCompleter
	Gallery       *service.GalleryService
	Dashboard     *service.DashboardService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Receipts      *service.ReceiptService
}

// NewContainer wires repositories and services. Payment resolutions are
// written to the outbox when messaging is enabled and dispatched in-process
// otherwise.
func NewContainer(cfg *config.Config, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application) *Container {
	clk := clock.NewSystem()
	sqlxDB := NewSQLX(db)
	wmLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	var outbox postgres.PaymentOutbox
	if cfg.Messaging.Enabled {
		outbox = events.NewOutbox(wmLogger)
	}

	destinationRepo := postgres.NewDestinationRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketTypeRepo := postgres.NewTicketTypeRepository(db)
	addOnRepo := postgres.NewAddOnRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	purchaseRepo := postgres.NewPurchaseRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db, outbox)
	galleryRepo := postgres.NewGalleryRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	dashboardRepo := postgres.NewDashboardRepository(sqlxDB)

	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService(notificationService)
	dashboardService := service.NewDashboardService(dashboardRepo, bookingRepo, activityRepo, cacheStore, clk)
	pricingService := service.NewPricingService(addOnRepo)
	catalogService := service.NewCatalogService(destinationRepo, eventRepo, ticketTypeRepo, addOnRepo, locationStore, cacheStore, clk)
	bookingService := service.NewBookingService(bookingRepo, destinationRepo, ticketTypeRepo, pricingService, dashboardService, clk)
	purchaseService := service.NewPurchaseService(purchaseRepo, ticketTypeRepo, pricingService, receiptService, dashboardService, clk)
	providerService := service.NewProviderService(providerRepo, cacheStore)

	gateways := map[string]service.Gateway{
		"sandbox": service.NewSandboxGateway(),
	}
	if cfg.Paystack.SecretKey != "" {
		gateways["paystack"] = service.NewPaystackGateway(service.PaystackConfig{
			BaseURL:   cfg.Paystack.BaseURL,
			SecretKey: cfg.Paystack.SecretKey,
			Timeout:   cfg.Paystack.Timeout,
		})
	}

	paymentService := service.NewPaymentService(
		paymentRepo,
		providerService,
		gateways,
		service.NewPurposeResolver(bookingRepo, purchaseRepo),
		clk,
	)

	if outbox == nil {
		logrus.Warn("messaging disabled: payment resolutions run their side effects in-process without retries")
		paymentService.OnResolved(events.NewInlineDispatcher(
			events.NewConfirmPurposeHandler(bookingService, purchaseService, receiptService, notificationService),
			events.NewNotifyCustomerHandler(notificationService),
			events.NewRecordActivityHandler(dashboardService),
		))
	}

	autoCompleter := service.NewAutoCompleter(paymentRepo, paymentService, lockStore, clk, nrApp, service.AutoCompleteConfig{
		Interval:    cfg.Payments.AutoCompleteEvery,
		Threshold:   cfg.Payments.AutoCompleteAfter,
		SuccessRate: cfg.Payments.SuccessRate,
		BatchSize:   cfg.Payments.AutoCompleteBatch,
		SandboxOnly: cfg.Payments.AutoCompleteSandbox,
	})

	return &Container{
		DB:              db,
		SQLX:            sqlxDB,
		Redis:           redisClient,
		NewRelic:        nrApp,
		WatermillLogger: wmLogger,

		Catalog:       catalogService,
		Pricing:       pricingService,
		Bookings:      bookingService,
		Purchases:     purchaseService,
		Providers:     providerService,
		Payments:      paymentService,
		AutoCompleter: autoCompleter,
		Gallery:       service.NewGalleryService(galleryRepo, clk),
		Dashboard:     dashboardService,
		Auth:          service.NewAuthService(adminRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clk),
		Notifications: notificationService,
		Receipts:      receiptService,
	}
}
