package tests

import (
	"time"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/service"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func sandboxProvider() *domain.PaymentProvider {
	return &domain.PaymentProvider{
		Code:     "sandbox",
		Name:     "Sandbox",
		Active:   true,
		Sandbox:  true,
		Priority: 10,
		Capabilities: []domain.Capability{
			{Currency: "GHS", Method: domain.PaymentMethodMobileMoney, Channels: []string{"mtn", "vodafone"}},
			{Currency: "GHS", Method: domain.PaymentMethodCard},
		},
	}
}

func liveProvider() *domain.PaymentProvider {
	return &domain.PaymentProvider{
		Code:     "paystack",
		Name:     "Paystack",
		Active:   true,
		Priority: 1,
		Capabilities: []domain.Capability{
			{Currency: "GHS", Method: domain.PaymentMethodMobileMoney, Channels: []string{"mtn", "atl"}, MinAmount: 1, MaxAmount: 5000},
			{Currency: "NGN", Method: domain.PaymentMethodCard},
		},
	}
}

// paymentFixture bundles a payment service wired to mocks.
type paymentFixture struct {
	payments  *MockPaymentRepository
	providers *MockProviderRepository
	bookings  *MockBookingRepository
	purchases *MockPurchaseRepository
	gateway   *MockGateway
	live      *MockGateway
	clock     *clock.Fixed
	service   *service.PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments:  NewMockPaymentRepository(),
		providers: NewMockProviderRepository(),
		bookings:  NewMockBookingRepository(),
		purchases: NewMockPurchaseRepository(nil),
		gateway:   NewMockGateway(),
		live:      NewMockGateway(),
		clock:     clock.NewFixed(testNow),
	}
	f.providers.AddProvider(sandboxProvider())

	f.service = service.NewPaymentService(
		f.payments,
		service.NewProviderService(f.providers, nil),
		map[string]service.Gateway{
			"sandbox":  f.gateway,
			"paystack": f.live,
		},
		service.NewPurposeResolver(f.bookings, f.purchases),
		f.clock,
	)
	return f
}

func checkoutRequest() service.CheckoutRequest {
	return service.CheckoutRequest{
		PurposeKind: domain.PurposeBooking,
		PurposeID:   uuid.New().String(),
		Amount:      150,
		Currency:    "GHS",
		Method:      domain.PaymentMethodMobileMoney,
		Customer: domain.Customer{
			Name:  "Ama Mensah",
			Email: "ama@example.com",
			Phone: "+233200000000",
		},
	}
}

func processingPayment(reference string, updatedAt time.Time) *domain.Payment {
	return &domain.Payment{
		ID:           uuid.New().String(),
		Reference:    reference,
		Amount:       100,
		Currency:     "GHS",
		Method:       domain.PaymentMethodMobileMoney,
		ProviderCode: "sandbox",
		Status:       domain.PaymentStatusProcessing,
		PurposeKind:  domain.PurposeBooking,
		PurposeID:    uuid.New().String(),
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
	}
}

func pendingBooking(total float64) *domain.Booking {
	return &domain.Booking{
		ID:          uuid.New().String(),
		Reference:   "BK-" + uuid.New().String()[:8],
		Kind:        domain.BookingKindDestination,
		TargetID:    uuid.New().String(),
		Customer:    domain.Customer{Name: "Kofi Boateng", Email: "kofi@example.com", Phone: "+233240000000"},
		Guests:      2,
		TotalAmount: total,
		Currency:    "GHS",
		Status:      domain.BookingStatusPending,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

// concertTicketType has an expired early-bird tier and two tiers on sale.
func concertTicketType() *domain.TicketType {
	id := uuid.New().String()
	return &domain.TicketType{
		ID:       id,
		EventID:  uuid.New().String(),
		Name:     "Festival Pass",
		Currency: "GHS",
		Capacity: 10,
		Active:   true,
		Tiers: []domain.PricingTier{
			{ID: "early", TicketTypeID: id, Name: "Early Bird", Price: 80, EndsAt: testNow.Add(-24 * time.Hour)},
			{ID: "regular", TicketTypeID: id, Name: "Regular", Price: 100, StartsAt: testNow.Add(-24 * time.Hour)},
			{ID: "vip", TicketTypeID: id, Name: "VIP", Price: 250},
		},
	}
}

func validCustomer() domain.Customer {
	return domain.Customer{Name: "Esi Owusu", Email: "Esi@Example.com ", Phone: "+233550000000"}
}
