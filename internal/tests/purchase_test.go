package tests

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/repository"
	"tours/internal/service"
)

// ──────────────────────────────────────────────
// 5. TICKET PURCHASES AND PRICING
// ──────────────────────────────────────────────

type purchaseFixture struct {
	ticketTypes *MockTicketTypeRepository
	purchases   *MockPurchaseRepository
	addOns      *MockAddOnRepository
	activity    *MockActivityRecorder
	service     *service.PurchaseService
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		ticketTypes: NewMockTicketTypeRepository(),
		addOns:      NewMockAddOnRepository(),
		activity:    NewMockActivityRecorder(),
	}
	f.purchases = NewMockPurchaseRepository(f.ticketTypes)
	f.service = service.NewPurchaseService(
		f.purchases,
		f.ticketTypes,
		service.NewPricingService(f.addOns),
		service.NewReceiptService(service.NewNotificationService()),
		f.activity,
		clock.NewFixed(testNow),
	)
	return f
}

func (f *purchaseFixture) addAddOn(name string, price float64, currency string, perPerson bool) string {
	id := uuid.New().String()
	f.addOns.AddAddOn(&domain.AddOn{
		ID:         id,
		CategoryID: "extras",
		Name:       name,
		Price:      price,
		Currency:   currency,
		PerPerson:  perPerson,
		Active:     true,
	})
	return id
}

func TestPurchase_PicksCheapestTierOnSale(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     2,
		Customer:     validCustomer(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if purchase.TierID != "regular" {
		t.Errorf("expected regular tier (early bird has ended), got %s", purchase.TierID)
	}
	if purchase.TotalAmount != 200 {
		t.Errorf("expected total 200, got %.2f", purchase.TotalAmount)
	}
	if purchase.Status != domain.PurchaseStatusPending {
		t.Errorf("expected pending, got %s", purchase.Status)
	}
	if !strings.HasPrefix(purchase.Reference, "TP-") {
		t.Errorf("expected TP- reference, got %s", purchase.Reference)
	}
	if purchase.Customer.Email != "esi@example.com" {
		t.Errorf("expected normalized email, got %q", purchase.Customer.Email)
	}
	if len(purchase.Tickets) != 0 {
		t.Error("tickets must not be issued before payment")
	}
	if kinds := f.activity.Kinds(); len(kinds) != 1 || kinds[0] != domain.ActivityPurchaseCreated {
		t.Errorf("expected purchase_created activity, got %v", kinds)
	}
}

func TestPurchase_AddOnsArePricedPerPerson(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)
	meal := f.addAddOn("Meal voucher", 12.5, "GHS", true)
	parking := f.addAddOn("Parking", 20, "ghs", false)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		TierID:       "vip",
		Quantity:     3,
		Customer:     validCustomer(),
		AddOns: []service.AddOnSelection{
			{AddOnID: meal, Quantity: 1},
			{AddOnID: parking},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 x 250 + 3 x 12.50 + 1 x 20
	if purchase.TotalAmount != 807.5 {
		t.Errorf("expected total 807.50, got %.2f", purchase.TotalAmount)
	}
	if len(purchase.AddOns) != 2 {
		t.Fatalf("expected 2 add-ons, got %d", len(purchase.AddOns))
	}
	if purchase.AddOns[0].Quantity != 3 || purchase.AddOns[0].Total != 37.5 {
		t.Errorf("unexpected meal line %+v", purchase.AddOns[0])
	}
	if purchase.AddOns[1].Quantity != 1 || purchase.AddOns[1].Total != 20 {
		t.Errorf("unexpected parking line %+v", purchase.AddOns[1])
	}
}

func TestPurchase_RejectsInvalidRequests(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)
	usdAddOn := f.addAddOn("Souvenir", 5, "USD", false)

	inactive := concertTicketType()
	inactive.Active = false
	f.ticketTypes.AddTicketType(inactive)

	testCases := []struct {
		name    string
		req     service.CreatePurchaseRequest
		wantErr error
	}{
		{"zero quantity", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 0, Customer: validCustomer()}, service.ErrInvalidQuantity},
		{"too many", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 21, Customer: validCustomer()}, service.ErrInvalidQuantity},
		{"missing name", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 1, Customer: domain.Customer{Email: "a@b.com"}}, service.ErrInvalidCustomer},
		{"bad email", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 1, Customer: domain.Customer{Name: "A", Email: "not-an-email"}}, service.ErrInvalidCustomer},
		{"unknown ticket type", service.CreatePurchaseRequest{TicketTypeID: uuid.New().String(), Quantity: 1, Customer: validCustomer()}, repository.ErrNotFound},
		{"malformed ticket type", service.CreatePurchaseRequest{TicketTypeID: "festival", Quantity: 1, Customer: validCustomer()}, repository.ErrNotFound},
		{"inactive ticket type", service.CreatePurchaseRequest{TicketTypeID: inactive.ID, Quantity: 1, Customer: validCustomer()}, service.ErrUnavailable},
		{"unknown tier", service.CreatePurchaseRequest{TicketTypeID: tt.ID, TierID: "student", Quantity: 1, Customer: validCustomer()}, service.ErrTierNotFound},
		{"ended tier", service.CreatePurchaseRequest{TicketTypeID: tt.ID, TierID: "early", Quantity: 1, Customer: validCustomer()}, service.ErrTierNotOnSale},
		{"unknown add-on", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 1, Customer: validCustomer(), AddOns: []service.AddOnSelection{{AddOnID: uuid.New().String()}}}, service.ErrAddOnNotFound},
		{"foreign currency add-on", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 1, Customer: validCustomer(), AddOns: []service.AddOnSelection{{AddOnID: usdAddOn}}}, service.ErrCurrencyMismatch},
		{"over capacity", service.CreatePurchaseRequest{TicketTypeID: tt.ID, Quantity: 11, Customer: validCustomer()}, service.ErrSoldOut},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.CreatePurchase(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if atomic.LoadInt32(&f.purchases.CreateCallCount) != 0 {
		t.Errorf("no purchase should be stored, got %d", f.purchases.CreateCallCount)
	}
}

func TestPurchase_FullTierFallsThroughToNextCheapest(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	tt.Tiers[1].Capacity = 4
	tt.Tiers[1].Sold = 3
	f.ticketTypes.AddTicketType(tt)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     2,
		Customer:     validCustomer(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchase.TierID != "vip" {
		t.Errorf("expected vip once regular is full, got %s", purchase.TierID)
	}

	_, err = f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		TierID:       "regular",
		Quantity:     2,
		Customer:     validCustomer(),
	})
	if !errors.Is(err, service.ErrSoldOut) {
		t.Errorf("expected ErrSoldOut for explicit full tier, got %v", err)
	}
}

func TestPurchase_PendingPurchasesHoldCapacity(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	tt.Tiers[1].Capacity = 5
	f.ticketTypes.AddTicketType(tt)

	create := func(tierID string, qty int) (*domain.TicketPurchase, error) {
		return f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
			TicketTypeID: tt.ID,
			TierID:       tierID,
			Quantity:     qty,
			Customer:     validCustomer(),
		})
	}

	if _, err := create("regular", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := create("regular", 2); !errors.Is(err, service.ErrSoldOut) {
		t.Errorf("expected ErrSoldOut while regular is held, got %v", err)
	}
	if _, err := create("vip", 7); !errors.Is(err, service.ErrSoldOut) {
		t.Errorf("expected ErrSoldOut for the ticket type, got %v", err)
	}
	if _, err := create("vip", 6); err != nil {
		t.Fatalf("expected the unheld 6 to be sellable, got %v", err)
	}
	if _, err := create("", 1); !errors.Is(err, service.ErrSoldOut) {
		t.Errorf("expected ErrSoldOut once everything is held, got %v", err)
	}
	if stored := f.ticketTypes.GetTicketType(tt.ID); stored.Sold != 0 {
		t.Errorf("holds must not touch the sold counter, got %d", stored.Sold)
	}
}

func TestPurchase_StaleHoldsReleaseCapacity(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)
	f.purchases.AddPurchase(&domain.TicketPurchase{
		ID:           uuid.New().String(),
		TicketTypeID: tt.ID,
		TierID:       "regular",
		Quantity:     8,
		Status:       domain.PurchaseStatusPending,
		CreatedAt:    testNow.Add(-time.Hour),
	})

	if _, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     6,
		Customer:     validCustomer(),
	}); err != nil {
		t.Errorf("an abandoned purchase must not hold capacity: %v", err)
	}
}

func TestPurchase_NoTierOnSale(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	tt.Tiers = tt.Tiers[:1]
	f.ticketTypes.AddTicketType(tt)

	_, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     1,
		Customer:     validCustomer(),
	})
	if !errors.Is(err, service.ErrTierNotOnSale) {
		t.Errorf("expected ErrTierNotOnSale, got %v", err)
	}
}

func TestIssueTickets_IssuesOncePerUnit(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     3,
		Customer:     validCustomer(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paid, changed, err := f.service.IssueTickets(context.Background(), purchase.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected first issue to change the purchase")
	}
	if paid.Status != domain.PurchaseStatusPaid {
		t.Errorf("expected paid, got %s", paid.Status)
	}
	if len(paid.Tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(paid.Tickets))
	}
	codes := map[string]bool{}
	for _, ticket := range paid.Tickets {
		if !strings.HasPrefix(ticket.Code, "TKT-") {
			t.Errorf("unexpected ticket code %s", ticket.Code)
		}
		if ticket.HolderName != "Esi Owusu" {
			t.Errorf("unexpected holder %q", ticket.HolderName)
		}
		codes[ticket.Code] = true
	}
	if len(codes) != 3 {
		t.Error("ticket codes must be unique")
	}

	stored := f.ticketTypes.GetTicketType(tt.ID)
	if stored.Sold != 3 {
		t.Errorf("expected 3 sold, got %d", stored.Sold)
	}

	again, changed, err := f.service.IssueTickets(context.Background(), purchase.ID)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if changed {
		t.Error("repeat issue must not change the purchase")
	}
	if len(again.Tickets) != 3 {
		t.Errorf("expected the same 3 tickets, got %d", len(again.Tickets))
	}
	if f.ticketTypes.GetTicketType(tt.ID).Sold != 3 {
		t.Error("repeat issue must not sell more tickets")
	}
	if atomic.LoadInt32(&f.purchases.MarkPaidCallCount) != 1 {
		t.Errorf("expected 1 MarkPaid, got %d", f.purchases.MarkPaidCallCount)
	}
}

func TestIssueTickets_CapacityGoneBeforePayment(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     4,
		Customer:     validCustomer(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tt.Sold = 8
	f.ticketTypes.AddTicketType(tt)

	_, _, err = f.service.IssueTickets(context.Background(), purchase.ID)
	if !errors.Is(err, service.ErrSoldOut) {
		t.Errorf("expected ErrSoldOut, got %v", err)
	}
	if got := f.purchases.GetPurchase(purchase.ID).Status; got != domain.PurchaseStatusRefundDue {
		t.Errorf("expected refund_due, got %s", got)
	}
	kinds := f.activity.Kinds()
	if len(kinds) != 2 || kinds[1] != domain.ActivityPurchaseRefund {
		t.Errorf("expected purchase_refund_due activity, got %v", kinds)
	}

	// Payment retries must not flip it back.
	if _, _, err := f.service.IssueTickets(context.Background(), purchase.ID); !errors.Is(err, service.ErrPurposeNotPayable) {
		t.Errorf("expected ErrPurposeNotPayable on retry, got %v", err)
	}
}

func TestIssueTickets_CancelledPurchaseIsNotPayable(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	cancelled := &domain.TicketPurchase{
		ID:       uuid.New().String(),
		Quantity: 1,
		Status:   domain.PurchaseStatusCancelled,
	}
	f.purchases.AddPurchase(cancelled)

	_, _, err := f.service.IssueTickets(context.Background(), cancelled.ID)
	if !errors.Is(err, service.ErrPurposeNotPayable) {
		t.Errorf("expected ErrPurposeNotPayable, got %v", err)
	}
	if atomic.LoadInt32(&f.purchases.MarkPaidCallCount) != 0 {
		t.Error("cancelled purchase must not be marked paid")
	}
}

func TestPurchaseReceipt_OnlyForPaidPurchases(t *testing.T) {
	t.Parallel()
	f := newPurchaseFixture()
	tt := concertTicketType()
	f.ticketTypes.AddTicketType(tt)
	parking := f.addAddOn("Parking", 20, "GHS", false)

	purchase, err := f.service.CreatePurchase(context.Background(), service.CreatePurchaseRequest{
		TicketTypeID: tt.ID,
		Quantity:     2,
		Customer:     validCustomer(),
		AddOns:       []service.AddOnSelection{{AddOnID: parking}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.service.Receipt(context.Background(), purchase.Reference, ""); !errors.Is(err, service.ErrReceiptUnavailable) {
		t.Errorf("expected ErrReceiptUnavailable before payment, got %v", err)
	}

	if _, _, err := f.service.IssueTickets(context.Background(), purchase.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	receipt, err := f.service.Receipt(context.Background(), purchase.Reference, "PAY-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Total != 220 || receipt.PaymentReference != "PAY-123" {
		t.Errorf("unexpected receipt %+v", receipt)
	}
	if len(receipt.Lines) != 2 {
		t.Fatalf("expected ticket and add-on lines, got %d", len(receipt.Lines))
	}
	if receipt.Lines[0].Description != "Festival Pass (Regular)" || receipt.Lines[0].UnitPrice != 100 {
		t.Errorf("unexpected ticket line %+v", receipt.Lines[0])
	}
	if len(receipt.TicketCodes) != 2 {
		t.Errorf("expected 2 ticket codes, got %d", len(receipt.TicketCodes))
	}
}
