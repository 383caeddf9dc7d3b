package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"tours/internal/domain"
)

func TestInlineDispatcher_RunsEveryHandler(t *testing.T) {
	bookings := &fakeBookings{booking: &domain.Booking{ID: "order-1", Reference: "BK-1", Status: domain.BookingStatusPending}}
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}

	d := NewInlineDispatcher(
		NewConfirmPurposeHandler(bookings, &fakePurchases{}, &fakeReceipts{}, notifier),
		NewNotifyCustomerHandler(notifier),
		NewRecordActivityHandler(recorder),
	)
	d.PaymentResolved(context.Background(), resolvedEvent(domain.PurposeBooking, domain.PaymentStatusSuccessful).Payment())

	assert.Equal(t, domain.BookingStatusConfirmed, bookings.booking.Status)
	assert.Equal(t, []string{"PAY-abc"}, notifier.successes())
	assert.Equal(t, []domain.ActivityKind{domain.ActivityPaymentSuccess}, recorder.recorded())
}

func TestInlineDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bookings := &fakeBookings{err: errors.New("connection reset")}
	recorder := &fakeRecorder{}

	d := NewInlineDispatcher(
		NewConfirmPurposeHandler(bookings, &fakePurchases{}, &fakeReceipts{}, &fakeNotifier{}),
		NewRecordActivityHandler(recorder),
	)
	d.PaymentResolved(context.Background(), resolvedEvent(domain.PurposeBooking, domain.PaymentStatusSuccessful).Payment())

	assert.Equal(t, []domain.ActivityKind{domain.ActivityPaymentSuccess}, recorder.recorded())
}
