package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tours/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	notificationService *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
	}
}

// ForPurchase builds the receipt of a paid ticket purchase.
func (s *ReceiptService) ForPurchase(ctx context.Context, purchase *domain.TicketPurchase, ticketTypeName, tierName, paymentReference string) *domain.Receipt {
	description := ticketTypeName
	if tierName != "" {
		description = fmt.Sprintf("%s (%s)", ticketTypeName, tierName)
	}

	ticketsTotal := purchase.TotalAmount
	lines := make([]domain.ReceiptLine, 0, len(purchase.AddOns)+1)
	for _, a := range purchase.AddOns {
		ticketsTotal -= a.Total
	}
	lines = append(lines, domain.ReceiptLine{
		Description: description,
		Quantity:    purchase.Quantity,
		UnitPrice:   roundMoney(ticketsTotal / float64(max(purchase.Quantity, 1))),
		Total:       roundMoney(ticketsTotal),
	})
	lines = append(lines, addOnLines(purchase.AddOns)...)

	codes := make([]string, 0, len(purchase.Tickets))
	for _, t := range purchase.Tickets {
		codes = append(codes, t.Code)
	}

	return s.issue(ctx, &domain.Receipt{
		OrderReference:   purchase.Reference,
		PaymentReference: paymentReference,
		CustomerName:     purchase.Customer.Name,
		CustomerEmail:    purchase.Customer.Email,
		Lines:            lines,
		Total:            purchase.TotalAmount,
		Currency:         purchase.Currency,
		TicketCodes:      codes,
	})
}

// ForBooking builds the receipt of a confirmed booking.
func (s *ReceiptService) ForBooking(ctx context.Context, booking *domain.Booking, targetName string) *domain.Receipt {
	baseTotal := booking.TotalAmount
	for _, a := range booking.AddOns {
		baseTotal -= a.Total
	}

	lines := []domain.ReceiptLine{{
		Description: targetName,
		Quantity:    booking.Guests,
		UnitPrice:   roundMoney(baseTotal / float64(max(booking.Guests, 1))),
		Total:       roundMoney(baseTotal),
	}}
	lines = append(lines, addOnLines(booking.AddOns)...)

	return s.issue(ctx, &domain.Receipt{
		OrderReference:   booking.Reference,
		PaymentReference: booking.PaymentReference,
		CustomerName:     booking.Customer.Name,
		CustomerEmail:    booking.Customer.Email,
		Lines:            lines,
		Total:            booking.TotalAmount,
		Currency:         booking.Currency,
	})
}

func (s *ReceiptService) issue(ctx context.Context, receipt *domain.Receipt) *domain.Receipt {
	receipt.ID = uuid.New().String()
	receipt.IssuedAt = time.Now().UTC()
	return receipt
}

// Send notifies the customer that the receipt is ready.
func (s *ReceiptService) Send(ctx context.Context, receipt *domain.Receipt) error {
	if s.notificationService == nil {
		return nil
	}
	return s.notificationService.NotifyReceiptReady(ctx, receipt)
}

func addOnLines(addOns []domain.SelectedAddOn) []domain.ReceiptLine {
	lines := make([]domain.ReceiptLine, 0, len(addOns))
	for _, a := range addOns {
		lines = append(lines, domain.ReceiptLine{
			Description: a.Name,
			Quantity:    a.Quantity,
			UnitPrice:   a.Price,
			Total:       a.Total,
		})
	}
	return lines
}

// FormatReceipt formats the receipt as plain text (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder
	b.WriteString("=====================================\n")
	b.WriteString("              RECEIPT\n")
	b.WriteString("=====================================\n")
	fmt.Fprintf(&b, "Receipt ID: %s\n", receipt.ID)
	fmt.Fprintf(&b, "Order:      %s\n", receipt.OrderReference)
	if receipt.PaymentReference != "" {
		fmt.Fprintf(&b, "Payment:    %s\n", receipt.PaymentReference)
	}
	fmt.Fprintf(&b, "Date:       %s\n", receipt.IssuedAt.Format("Jan 02, 2006 3:04 PM"))
	fmt.Fprintf(&b, "Customer:   %s\n\n", receipt.CustomerName)

	b.WriteString("ITEMS\n")
	b.WriteString("-------------------------------------\n")
	for _, line := range receipt.Lines {
		fmt.Fprintf(&b, "%-20s %3d x %s\n", line.Description, line.Quantity, formatFloat(line.UnitPrice))
		fmt.Fprintf(&b, "%30s %s\n", "", formatFloat(line.Total))
	}
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "TOTAL:            %s %s\n", receipt.Currency, formatFloat(receipt.Total))

	if len(receipt.TicketCodes) > 0 {
		b.WriteString("\nTICKETS\n")
		b.WriteString("-------------------------------------\n")
		for _, code := range receipt.TicketCodes {
			b.WriteString(code + "\n")
		}
	}

	b.WriteString("=====================================\n")
	b.WriteString("     Thank you for travelling with us!\n")
	b.WriteString("=====================================\n")
	return b.String()
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
