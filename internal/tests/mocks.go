package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/redis"
	"tours/internal/repository"
	"tours/internal/service"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // keyed by reference
	sandbox  map[string]bool            // provider code -> sandbox

	// Counters
	CreateCallCount     int32
	TransitionCallCount int32
	ListDueCallCount    int32

	// Error injection
	CreateError     error
	TransitionError error
	ListDueError    error

	// LastListFilter is the filter List was last called with.
	LastListFilter domain.PaymentFilter

	// Resolved collects payments that reached a terminal outcome through
	// Transition, in order.
	Resolved []*domain.Payment
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
		sandbox:  make(map[string]bool),
	}
}

// AddPayment adds a payment to the mock repository (for test setup).
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.payments[payment.Reference] = &cp
}

// SetSandboxProvider marks a provider code as sandbox for ListDue.
func (m *MockPaymentRepository) SetSandboxProvider(code string, sandbox bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sandbox[code] = sandbox
}

// GetPayment returns a copy of the stored payment (for test assertions).
func (m *MockPaymentRepository) GetPayment(reference string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[reference]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ResolvedCount returns how many terminal transitions were recorded.
func (m *MockPaymentRepository) ResolvedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Resolved)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[payment.Reference]; exists {
		return repository.ErrConflict
	}
	for _, p := range m.payments {
		if payment.IdempotencyKey != "" && p.IdempotencyKey == payment.IdempotencyKey {
			return repository.ErrConflict
		}
		if isOpenPayment(p) && isOpenPayment(payment) &&
			p.PurposeKind == payment.PurposeKind && p.PurposeID == payment.PurposeID {
			return repository.ErrConflict
		}
	}
	cp := *payment
	m.payments[payment.Reference] = &cp
	return nil
}

func isOpenPayment(p *domain.Payment) bool {
	return p.Status == domain.PaymentStatusPending || p.Status == domain.PaymentStatusProcessing
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetOpenByPurpose(ctx context.Context, kind domain.PurposeKind, purposeID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.PurposeKind == kind && p.PurposeID == purposeID && isOpenPayment(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) Transition(ctx context.Context, change repository.StatusChange) (*domain.Payment, error) {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return nil, m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[change.Reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Status != change.From {
		return nil, repository.ErrStaleState
	}

	p.Status = change.To
	if change.ProviderReference != "" {
		p.ProviderReference = change.ProviderReference
	}
	p.FailureReason = change.FailureReason
	if len(change.Metadata) > 0 {
		if p.Metadata == nil {
			p.Metadata = map[string]any{}
		}
		for k, v := range change.Metadata {
			p.Metadata[k] = v
		}
	}
	p.UpdatedAt = change.At
	if change.To.IsTerminal() {
		p.CompletedAt = change.At
	}

	cp := *p
	if cp.Status == domain.PaymentStatusSuccessful || cp.Status == domain.PaymentStatusFailed {
		resolved := cp
		m.Resolved = append(m.Resolved, &resolved)
	}
	return &cp, nil
}

// SetListDueError changes the ListDue error while a daemon may be running.
func (m *MockPaymentRepository) SetListDueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListDueError = err
}

func (m *MockPaymentRepository) ListDue(ctx context.Context, cutoff time.Time, sandboxOnly bool, limit int) ([]*domain.Payment, error) {
	atomic.AddInt32(&m.ListDueCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListDueError != nil {
		return nil, m.ListDueError
	}

	var due []*domain.Payment
	for _, p := range m.payments {
		if p.Status != domain.PaymentStatusProcessing || p.UpdatedAt.After(cutoff) {
			continue
		}
		if sandboxOnly && !m.sandbox[p.ProviderCode] {
			continue
		}
		cp := *p
		due = append(due, &cp)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].UpdatedAt.Before(due[j].UpdatedAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockPaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastListFilter = filter

	var out []*domain.Payment
	for _, p := range m.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.ProviderCode != "" && p.ProviderCode != filter.ProviderCode {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK PROVIDER REPOSITORY
// ──────────────────────────────────────────────

// MockProviderRepository is a mock implementation of ProviderRepository.
type MockProviderRepository struct {
	mu        sync.RWMutex
	providers map[string]*domain.PaymentProvider

	ListCallCount int32

	ListError error
}

// NewMockProviderRepository creates a new mock provider repository.
func NewMockProviderRepository() *MockProviderRepository {
	return &MockProviderRepository{
		providers: make(map[string]*domain.PaymentProvider),
	}
}

// AddProvider adds a provider to the mock repository (for test setup).
func (m *MockProviderRepository) AddProvider(provider *domain.PaymentProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *provider
	m.providers[provider.Code] = &cp
}

func (m *MockProviderRepository) List(ctx context.Context) ([]*domain.PaymentProvider, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.PaymentProvider, 0, len(m.providers))
	for _, p := range m.providers {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockProviderRepository) GetByCode(ctx context.Context, code string) (*domain.PaymentProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProviderRepository) Upsert(ctx context.Context, provider *domain.PaymentProvider) error {
	m.AddProvider(provider)
	return nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository (for test setup).
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *booking
	m.bookings[booking.ID] = &cp
}

// GetBooking returns a copy of the stored booking (for test assertions).
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddBooking(booking)
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.Reference == reference {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Booking
	for _, b := range m.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrStaleState
	}
	b.Status = to
	return nil
}

func (m *MockBookingRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentReference = reference
	return nil
}

// ──────────────────────────────────────────────
// MOCK PURCHASE REPOSITORY
// ──────────────────────────────────────────────

// MockPurchaseRepository is a mock implementation of PurchaseRepository.
// MarkPaid enforces ticket type capacity through the shared ticket type mock.
type MockPurchaseRepository struct {
	mu          sync.RWMutex
	purchases   map[string]*domain.TicketPurchase
	ticketTypes *MockTicketTypeRepository

	// Counters
	CreateCallCount   int32
	MarkPaidCallCount int32

	// Error injection
	CreateError   error
	MarkPaidError error
}

// NewMockPurchaseRepository creates a new mock purchase repository. ticketTypes may be nil.
func NewMockPurchaseRepository(ticketTypes *MockTicketTypeRepository) *MockPurchaseRepository {
	return &MockPurchaseRepository{
		purchases:   make(map[string]*domain.TicketPurchase),
		ticketTypes: ticketTypes,
	}
}

// AddPurchase adds a purchase to the mock repository (for test setup).
func (m *MockPurchaseRepository) AddPurchase(purchase *domain.TicketPurchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *purchase
	m.purchases[purchase.ID] = &cp
}

// GetPurchase returns a copy of the stored purchase (for test assertions).
func (m *MockPurchaseRepository) GetPurchase(id string) *domain.TicketPurchase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *domain.TicketPurchase) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddPurchase(purchase)
	return nil
}

func (m *MockPurchaseRepository) GetByID(ctx context.Context, id string) (*domain.TicketPurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPurchaseRepository) GetByReference(ctx context.Context, reference string) (*domain.TicketPurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.purchases {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPurchaseRepository) MarkPaid(ctx context.Context, purchase *domain.TicketPurchase, tickets []domain.Ticket) error {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	if m.MarkPaidError != nil {
		return m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.purchases[purchase.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != domain.PurchaseStatusPending {
		return repository.ErrStaleState
	}
	if m.ticketTypes != nil {
		if err := m.ticketTypes.sell(stored.TicketTypeID, stored.TierID, stored.Quantity); err != nil {
			return err
		}
	}

	stored.Status = domain.PurchaseStatusPaid
	stored.Tickets = append([]domain.Ticket(nil), tickets...)
	purchase.Status = stored.Status
	purchase.Tickets = stored.Tickets
	return nil
}

func (m *MockPurchaseRepository) MarkRefundDue(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.purchases[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != domain.PurchaseStatusPending {
		return repository.ErrStaleState
	}
	stored.Status = domain.PurchaseStatusRefundDue
	return nil
}

func (m *MockPurchaseRepository) HeldQuantities(ctx context.Context, ticketTypeID string, since time.Time) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	held := make(map[string]int)
	for _, p := range m.purchases {
		if p.TicketTypeID == ticketTypeID && p.Status == domain.PurchaseStatusPending && p.CreatedAt.After(since) {
			held[p.TierID] += p.Quantity
		}
	}
	return held, nil
}

// ──────────────────────────────────────────────
// MOCK CATALOG REPOSITORIES
// ──────────────────────────────────────────────

// MockTicketTypeRepository is a mock implementation of TicketTypeRepository.
type MockTicketTypeRepository struct {
	mu    sync.RWMutex
	types map[string]*domain.TicketType
}

// NewMockTicketTypeRepository creates a new mock ticket type repository.
func NewMockTicketTypeRepository() *MockTicketTypeRepository {
	return &MockTicketTypeRepository{
		types: make(map[string]*domain.TicketType),
	}
}

// AddTicketType adds a ticket type to the mock repository (for test setup).
func (m *MockTicketTypeRepository) AddTicketType(tt *domain.TicketType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[tt.ID] = copyTicketType(tt)
}

// GetTicketType returns a copy of the stored ticket type (for test assertions).
func (m *MockTicketTypeRepository) GetTicketType(id string) *domain.TicketType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tt, ok := m.types[id]
	if !ok {
		return nil
	}
	return copyTicketType(tt)
}

func (m *MockTicketTypeRepository) Create(ctx context.Context, tt *domain.TicketType) error {
	m.AddTicketType(tt)
	return nil
}

func (m *MockTicketTypeRepository) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tt, ok := m.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTicketType(tt), nil
}

func (m *MockTicketTypeRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TicketType
	for _, tt := range m.types {
		if tt.EventID == eventID {
			out = append(out, copyTicketType(tt))
		}
	}
	return out, nil
}

// sell increments sold counters, refusing to oversell the type or tier.
func (m *MockTicketTypeRepository) sell(typeID, tierID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt, ok := m.types[typeID]
	if !ok {
		return repository.ErrNotFound
	}
	if tt.Sold+quantity > tt.Capacity {
		return repository.ErrSoldOut
	}
	tier, ok := tt.Tier(tierID)
	if ok && tier.Capacity > 0 && tier.Sold+quantity > tier.Capacity {
		return repository.ErrSoldOut
	}
	tt.Sold += quantity
	if ok {
		tier.Sold += quantity
	}
	return nil
}

func copyTicketType(tt *domain.TicketType) *domain.TicketType {
	cp := *tt
	cp.Tiers = append([]domain.PricingTier(nil), tt.Tiers...)
	return &cp
}

// MockDestinationRepository is a mock implementation of DestinationRepository.
type MockDestinationRepository struct {
	mu           sync.RWMutex
	destinations map[string]*domain.Destination

	GetByIDCallCount int32
}

// NewMockDestinationRepository creates a new mock destination repository.
func NewMockDestinationRepository() *MockDestinationRepository {
	return &MockDestinationRepository{
		destinations: make(map[string]*domain.Destination),
	}
}

// AddDestination adds a destination to the mock repository (for test setup).
func (m *MockDestinationRepository) AddDestination(d *domain.Destination) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.destinations[d.ID] = &cp
}

func (m *MockDestinationRepository) Create(ctx context.Context, d *domain.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.destinations {
		if existing.Slug == d.Slug {
			return repository.ErrConflict
		}
	}
	cp := *d
	m.destinations[d.ID] = &cp
	return nil
}

func (m *MockDestinationRepository) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.destinations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MockDestinationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.destinations {
		if d.Slug == slug {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDestinationRepository) List(ctx context.Context, country string) ([]*domain.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Destination
	for _, d := range m.destinations {
		if !d.Active || (country != "" && d.Country != country) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockDestinationRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Destination
	for _, id := range ids {
		if d, ok := m.destinations[id]; ok && d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockAddOnRepository is a mock implementation of AddOnRepository.
type MockAddOnRepository struct {
	mu     sync.RWMutex
	addOns map[string]*domain.AddOn
}

// NewMockAddOnRepository creates a new mock add-on repository.
func NewMockAddOnRepository() *MockAddOnRepository {
	return &MockAddOnRepository{
		addOns: make(map[string]*domain.AddOn),
	}
}

// AddAddOn adds an add-on to the mock repository (for test setup).
func (m *MockAddOnRepository) AddAddOn(a *domain.AddOn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.addOns[a.ID] = &cp
}

func (m *MockAddOnRepository) ListCategories(ctx context.Context) ([]*domain.AddOnCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byCategory := map[string]*domain.AddOnCategory{}
	for _, a := range m.addOns {
		if !a.Active {
			continue
		}
		c, ok := byCategory[a.CategoryID]
		if !ok {
			c = &domain.AddOnCategory{ID: a.CategoryID}
			byCategory[a.CategoryID] = c
		}
		c.AddOns = append(c.AddOns, *a)
	}
	out := make([]*domain.AddOnCategory, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockAddOnRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.AddOn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AddOn
	for _, id := range ids {
		if a, ok := m.addOns[id]; ok && a.Active {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK ACTIVITY RECORDER
// ──────────────────────────────────────────────

// MockActivityRecorder collects activity feed entries.
type MockActivityRecorder struct {
	mu      sync.Mutex
	entries []domain.Activity

	RecordError error
}

// NewMockActivityRecorder creates a new mock activity recorder.
func NewMockActivityRecorder() *MockActivityRecorder {
	return &MockActivityRecorder{}
}

func (m *MockActivityRecorder) Record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, domain.Activity{Kind: kind, SubjectID: subjectID, Message: message})
	return nil
}

// Kinds returns the recorded kinds in order.
func (m *MockActivityRecorder) Kinds() []domain.ActivityKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.ActivityKind, 0, len(m.entries))
	for _, e := range m.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

// Hold marks a payment as locked by someone else for ttl.
func (m *MockLockStore) Hold(reference string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:payment:"+reference] = time.Now().Add(ttl)
}

func (m *MockLockStore) AcquirePaymentLock(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:payment:" + reference
	if expiry, exists := m.locks[key]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleasePaymentLock(ctx context.Context, reference string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:payment:"+reference)
	return nil
}

// IsLocked checks if a payment is locked (for test assertions).
func (m *MockLockStore) IsLocked(reference string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:payment:"+reference]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a scriptable payment gateway.
type MockGateway struct {
	mu sync.Mutex

	// Control behavior
	InitiateStatus domain.PaymentStatus
	InitiateError  error
	VerifyStatus   domain.PaymentStatus
	VerifyError    error

	// Counters
	InitiateCallCount int32
	VerifyCallCount   int32

	LastRequest service.InitiateRequest
}

// NewMockGateway creates a gateway that leaves every charge processing.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		InitiateStatus: domain.PaymentStatusProcessing,
		VerifyStatus:   domain.PaymentStatusProcessing,
	}
}

func (m *MockGateway) Initiate(ctx context.Context, req service.InitiateRequest) (*service.InitiateResult, error) {
	atomic.AddInt32(&m.InitiateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRequest = req
	if m.InitiateError != nil {
		return nil, m.InitiateError
	}
	return &service.InitiateResult{
		ProviderReference: "MOCK-" + req.Reference,
		AuthorizationURL:  "https://pay.example.test/" + req.Reference,
		Status:            m.InitiateStatus,
	}, nil
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*service.VerifyResult, error) {
	atomic.AddInt32(&m.VerifyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VerifyError != nil {
		return nil, m.VerifyError
	}
	return &service.VerifyResult{
		Status:            m.VerifyStatus,
		ProviderReference: "MOCK-" + reference,
	}, nil
}

// ──────────────────────────────────────────────
// MOCK PROVIDER CACHE
// ──────────────────────────────────────────────

// MockProviderCache is an in-memory ProviderCache.
type MockProviderCache struct {
	mu        sync.Mutex
	providers []redis.CachedProvider

	InvalidateCallCount int32
}

// NewMockProviderCache creates a new empty provider cache.
func NewMockProviderCache() *MockProviderCache {
	return &MockProviderCache{}
}

func (m *MockProviderCache) GetProviders(ctx context.Context) ([]redis.CachedProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.providers, nil
}

func (m *MockProviderCache) SetProviders(ctx context.Context, providers []redis.CachedProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = providers
	return nil
}

func (m *MockProviderCache) InvalidateProviders(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = nil
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE AND CACHES
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory geo index. FindNearby returns whatever
// Nearby holds, in order.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[string][2]float64
	Nearby    []redis.DestinationLocation
	Removed   []string

	LastRadiusKm float64

	UpdateError error
	FailFor     map[string]bool
}

// NewMockLocationStore creates an empty location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string][2]float64),
		FailFor:   make(map[string]bool),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, destinationID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if m.FailFor[destinationID] {
		return ErrMockTimeout
	}
	m.locations[destinationID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DestinationLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRadiusKm = radiusKm
	return append([]redis.DestinationLocation(nil), m.Nearby...), nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, destinationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, destinationID)
	m.Removed = append(m.Removed, destinationID)
	return nil
}

// Location returns the indexed coordinates of a destination.
func (m *MockLocationStore) Location(destinationID string) ([2]float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[destinationID]
	return loc, ok
}

// Indexed returns how many destinations are in the index.
func (m *MockLocationStore) Indexed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locations)
}

// MockDestinationCache is an in-memory DestinationCache.
type MockDestinationCache struct {
	mu           sync.Mutex
	destinations map[string]*redis.CachedDestination

	SetCallCount int32
}

// NewMockDestinationCache creates an empty destination cache.
func NewMockDestinationCache() *MockDestinationCache {
	return &MockDestinationCache{destinations: make(map[string]*redis.CachedDestination)}
}

func (m *MockDestinationCache) GetDestinationsBatch(ctx context.Context, ids []string) (map[string]*redis.CachedDestination, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*redis.CachedDestination)
	var missing []string
	for _, id := range ids {
		if c, ok := m.destinations[id]; ok {
			cp := *c
			found[id] = &cp
			continue
		}
		missing = append(missing, id)
	}
	return found, missing, nil
}

func (m *MockDestinationCache) SetDestinationsBatch(ctx context.Context, destinations []*redis.CachedDestination) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range destinations {
		cp := *d
		m.destinations[d.ID] = &cp
	}
	return nil
}

// Cached reports whether a destination is cached.
func (m *MockDestinationCache) Cached(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.destinations[id]
	return ok
}

// MockOverviewCache is an in-memory OverviewCache. Entries older than TTL
// against Clock are misses, like the Redis key expiring.
type MockOverviewCache struct {
	mu       sync.Mutex
	overview *domain.Overview
	storedAt time.Time

	TTL   time.Duration
	Clock *clock.Fixed

	GetError     error
	SetCallCount int32
}

func (m *MockOverviewCache) GetOverview(ctx context.Context) (*domain.Overview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	if m.overview == nil || m.Clock.Now().Sub(m.storedAt) >= m.TTL {
		return nil, nil
	}
	cp := *m.overview
	return &cp, nil
}

func (m *MockOverviewCache) SetOverview(ctx context.Context, overview *domain.Overview) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *overview
	m.overview = &cp
	m.storedAt = m.Clock.Now()
	return nil
}

// MockDashboardRepository returns a fixed overview and counts its calls.
type MockDashboardRepository struct {
	Result *domain.Overview
	Error  error

	OverviewCallCount int32
}

func (m *MockDashboardRepository) Overview(ctx context.Context) (*domain.Overview, error) {
	atomic.AddInt32(&m.OverviewCallCount, 1)
	if m.Error != nil {
		return nil, m.Error
	}
	cp := *m.Result
	return &cp, nil
}

// ──────────────────────────────────────────────
// MOCK GALLERY REPOSITORY
// ──────────────────────────────────────────────

// MockGalleryRepository keeps images in insertion order, leaving ordering
// to the caller.
type MockGalleryRepository struct {
	mu        sync.RWMutex
	galleries map[string]*domain.ImageGallery
}

// NewMockGalleryRepository creates an empty gallery repository.
func NewMockGalleryRepository() *MockGalleryRepository {
	return &MockGalleryRepository{galleries: make(map[string]*domain.ImageGallery)}
}

func (m *MockGalleryRepository) Create(ctx context.Context, gallery *domain.ImageGallery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.galleries {
		if g.Slug == gallery.Slug {
			return repository.ErrConflict
		}
	}
	cp := *gallery
	cp.Images = nil
	m.galleries[gallery.ID] = &cp
	return nil
}

func (m *MockGalleryRepository) GetByID(ctx context.Context, id string) (*domain.ImageGallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.galleries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	cp.Images = append([]domain.GalleryImage(nil), g.Images...)
	return &cp, nil
}

func (m *MockGalleryRepository) List(ctx context.Context, destinationID string) ([]*domain.ImageGallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ImageGallery
	for _, g := range m.galleries {
		if destinationID != "" && g.DestinationID != destinationID {
			continue
		}
		cp := *g
		cp.Images = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockGalleryRepository) AddImage(ctx context.Context, image *domain.GalleryImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.galleries[image.GalleryID]
	if !ok {
		return repository.ErrNotFound
	}
	g.Images = append(g.Images, *image)
	return nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)

// Compile-time interface checks.
var (
	_ repository.PaymentRepository     = (*MockPaymentRepository)(nil)
	_ repository.ProviderRepository    = (*MockProviderRepository)(nil)
	_ repository.BookingRepository     = (*MockBookingRepository)(nil)
	_ repository.PurchaseRepository    = (*MockPurchaseRepository)(nil)
	_ repository.TicketTypeRepository  = (*MockTicketTypeRepository)(nil)
	_ repository.DestinationRepository = (*MockDestinationRepository)(nil)
	_ repository.AddOnRepository       = (*MockAddOnRepository)(nil)
	_ redis.LockStoreInterface         = (*MockLockStore)(nil)
	_ service.Gateway                  = (*MockGateway)(nil)
	_ service.ProviderCache            = (*MockProviderCache)(nil)
	_ service.ActivityRecorder         = (*MockActivityRecorder)(nil)
	_ redis.LocationStoreInterface     = (*MockLocationStore)(nil)
	_ service.DestinationCache         = (*MockDestinationCache)(nil)
	_ service.OverviewCache            = (*MockOverviewCache)(nil)
	_ repository.DashboardRepository   = (*MockDashboardRepository)(nil)
	_ repository.GalleryRepository     = (*MockGalleryRepository)(nil)
	_ service.ResolutionListener       = (*MockResolutionListener)(nil)
)

// ──────────────────────────────────────────────
// MOCK RESOLUTION LISTENER
// ──────────────────────────────────────────────

// MockResolutionListener records the payments it is told about.
type MockResolutionListener struct {
	mu       sync.Mutex
	payments []*domain.Payment
}

func (m *MockResolutionListener) PaymentResolved(ctx context.Context, payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.payments = append(m.payments, &cp)
}

// Resolved returns the statuses seen, in order.
func (m *MockResolutionListener) Resolved() []domain.PaymentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := make([]domain.PaymentStatus, 0, len(m.payments))
	for _, p := range m.payments {
		statuses = append(statuses, p.Status)
	}
	return statuses
}
