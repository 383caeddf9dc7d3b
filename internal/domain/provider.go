package domain

import (
	"sort"
	"strings"
)

// Capability describes one currency/method combination a provider accepts.
type Capability struct {
	Currency  string        `json:"currency"`
	Method    PaymentMethod `json:"method"`
	Channels  []string      `json:"channels,omitempty"`
	MinAmount float64       `json:"min_amount,omitempty"`
	MaxAmount float64       `json:"max_amount,omitempty"`
}

// Matches reports whether the capability accepts the given payment.
// A zero bound is unbounded.
func (c Capability) Matches(currency string, method PaymentMethod, amount float64) bool {
	if !strings.EqualFold(c.Currency, currency) {
		return false
	}
	if !strings.EqualFold(string(c.Method), string(method)) {
		return false
	}
	if c.MinAmount > 0 && amount < c.MinAmount {
		return false
	}
	if c.MaxAmount > 0 && amount > c.MaxAmount {
		return false
	}
	return true
}

// PaymentProvider is a configured payment gateway integration.
type PaymentProvider struct {
	Code         string
	Name         string
	Active       bool
	Sandbox      bool
	Priority     int
	Capabilities []Capability
}

// Supports reports whether the provider accepts the payment. Amount checks are
// skipped when amount is zero, which is how method listings query it.
func (p *PaymentProvider) Supports(currency string, method PaymentMethod, amount float64) bool {
	for _, c := range p.Capabilities {
		if amount == 0 {
			c.MinAmount, c.MaxAmount = 0, 0
		}
		if c.Matches(currency, method, amount) {
			return true
		}
	}
	return false
}

// SortProviders orders providers by priority, then code.
func SortProviders(providers []*PaymentProvider) {
	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].Priority != providers[j].Priority {
			return providers[i].Priority < providers[j].Priority
		}
		return providers[i].Code < providers[j].Code
	})
}

// MethodOption is one entry of the payment-method listing.
type MethodOption struct {
	Method    PaymentMethod
	Currency  string
	Providers []string
	Channels  []string
}
