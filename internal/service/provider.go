package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/redis"
	"tours/internal/repository"
)

// ProviderCache is the subset of the Redis cache used for providers.
type ProviderCache interface {
	GetProviders(ctx context.Context) ([]redis.CachedProvider, error)
	SetProviders(ctx context.Context, providers []redis.CachedProvider) error
	InvalidateProviders(ctx context.Context) error
}

// ProviderService answers capability questions over the configured providers.
type ProviderService struct {
	providerRepo repository.ProviderRepository
	cache        ProviderCache
}

// NewProviderService creates a new ProviderService. cache may be nil.
func NewProviderService(providerRepo repository.ProviderRepository, cache ProviderCache) *ProviderService {
	return &ProviderService{
		providerRepo: providerRepo,
		cache:        cache,
	}
}

// Providers returns every provider ordered by priority, served from cache
// when possible.
func (s *ProviderService) Providers(ctx context.Context) ([]*domain.PaymentProvider, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProviders(ctx)
		if err != nil {
			log.FromContext(ctx).WithError(err).Warn("provider cache read failed")
		} else if cached != nil {
			return fromCachedProviders(cached), nil
		}
	}

	providers, err := s.providerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortProviders(providers)

	if s.cache != nil {
		if err := s.cache.SetProviders(ctx, toCachedProviders(providers)); err != nil {
			log.FromContext(ctx).WithError(err).Warn("provider cache write failed")
		}
	}
	return providers, nil
}

// Get returns one provider by code.
func (s *ProviderService) Get(ctx context.Context, code string) (*domain.PaymentProvider, error) {
	return s.providerRepo.GetByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
}

// Upsert validates and stores a provider, then drops the cached list.
func (s *ProviderService) Upsert(ctx context.Context, provider *domain.PaymentProvider) error {
	provider.Code = strings.ToLower(strings.TrimSpace(provider.Code))
	if provider.Code == "" || strings.TrimSpace(provider.Name) == "" {
		return ErrInvalidProvider
	}
	for i, c := range provider.Capabilities {
		if !validCurrency(c.Currency) {
			return fmt.Errorf("%w: capability %d: %v", ErrInvalidProvider, i, ErrInvalidCurrency)
		}
		if !c.Method.Valid() {
			return fmt.Errorf("%w: capability %d: %v", ErrInvalidProvider, i, ErrInvalidPaymentMethod)
		}
		if c.MinAmount < 0 || c.MaxAmount < 0 || (c.MaxAmount > 0 && c.MinAmount > c.MaxAmount) {
			return fmt.Errorf("%w: capability %d: bad amount bounds", ErrInvalidProvider, i)
		}
		provider.Capabilities[i].Currency = strings.ToUpper(c.Currency)
	}

	if err := s.providerRepo.Upsert(ctx, provider); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProviders(ctx); err != nil {
			log.FromContext(ctx).WithError(err).Warn("provider cache invalidation failed")
		}
	}
	return nil
}

// ListMethods returns the methods active providers accept for currency.
// Providers of each method are ordered by priority then code.
func (s *ProviderService) ListMethods(ctx context.Context, currency string) ([]domain.MethodOption, error) {
	if !validCurrency(currency) {
		return nil, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)

	providers, err := s.Providers(ctx)
	if err != nil {
		return nil, err
	}

	byMethod := map[domain.PaymentMethod]*domain.MethodOption{}
	for _, p := range providers {
		if !p.Active {
			continue
		}
		for _, c := range p.Capabilities {
			if !strings.EqualFold(c.Currency, currency) {
				continue
			}
			opt, ok := byMethod[c.Method]
			if !ok {
				opt = &domain.MethodOption{Method: c.Method, Currency: currency}
				byMethod[c.Method] = opt
			}
			opt.Providers = appendUnique(opt.Providers, p.Code)
			for _, ch := range c.Channels {
				opt.Channels = appendUnique(opt.Channels, ch)
			}
		}
	}

	options := make([]domain.MethodOption, 0, len(byMethod))
	for _, opt := range byMethod {
		options = append(options, *opt)
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Method < options[j].Method })
	return options, nil
}

// ResolveProvider picks the provider for a payment: the preferred one when it
// is active and capable, otherwise the first capable provider by priority.
func (s *ProviderService) ResolveProvider(ctx context.Context, currency string, method domain.PaymentMethod, amount float64, preferred string) (*domain.PaymentProvider, error) {
	providers, err := s.Providers(ctx)
	if err != nil {
		return nil, err
	}

	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred != "" {
		for _, p := range providers {
			if p.Code == preferred && p.Active && p.Supports(currency, method, amount) {
				return p, nil
			}
		}
	}

	for _, p := range providers {
		if p.Active && p.Supports(currency, method, amount) {
			return p, nil
		}
	}
	return nil, ErrNoProviderAvailable
}

// channelsFor returns the channels provider offers for currency and method.
func channelsFor(p *domain.PaymentProvider, currency string, method domain.PaymentMethod) []string {
	var channels []string
	for _, c := range p.Capabilities {
		if strings.EqualFold(c.Currency, currency) && c.Method == method {
			for _, ch := range c.Channels {
				channels = appendUnique(channels, ch)
			}
		}
	}
	return channels
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func toCachedProviders(providers []*domain.PaymentProvider) []redis.CachedProvider {
	out := make([]redis.CachedProvider, 0, len(providers))
	for _, p := range providers {
		out = append(out, redis.CachedProvider{
			Code:         p.Code,
			Name:         p.Name,
			Active:       p.Active,
			Sandbox:      p.Sandbox,
			Priority:     p.Priority,
			Capabilities: p.Capabilities,
		})
	}
	return out
}

func fromCachedProviders(cached []redis.CachedProvider) []*domain.PaymentProvider {
	out := make([]*domain.PaymentProvider, 0, len(cached))
	for _, c := range cached {
		out = append(out, &domain.PaymentProvider{
			Code:         c.Code,
			Name:         c.Name,
			Active:       c.Active,
			Sandbox:      c.Sandbox,
			Priority:     c.Priority,
			Capabilities: c.Capabilities,
		})
	}
	return out
}
