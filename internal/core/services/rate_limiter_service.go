package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const DefaultSweepInterval = time.Hour

// RateLimiterService applies per-action sliding window limits to callers.
type RateLimiterService struct {
	store         ports.RateLimitStore
	config        domain.RateLimitConfig
	longestWindow time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

type RateLimiterOption func(*RateLimiterService)

func WithClock(now func() time.Time) RateLimiterOption {
	return func(s *RateLimiterService) { s.now = now }
}

func WithRateLimiterLogger(logger *slog.Logger) RateLimiterOption {
	return func(s *RateLimiterService) { s.logger = logger }
}

// NewRateLimiterService validates the policy table up front so that a bad
// configuration stops the process at startup instead of at request time.
func NewRateLimiterService(store ports.RateLimitStore, cfg domain.RateLimitConfig, opts ...RateLimiterOption) (*RateLimiterService, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &RateLimiterService{
		store:  store,
		config: cfg.Clone(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.longestWindow = s.config.LongestWindow()

	return s, nil
}

func (s *RateLimiterService) Supports(action string) bool {
	_, ok := s.config[action]
	return ok
}

// Check admits or rejects one request for identifier under action.
func (s *RateLimiterService) Check(ctx context.Context, identifier, action string) (domain.Decision, error) {
	policy, ok := s.config[action]
	if !ok {
		return domain.Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownAction, action)
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		identifier = domain.AnonymousIdentifier
	}

	now := s.now()
	admitted, oldest, err := s.store.Admit(ctx, domain.RateKey(action, identifier), policy, now)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("rate limit check for %s: %w", action, err)
	}

	decision := domain.Decision{Allowed: admitted, Action: action, Identifier: identifier}
	if !admitted {
		decision.RetryAfter = oldest.Add(policy.Window).Sub(now)
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
	}
	return decision, nil
}

// Sweep drops timestamps older than the longest configured window and
// forgets keys that end up empty.
func (s *RateLimiterService) Sweep(ctx context.Context) error {
	removed, err := s.store.Sweep(ctx, s.longestWindow, s.now())
	if err != nil {
		return fmt.Errorf("rate limit sweep: %w", err)
	}
	s.logger.Debug("rate limit sweep finished", slog.Int("removed_keys", removed))
	return nil
}

// StartJanitor sweeps on a fixed interval until ctx is cancelled.
func (s *RateLimiterService) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultSweepInterval
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.Sweep(ctx); err != nil {
					s.logger.Error("rate limit sweep failed", slog.Any("error", err))
				}
			}
		}
	}()
}
