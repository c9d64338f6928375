// Package ports declares the contracts between the core services and their adapters.
package ports

import (
	"context"
	"time"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

// RateLimitStore keeps the admission timestamps of each rate limit key.
//
// Admit must run the prune, count, compare and append steps atomically for
// a key: two concurrent callers must never both observe the same stale
// count. On rejection it reports the oldest timestamp still in the window.
type RateLimitStore interface {
	Admit(ctx context.Context, key string, policy domain.ActionPolicy, now time.Time) (admitted bool, oldest time.Time, err error)
	Sweep(ctx context.Context, maxWindow time.Duration, now time.Time) (removed int, err error)
}

type LeadRepository interface {
	Insert(ctx context.Context, lead domain.Lead) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
