package ports

import (
	"context"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

type RateLimiter interface {
	Check(ctx context.Context, identifier, action string) (domain.Decision, error)
	Sweep(ctx context.Context) error
	Supports(action string) bool
}

type LeadSubmitter interface {
	Submit(ctx context.Context, identifier string, form domain.LeadForm) (domain.Lead, error)
}
