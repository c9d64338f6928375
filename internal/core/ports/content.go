package ports

import (
	"context"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

// ContentSource is one backing corpus of blog posts.
//
// FetchOne returns domain.ErrPostNotFound for an unknown slug and wraps
// domain.ErrSourceUnavailable on infrastructure failures.
type ContentSource interface {
	Name() string
	FetchOne(ctx context.Context, slug string) (domain.Post, error)
	FetchMany(ctx context.Context, q domain.ListQuery) ([]domain.Post, error)
}

type ContentResolver interface {
	GetPost(ctx context.Context, slug string) (domain.Post, error)
	ListPosts(ctx context.Context, q domain.ListQuery) []domain.Post
}
