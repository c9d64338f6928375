package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

// ContentPolicy decides what happens when the primary source misses.
type ContentPolicy string

const (
	// PolicyFallback consults the secondary source after a primary miss or
	// failure, and lists the union of both sources.
	PolicyFallback ContentPolicy = "fallback"
	// PolicyFailClosed only ever consults the primary source.
	PolicyFailClosed ContentPolicy = "fail-closed"
)

func ParseContentPolicy(s string) (ContentPolicy, error) {
	switch ContentPolicy(s) {
	case PolicyFallback, PolicyFailClosed:
		return ContentPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown content policy %q", s)
	}
}

// ContentService resolves blog posts across a primary and an optional
// secondary source, applying the same policy to single fetches and lists.
type ContentService struct {
	primary   ports.ContentSource
	secondary ports.ContentSource
	policy    ContentPolicy
	logger    *slog.Logger
}

var _ ports.ContentResolver = (*ContentService)(nil)

func NewContentService(primary, secondary ports.ContentSource, policy ContentPolicy, logger *slog.Logger) (*ContentService, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary content source is required")
	}
	if _, err := ParseContentPolicy(string(policy)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		primary:   primary,
		secondary: secondary,
		policy:    policy,
		logger:    logger,
	}, nil
}

func (s *ContentService) sources() []ports.ContentSource {
	if s.policy == PolicyFallback && s.secondary != nil {
		return []ports.ContentSource{s.primary, s.secondary}
	}
	return []ports.ContentSource{s.primary}
}

// GetPost returns domain.ErrPostNotFound when no consulted source has the
// slug. Source failures are logged and treated as misses.
func (s *ContentService) GetPost(ctx context.Context, slug string) (domain.Post, error) {
	for _, source := range s.sources() {
		post, err := source.FetchOne(ctx, slug)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, domain.ErrPostNotFound) {
			s.logger.Error("content source failed",
				slog.String("source", source.Name()),
				slog.String("slug", slug),
				slog.Any("error", err))
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

// ListPosts never fails: an unreachable source contributes nothing. On a
// slug present in several sources the earlier source wins.
func (s *ContentService) ListPosts(ctx context.Context, q domain.ListQuery) []domain.Post {
	seen := make(map[string]bool)
	var merged []domain.Post

	for _, source := range s.sources() {
		posts, err := source.FetchMany(ctx, domain.ListQuery{})
		if err != nil {
			s.logger.Error("content source list failed",
				slog.String("source", source.Name()),
				slog.Any("error", err))
			continue
		}
		for _, post := range posts {
			if seen[post.Slug] {
				continue
			}
			seen[post.Slug] = true
			merged = append(merged, post)
		}
	}

	return domain.ApplyListQuery(merged, q)
}
