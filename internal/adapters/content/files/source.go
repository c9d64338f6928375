// Package files serves blog posts from markdown files with frontmatter.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const SourceName = "files"

// Extensions are tried in order; the first match owns the slug.
var extensions = []string{".mdx", ".md"}

type Source struct {
	fsys   fs.FS
	logger *slog.Logger
}

var _ ports.ContentSource = (*Source)(nil)

// New reads posts from dir on the local disk.
func New(dir string, logger *slog.Logger) *Source {
	return NewFS(os.DirFS(dir), logger)
}

func NewFS(fsys fs.FS, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{fsys: fsys, logger: logger.With(slog.String("source", SourceName))}
}

func (s *Source) Name() string { return SourceName }

func (s *Source) FetchOne(_ context.Context, slug string) (domain.Post, error) {
	if !validSlug(slug) {
		return domain.Post{}, domain.ErrPostNotFound
	}

	for _, ext := range extensions {
		name := slug + ext
		raw, err := fs.ReadFile(s.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Post{}, fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, name, err)
		}
		return s.parse(slug, raw)
	}

	return domain.Post{}, domain.ErrPostNotFound
}

// FetchMany collects posts in file name order and then applies q. Files
// with broken frontmatter are skipped.
func (s *Source) FetchMany(ctx context.Context, q domain.ListQuery) ([]domain.Post, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: list content dir: %v", domain.ErrSourceUnavailable, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := make(map[string]bool, len(entries))
	posts := make([]domain.Post, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		slug, ok := slugFromName(entry.Name())
		if !ok || seen[slug] {
			continue
		}

		post, err := s.FetchOne(ctx, slug)
		if err != nil {
			s.logger.Warn("skipping unreadable post", slog.String("slug", slug), slog.Any("error", err))
			continue
		}
		seen[slug] = true
		posts = append(posts, post)
	}

	return domain.ApplyListQuery(posts, q), nil
}

func (s *Source) parse(slug string, raw []byte) (domain.Post, error) {
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return domain.Post{}, fmt.Errorf("%w: post %s: %v", domain.ErrSourceUnavailable, slug, err)
	}

	post := meta.post(slug, body)
	post.Source = SourceName
	if !post.Date.Valid && post.Date.Raw != "" {
		s.logger.Warn("post has unparseable date", slog.String("slug", slug), slog.String("date", post.Date.Raw))
	}
	return post.Normalize(), nil
}

func slugFromName(name string) (string, bool) {
	ext := path.Ext(name)
	for _, known := range extensions {
		if ext == known {
			slug := strings.TrimSuffix(name, ext)
			return slug, validSlug(slug)
		}
	}
	return "", false
}

func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && fs.ValidPath(slug)
}
