// Package mongo serves blog posts from a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const (
	SourceName        = "database"
	DefaultCollection = "blogposts"
)

type finder interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// postDocument is one stored post read field by field. Editors write these
// by hand, so a field of the wrong BSON type becomes its text form instead
// of failing the read. Date is either a BSON date or a free-form string.
type postDocument bson.M

type Source struct {
	coll   finder
	logger *slog.Logger
}

var _ ports.ContentSource = (*Source)(nil)

func New(db *mongo.Database, collection string, logger *slog.Logger) *Source {
	if collection == "" {
		collection = DefaultCollection
	}
	return newSource(db.Collection(collection), logger)
}

func newSource(coll finder, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{coll: coll, logger: logger.With(slog.String("source", SourceName))}
}

func (s *Source) Name() string { return SourceName }

func (s *Source) FetchOne(ctx context.Context, slug string) (domain.Post, error) {
	if strings.TrimSpace(slug) == "" {
		return domain.Post{}, domain.ErrPostNotFound
	}

	var doc postDocument
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("%w: find post %s: %v", domain.ErrSourceUnavailable, slug, err)
	}

	return doc.post(), nil
}

// FetchMany reads the collection in natural order and then applies q.
// Documents without a string slug cannot be fetched one by one and are
// left out; a document that fails to decode is skipped and logged.
func (s *Source) FetchMany(ctx context.Context, q domain.ListQuery) ([]domain.Post, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find posts: %v", domain.ErrSourceUnavailable, err)
	}
	defer cur.Close(ctx)

	var posts []domain.Post
	for cur.Next(ctx) {
		var doc postDocument
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warn("skipping undecodable post", slog.Any("error", err))
			continue
		}
		if strings.TrimSpace(doc.slug()) == "" {
			continue
		}
		posts = append(posts, doc.post())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: read posts: %v", domain.ErrSourceUnavailable, err)
	}

	return domain.ApplyListQuery(posts, q), nil
}

// slug is kept verbatim so the listed slug matches the FetchOne filter.
func (d postDocument) slug() string {
	slug, _ := d["slug"].(string)
	return slug
}

func (d postDocument) str(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (d postDocument) post() domain.Post {
	return domain.Post{
		Slug:        d.slug(),
		Title:       d.str("title"),
		Description: d.str("description"),
		Date:        documentDate(d["date"]),
		Content:     d.str("content"),
		Image:       d.str("image"),
		Author:      d.str("author"),
		AuthorTitle: d.str("authorTitle"),
		AuthorImage: d.str("authorImage"),
		Source:      SourceName,
	}.Normalize()
}

func documentDate(v interface{}) domain.PostDate {
	switch date := v.(type) {
	case nil:
		return domain.PostDate{}
	case primitive.DateTime:
		return domain.NewPostDate(date.Time().UTC())
	case time.Time:
		return domain.NewPostDate(date)
	case string:
		return domain.ParsePostDate(date)
	default:
		return domain.ParsePostDate(fmt.Sprint(date))
	}
}
