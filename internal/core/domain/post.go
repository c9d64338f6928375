package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	DefaultAuthor      = "AVN Music Studio"
	DefaultAuthorTitle = "Content Team"
	DefaultAuthorImage = "/blog/avn-logo-publisher.png"

	InvalidDateLabel = "Invalid Date"

	wordsPerMinute = 200
)

// PostDate is a publication date that may have failed to parse. Raw keeps
// the text it was parsed from for diagnostics. Time keeps the zone it was
// written in so Display shows the author's calendar day.
type PostDate struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// ParsePostDate accepts the loose formats editors type, such as
// 2024-03-01, 2024/3/1, 01/15/2024, March 1, 2024 or RFC 3339 with an
// offset. Dates without a zone are read as UTC. Unparseable input yields
// an invalid PostDate, never an error.
func ParsePostDate(raw string) PostDate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PostDate{Raw: raw}
	}
	t, err := parseLooseDate(trimmed)
	if err != nil || t.IsZero() {
		return PostDate{Raw: raw}
	}
	return PostDate{Time: t, Valid: true, Raw: raw}
}

func parseLooseDate(s string) (t time.Time, err error) {
	// A parser panic is reported as an unparseable date.
	defer func() {
		if r := recover(); r != nil {
			t, err = time.Time{}, fmt.Errorf("unparseable date %q", s)
		}
	}()
	return dateparse.ParseIn(s, time.UTC)
}

func NewPostDate(t time.Time) PostDate {
	if t.IsZero() {
		return PostDate{}
	}
	return PostDate{Time: t, Valid: true, Raw: t.Format(time.RFC3339)}
}

// Display renders the date for readers, or the Invalid Date sentinel.
func (d PostDate) Display() string {
	if !d.Valid {
		return InvalidDateLabel
	}
	return d.Time.Format("January 2, 2006")
}

// Post is the normalized blog post shape shared by every content source.
type Post struct {
	Slug        string
	Title       string
	Description string
	Date        PostDate
	Content     string
	Image       string
	Author      string
	AuthorTitle string
	AuthorImage string
	ReadTime    int
	Source      string
}

// Normalize fills display defaults and recomputes the read time.
func (p Post) Normalize() Post {
	if strings.TrimSpace(p.Author) == "" {
		p.Author = DefaultAuthor
	}
	if strings.TrimSpace(p.AuthorTitle) == "" {
		p.AuthorTitle = DefaultAuthorTitle
	}
	if strings.TrimSpace(p.AuthorImage) == "" {
		p.AuthorImage = DefaultAuthorImage
	}
	p.ReadTime = ReadTime(p.Content)
	return p
}

// Summary drops the article body for list payloads. ReadTime is kept.
func (p Post) Summary() Post {
	p.Content = ""
	return p
}

// ReadTime estimates minutes of reading at 200 words per minute, rounded up.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

type ListQuery struct {
	ExcludeSlug string
	Limit       int
}

// SortPosts orders posts newest first. The sort is stable; posts with
// invalid dates keep their relative order after all dated posts.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].Date, posts[j].Date
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Time.After(b.Time)
	})
}

// ApplyListQuery sorts, drops the excluded slug and truncates to the limit,
// in that order. The input slice is not modified.
func ApplyListQuery(posts []Post, q ListQuery) []Post {
	out := make([]Post, 0, len(posts))
	out = append(out, posts...)
	SortPosts(out)

	if q.ExcludeSlug != "" {
		filtered := out[:0]
		for _, p := range out {
			if p.Slug != q.ExcludeSlug {
				filtered = append(filtered, p)
			}
		}
		out = filtered
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
