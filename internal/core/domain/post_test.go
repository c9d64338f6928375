package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostDate(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  time.Time
	}{
		{raw: "2024-03-01", valid: true, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2024/3/1", valid: true, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: " 2024-12-25 ", valid: true, want: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-03-01 18:30", valid: true, want: time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
		{raw: "2024-03-01T10:00:00+05:30", valid: true, want: time.Date(2024, 3, 1, 4, 30, 0, 0, time.UTC)},
		{raw: "March 1, 2024", valid: true, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "Jan 15, 2024", valid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "01/15/2024", valid: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "3/1/2024", valid: true, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "", valid: false},
		{raw: "next tuesday", valid: false},
		{raw: "2024-13-45", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got := ParsePostDate(tc.raw)
			assert.Equal(t, tc.valid, got.Valid)
			assert.Equal(t, tc.raw, got.Raw)
			if tc.valid {
				assert.True(t, tc.want.Equal(got.Time), "got %v", got.Time)
			}
		})
	}
}

func TestPostDate_Display(t *testing.T) {
	assert.Equal(t, "March 1, 2024", ParsePostDate("2024-03-01").Display())
	assert.Equal(t, InvalidDateLabel, ParsePostDate("soon").Display())
	assert.Equal(t, InvalidDateLabel, NewPostDate(time.Time{}).Display())
	assert.Equal(t, "January 15, 2024", ParsePostDate("01/15/2024").Display())
}

func TestPostDate_DisplayKeepsWrittenZone(t *testing.T) {
	d := ParsePostDate("2024-03-01T00:30:00+05:30")
	assert.True(t, d.Valid)
	assert.Equal(t, "March 1, 2024", d.Display())
	assert.True(t, time.Date(2024, 2, 29, 19, 0, 0, 0, time.UTC).Equal(d.Time))

	ist := time.FixedZone("IST", 5*60*60+30*60)
	assert.Equal(t, "March 1, 2024", NewPostDate(time.Date(2024, 3, 1, 0, 30, 0, 0, ist)).Display())
}

func TestSortPosts_MixedZones(t *testing.T) {
	posts := datedPosts(
		"utc-evening", "2024-02-29T20:00:00Z",
		"ist-morning", "2024-03-01T00:30:00+05:30",
	)
	SortPosts(posts)
	assert.Equal(t, []string{"utc-evening", "ist-morning"}, postSlugs(posts))
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 1, ReadTime(""))
	assert.Equal(t, 1, ReadTime("one two three"))
	assert.Equal(t, 1, ReadTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 5, ReadTime(strings.Repeat("word\n", 1000)))
}

func TestPost_Normalize(t *testing.T) {
	p := Post{Slug: "a", Content: strings.Repeat("beat ", 450)}.Normalize()
	assert.Equal(t, DefaultAuthor, p.Author)
	assert.Equal(t, DefaultAuthorTitle, p.AuthorTitle)
	assert.Equal(t, DefaultAuthorImage, p.AuthorImage)
	assert.Equal(t, 3, p.ReadTime)

	custom := Post{Author: "Vik", AuthorTitle: "Engineer", AuthorImage: "/vik.png"}.Normalize()
	assert.Equal(t, "Vik", custom.Author)
	assert.Equal(t, "Engineer", custom.AuthorTitle)
	assert.Equal(t, "/vik.png", custom.AuthorImage)

	summary := p.Summary()
	assert.Empty(t, summary.Content)
	assert.Equal(t, p.ReadTime, summary.ReadTime)
}

func datedPosts(pairs ...string) []Post {
	posts := make([]Post, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		posts = append(posts, Post{Slug: pairs[i], Date: ParsePostDate(pairs[i+1])})
	}
	return posts
}

func postSlugs(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func TestSortPosts(t *testing.T) {
	posts := datedPosts(
		"jan", "2024-01-01",
		"mar", "2024-03-01",
		"feb", "2024-02-01",
	)
	SortPosts(posts)
	assert.Equal(t, []string{"mar", "feb", "jan"}, postSlugs(posts))
}

func TestSortPosts_StableOnTies(t *testing.T) {
	posts := datedPosts(
		"first", "2024-02-01",
		"broken-1", "??",
		"second", "2024-02-01",
		"newest", "2024-05-01",
		"broken-2", "",
		"third", "2024-02-01",
	)
	SortPosts(posts)
	assert.Equal(t,
		[]string{"newest", "first", "second", "third", "broken-1", "broken-2"},
		postSlugs(posts))
}

func TestApplyListQuery(t *testing.T) {
	posts := datedPosts(
		"a", "2024-01-01",
		"b", "2024-04-01",
		"c", "2024-03-01",
		"d", "2024-02-01",
	)

	tests := []struct {
		name string
		q    ListQuery
		want []string
	}{
		{name: "no query", q: ListQuery{}, want: []string{"b", "c", "d", "a"}},
		{name: "limit", q: ListQuery{Limit: 2}, want: []string{"b", "c"}},
		{name: "exclude", q: ListQuery{ExcludeSlug: "c"}, want: []string{"b", "d", "a"}},
		{name: "exclude before limit", q: ListQuery{ExcludeSlug: "b", Limit: 2}, want: []string{"c", "d"}},
		{name: "exclude unknown", q: ListQuery{ExcludeSlug: "zz", Limit: 3}, want: []string{"b", "c", "d"}},
		{name: "limit above size", q: ListQuery{Limit: 10}, want: []string{"b", "c", "d", "a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyListQuery(posts, tc.q)
			require.LessOrEqual(t, len(got), len(posts))
			assert.Equal(t, tc.want, postSlugs(got))
		})
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, postSlugs(posts), "input must not be reordered")
}
