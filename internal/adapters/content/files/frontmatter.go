package files

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

// YAML blocks are fenced by "---", TOML blocks by "+++".
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

var byteOrderMark = []byte("\xef\xbb\xbf")

type metadata map[string]any

// splitFrontmatter separates the metadata block from the article body. A
// document without an opening fence has no metadata.
func splitFrontmatter(raw []byte) (metadata, string, error) {
	raw = bytes.TrimPrefix(raw, byteOrderMark)
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	meta := metadata{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta, formats...)
	if err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	if meta == nil {
		meta = metadata{}
	}

	return meta, strings.TrimLeft(string(body), "\n"), nil
}

func (m metadata) str(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (m metadata) date(key string) domain.PostDate {
	switch v := m[key].(type) {
	case nil:
		return domain.PostDate{}
	case time.Time:
		return domain.NewPostDate(v)
	case string:
		return domain.ParsePostDate(v)
	default:
		return domain.ParsePostDate(fmt.Sprint(v))
	}
}

func (m metadata) post(slug, body string) domain.Post {
	return domain.Post{
		Slug:        slug,
		Title:       m.str("title"),
		Description: m.str("description"),
		Date:        m.date("date"),
		Content:     body,
		Image:       m.str("image"),
		Author:      m.str("author"),
		AuthorTitle: m.str("authorTitle"),
		AuthorImage: m.str("authorImage"),
	}
}
