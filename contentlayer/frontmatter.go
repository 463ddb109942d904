package contentlayer

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// ParseFrontmatter splits a YAML frontmatter block from src. A file without
// frontmatter yields an empty map and the whole file as body.
func ParseFrontmatter(src []byte) (map[string]any, []byte, error) {
	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(src), &raw, yamlFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, body, nil
}

// GenerateID derives an entry id. A string "slug" in the frontmatter wins;
// otherwise the base-relative path without extension is used, each segment
// slugified.
func GenerateID(rel string, raw map[string]any) string {
	if slug, ok := raw["slug"].(string); ok {
		if s := strings.Trim(strings.TrimSpace(slug), "/"); s != "" {
			return s
		}
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	segments := strings.Split(rel, "/")
	out := segments[:0]
	for _, seg := range segments {
		if s := Slugify(seg); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Slugify converts a title or file name to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
