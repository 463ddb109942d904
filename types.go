package pubcontent

import (
	"time"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/contentlayer"
	"github.com/eringen/pubcontent/markdown"
)

// DateLayout is how post dates are stored and shown in URLs and sitemaps.
const DateLayout = "2006-01-02"

// BlogPost is a blog collection entry as stored in SQLite and rendered by templates.
type BlogPost struct {
	ID          string
	Title       string
	Date        time.Time
	Description string
	Tags        []string
	Body        string
	HTML        string
	Headings    []markdown.Heading
	FilePath    string
	Digest      string
	Link        string
}

// ReadingTime estimates minutes to read the post.
func (p BlogPost) ReadingTime() int {
	return markdown.ReadingTime(p.Body)
}

// PostLink is the site path of the post with the given id.
func PostLink(id string) string {
	return "/blog/" + id + "/"
}

// PostFromEntry converts a validated blog entry.
func PostFromEntry(e contentlayer.Entry) (BlogPost, error) {
	meta, err := content.BlogPostMetadataFromRecord(e.Data)
	if err != nil {
		return BlogPost{}, err
	}
	return BlogPost{
		ID:          e.ID,
		Title:       meta.Title,
		Date:        meta.Date,
		Description: meta.Description,
		Tags:        meta.Tags,
		Body:        e.Body,
		HTML:        e.Rendered.HTML,
		Headings:    e.Rendered.Headings,
		FilePath:    e.FilePath,
		Digest:      e.Digest,
		Link:        PostLink(e.ID),
	}, nil
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// BuildReport summarises the last collection build for the admin dashboard.
type BuildReport struct {
	Collection string
	Started    time.Time
	Duration   time.Duration
	Entries    int
	Failures   []contentlayer.EntryError
	Sync       SyncStats
	Err        string
}

// OK reports whether the build accepted every file.
func (r BuildReport) OK() bool {
	return r.Err == "" && len(r.Failures) == 0
}
