package content

import (
	"fmt"
	"time"
)

// BlogCollection is the registry key of the blog collection.
const BlogCollection = "blog"

// BlogSchema is the frontmatter every blog post must carry.
var BlogSchema = Object(
	String("title"),
	Date("date"),
	String("description"),
	StringSlice("tags").WithDefault([]string{}),
)

// BlogLoader picks up every markdown file under src/content/blog.
var BlogLoader = Glob("**/*.md", "./src/content/blog")

// Blog is the blog collection definition.
var Blog = DefineCollection(BlogLoader, BlogSchema)

// Collections is every collection the site defines.
var Collections = Registry{
	BlogCollection: Blog,
}

// BlogPostMetadata is the typed frontmatter of a blog post.
type BlogPostMetadata struct {
	Title       string    `json:"title" yaml:"title"`
	Date        time.Time `json:"date" yaml:"date"`
	Description string    `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
}

// DecodeBlogPostMetadata validates raw frontmatter against BlogSchema.
func DecodeBlogPostMetadata(raw map[string]any) (BlogPostMetadata, error) {
	rec, err := BlogSchema.Parse(raw)
	if err != nil {
		return BlogPostMetadata{}, err
	}
	return BlogPostMetadataFromRecord(rec)
}

// BlogPostMetadataFromRecord converts a record produced by BlogSchema.Parse.
func BlogPostMetadataFromRecord(rec Record) (BlogPostMetadata, error) {
	title, ok := rec["title"].(string)
	if !ok {
		return BlogPostMetadata{}, fmt.Errorf("content: record title is %T", rec["title"])
	}
	date, ok := rec["date"].(time.Time)
	if !ok {
		return BlogPostMetadata{}, fmt.Errorf("content: record date is %T", rec["date"])
	}
	description, ok := rec["description"].(string)
	if !ok {
		return BlogPostMetadata{}, fmt.Errorf("content: record description is %T", rec["description"])
	}
	tags, ok := rec["tags"].([]string)
	if !ok {
		return BlogPostMetadata{}, fmt.Errorf("content: record tags is %T", rec["tags"])
	}
	return BlogPostMetadata{
		Title:       title,
		Date:        date,
		Description: description,
		Tags:        append([]string{}, tags...),
	}, nil
}
