package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionsDeclaresBlog(t *testing.T) {
	assert.Equal(t, []string{"blog"}, Collections.Names())

	blog, ok := Collections.Get("blog")
	require.True(t, ok)
	assert.Equal(t, "**/*.md", blog.Loader.Pattern)
	assert.Equal(t, "./src/content/blog", blog.Loader.Base)
	assert.Same(t, BlogSchema, blog.Schema)

	_, ok = Collections.Get("docs")
	assert.False(t, ok)
}

func TestRegistryWithLeavesReceiverUntouched(t *testing.T) {
	moved := Blog
	moved.Loader = Blog.Loader.WithBase("content/posts")

	next := Collections.With(BlogCollection, moved)

	assert.Equal(t, "content/posts", next[BlogCollection].Loader.Base)
	assert.Equal(t, "./src/content/blog", Collections[BlogCollection].Loader.Base)
	assert.Equal(t, "**/*.md", next[BlogCollection].Loader.Pattern)
}

func TestGlobLoaderCopies(t *testing.T) {
	l := Glob("*.md", "a")
	m := l.WithPattern("**/*.markdown")
	assert.Equal(t, "*.md", l.Pattern)
	assert.Equal(t, "**/*.markdown", m.Pattern)
	assert.Equal(t, "a", m.Base)
}
