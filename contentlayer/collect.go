// Package contentlayer is the host side of content collections: it walks the
// files a collection's loader selects, splits off their frontmatter,
// validates it against the collection schema and renders the body.
package contentlayer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/zeebo/blake3"

	"github.com/eringen/pubcontent/content"
)

// File is a source file selected by a loader.
type File struct {
	// Path is relative to the loader base, slash separated.
	Path    string
	Source  []byte
	Digest  string
	ModTime time.Time
}

// Matcher reports whether a base-relative path belongs to a collection.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles a loader pattern. A leading "**/" also matches files
// directly under the base.
func NewMatcher(pattern string) (*Matcher, error) {
	pattern = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(pattern)), "/")
	if pattern == "" || pattern == "." {
		return nil, fmt.Errorf("contentlayer: empty loader pattern")
	}
	sources := []string{pattern}
	for p := pattern; strings.HasPrefix(p, "**/"); {
		p = strings.TrimPrefix(p, "**/")
		sources = append(sources, p)
	}
	m := &Matcher{}
	for _, src := range sources {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil, fmt.Errorf("contentlayer: compile pattern %q: %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Match reports whether rel matches.
func (m *Matcher) Match(rel string) bool {
	for _, g := range m.patterns {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Collect reads every file under loader.Base that matches loader.Pattern.
// Files and directories whose names start with "_" or "." are skipped.
// Results are sorted by path.
func Collect(ctx context.Context, fsys fs.FS, loader content.GlobLoader) ([]File, error) {
	matcher, err := NewMatcher(loader.Pattern)
	if err != nil {
		return nil, err
	}
	root := baseDir(loader.Base)

	info, err := fs.Stat(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("contentlayer: loader base %q: %w", loader.Base, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("contentlayer: loader base %q is not a directory", loader.Base)
	}

	var files []File
	walkErr := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p != root && ignored(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := relative(root, p)
		if !matcher.Match(rel) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("contentlayer: read %s: %w", p, err)
		}
		var mod time.Time
		if fi, err := d.Info(); err == nil {
			mod = fi.ModTime()
		}
		sum := blake3.Sum256(data)
		files = append(files, File{
			Path:    rel,
			Source:  data,
			Digest:  hex.EncodeToString(sum[:]),
			ModTime: mod,
		})
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("contentlayer: walk %q: %w", loader.Base, walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// baseDir turns a loader base such as "./src/content/blog" into an fs.FS path.
func baseDir(base string) string {
	b := path.Clean("/" + strings.ReplaceAll(strings.TrimSpace(base), "\\", "/"))
	b = strings.TrimPrefix(b, "/")
	if b == "" {
		return "."
	}
	return b
}

func relative(root, p string) string {
	if root == "." {
		return p
	}
	return strings.TrimPrefix(p, root+"/")
}

func ignored(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
