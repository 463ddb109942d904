package content

import (
	"sort"
	"strings"
)

// GlobLoader selects the files of a collection: every file under Base whose
// slash-separated path relative to Base matches Pattern.
type GlobLoader struct {
	Pattern string
	Base    string
}

// Glob describes a loader rooted at base.
func Glob(pattern, base string) GlobLoader {
	return GlobLoader{Pattern: pattern, Base: base}
}

// WithBase returns a copy of l rooted at base.
func (l GlobLoader) WithBase(base string) GlobLoader {
	l.Base = base
	return l
}

// WithPattern returns a copy of l matching pattern.
func (l GlobLoader) WithPattern(pattern string) GlobLoader {
	l.Pattern = pattern
	return l
}

// Collection pairs a loader with the schema its entries must satisfy.
type Collection struct {
	Loader GlobLoader
	Schema *Schema
}

// DefineCollection declares a collection.
func DefineCollection(loader GlobLoader, schema *Schema) Collection {
	return Collection{Loader: loader, Schema: schema}
}

// Registry maps collection names to their definitions.
type Registry map[string]Collection

// Names returns the registered collection names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named collection.
func (r Registry) Get(name string) (Collection, bool) {
	c, ok := r[strings.TrimSpace(name)]
	return c, ok
}

// With returns a copy of r with name set to c. The receiver is left untouched.
func (r Registry) With(name string, c Collection) Registry {
	out := make(Registry, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[name] = c
	return out
}
