package pubcontent

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/eringen/pubcontent/content"
)

// SiteConfig holds all configuration for a pubcontent site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/content.db")

	ContentRoot          string // Directory loader bases are relative to (default ".")
	CollectionConfigPath string // Optional HCL collection overrides (default "content.hcl")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL time.Duration // Post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.ContentRoot == "" {
		c.ContentRoot = "."
	}
	if c.CollectionConfigPath == "" {
		c.CollectionConfigPath = "content.hcl"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("pubcontent: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("pubcontent: SessionSecret is required")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the logger used by the engine (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithContentFS reads collections from fsys instead of SiteConfig.ContentRoot.
func WithContentFS(fsys fs.FS) Option {
	return func(a *App) {
		a.contentFS = fsys
	}
}

// WithCollections replaces the collection registry (default content.Collections).
func WithCollections(r content.Registry) Option {
	return func(a *App) {
		a.Collections = r
	}
}

// collectionFile is the HCL layout of the collection override file:
//
//	collection "blog" {
//	  base    = "./posts"
//	  pattern = "**/*.md"
//	}
type collectionFile struct {
	Collections []collectionBlock `hcl:"collection,block"`
}

type collectionBlock struct {
	Name    string  `hcl:"name,label"`
	Base    *string `hcl:"base,optional"`
	Pattern *string `hcl:"pattern,optional"`
}

// LoadCollectionConfig applies loader overrides from the HCL file at path to
// r and returns the result. A missing file returns r unchanged. Schemas can
// not be changed from the file.
func LoadCollectionConfig(path string, r content.Registry) (content.Registry, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("pubcontent: collection config: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("pubcontent: parse %s: %w", path, diags)
	}

	var parsed collectionFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("pubcontent: decode %s: %w", path, diags)
	}

	out := r
	for _, block := range parsed.Collections {
		c, ok := out.Get(block.Name)
		if !ok {
			return nil, fmt.Errorf("pubcontent: %s: unknown collection %q", path, block.Name)
		}
		if block.Base != nil {
			c.Loader = c.Loader.WithBase(*block.Base)
		}
		if block.Pattern != nil {
			c.Loader = c.Loader.WithPattern(*block.Pattern)
		}
		out = out.With(block.Name, c)
	}
	return out, nil
}
