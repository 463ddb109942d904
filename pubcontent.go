// Package pubcontent is a blog engine built with Go, Echo, and templ whose
// posts come from a content collection: markdown files on disk whose
// frontmatter is validated against the collection schema at build time.
//
// Users provide their own templ components via the ViewFuncs struct (package
// views ships a default set); pubcontent handles building the collection,
// storage, handlers and middleware.
package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/contentlayer"
)

// ViewFuncs holds the templ components the engine renders pages with.
type ViewFuncs struct {
	Home           func(posts []BlogPost, activeTag string, tags []string) templ.Component
	BlogSection    func(posts []BlogPost, activeTag string, tags []string) templ.Component
	Post           func(post BlogPost, related []BlogPost) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(reports []BuildReport, posts []BlogPost, message string, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central pubcontent application. It wires together the
// collection builder, store, cache, handlers, middleware and templates.
type App struct {
	Config      SiteConfig
	Echo        *echo.Echo
	Store       *Store
	Cache       *PostCache
	Views       ViewFuncs
	Logger      *slog.Logger
	Collections content.Registry
	Builder     *contentlayer.Builder

	loginLimiter   *Limiter
	rebuildLimiter *Limiter
	contentFS      fs.FS
	customRoutes   []func(*App)
	staticDir      string
	initialized    bool

	buildMu   sync.Mutex
	reportsMu sync.RWMutex
	reports   map[string]BuildReport
}

// New creates a new pubcontent App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:      cfg,
		Echo:        echo.New(),
		Views:       views,
		Logger:      slog.Default(),
		Collections: content.Collections,
		staticDir:   "public",
		reports:     map[string]BuildReport{},
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.contentFS == nil {
		a.contentFS = os.DirFS(a.Config.ContentRoot)
	}
	a.Builder = contentlayer.NewBuilder(a.Logger)
	return a
}

// Init opens the store, builds the blog collection and registers middleware
// and routes. A collection with invalid entries makes Init fail.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if err := a.Config.validate(); err != nil {
		return err
	}
	if a.Views.Home == nil || a.Views.Post == nil || a.Views.NotFound == nil || a.Views.ServerError == nil {
		return fmt.Errorf("pubcontent: Home, Post, NotFound and ServerError views are required")
	}

	registry, err := LoadCollectionConfig(a.Config.CollectionConfigPath, a.Collections)
	if err != nil {
		return err
	}
	if _, ok := registry.Get(content.BlogCollection); !ok {
		return fmt.Errorf("pubcontent: collection %q is not defined", content.BlogCollection)
	}
	a.Collections = registry

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubcontent: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, content.BlogCollection, a.Config.PostCacheTTL)

	a.loginLimiter = NewLimiter(5, time.Minute)
	a.rebuildLimiter = NewLimiter(10, time.Minute)

	if _, err := a.Rebuild(ctx); err != nil {
		return fmt.Errorf("pubcontent: build: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Rebuild reads the blog collection from disk again. When every entry is
// valid the store is synced to it; otherwise the previous entries stay in
// place and the returned report lists the rejected files.
func (a *App) Rebuild(ctx context.Context) (BuildReport, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	name := content.BlogCollection
	coll, _ := a.Collections.Get(name)
	log := a.Logger.With("collection", name)

	report := BuildReport{Collection: name, Started: time.Now()}
	res, err := a.Builder.Build(ctx, a.contentFS, name, coll)
	if res != nil {
		report.Started = res.Started
		report.Duration = res.Duration
		report.Entries = len(res.Entries)
		report.Failures = res.Failures
	}
	if err != nil {
		report.Err = err.Error()
		a.setReport(report)
		for _, f := range report.Failures {
			log.Error("invalid entry", "file", f.Path, "issues", f.Error())
		}
		return report, err
	}

	posts := make([]BlogPost, 0, len(res.Entries))
	for _, e := range res.Entries {
		p, err := PostFromEntry(e)
		if err != nil {
			report.Err = err.Error()
			a.setReport(report)
			return report, err
		}
		posts = append(posts, p)
	}

	stats, err := a.Store.Sync(ctx, name, posts)
	if err != nil {
		report.Err = err.Error()
		a.setReport(report)
		return report, fmt.Errorf("pubcontent: sync %s: %w", name, err)
	}
	report.Sync = stats
	a.Cache.Invalidate()
	a.setReport(report)

	log.Info("collection synced",
		"entries", report.Entries,
		"added", stats.Added, "updated", stats.Updated,
		"unchanged", stats.Unchanged, "removed", stats.Removed,
		"duration", report.Duration)
	return report, nil
}

func (a *App) setReport(r BuildReport) {
	a.reportsMu.Lock()
	a.reports[r.Collection] = r
	a.reportsMu.Unlock()
}

// Reports returns the latest build report of every collection, by name.
func (a *App) Reports() []BuildReport {
	a.reportsMu.RLock()
	defer a.reportsMu.RUnlock()
	out := make([]BuildReport, 0, len(a.reports))
	for _, name := range a.Collections.Names() {
		if r, ok := a.reports[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Start initializes the app if needed and serves HTTP until ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets ship embedded; everything else under /public comes
	// from the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/pubcontent.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/*", a.handlePost)

	// Collection API
	e.GET("/api/collections/", a.handleCollections)
	e.GET("/api/collections/:name/", a.handleCollectionEntries)
	e.GET("/api/collections/:name/schema.json", a.handleCollectionSchema)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/rebuild/", a.handleAdminRebuild)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.rebuildLimiter != nil {
		a.rebuildLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
