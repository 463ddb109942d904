package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/views"
)

func siteConfigFromEnv() pubcontent.SiteConfig {
	ttl, err := time.ParseDuration(pubcontent.EnvOr("POST_CACHE_TTL", "5m"))
	if err != nil {
		slog.Warn("invalid POST_CACHE_TTL, using default", "err", err)
		ttl = 0
	}
	return pubcontent.SiteConfig{
		Name:                 pubcontent.EnvOr("SITE_NAME", "Blog"),
		URL:                  pubcontent.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:          pubcontent.EnvOr("SITE_DESCRIPTION", ""),
		Author:               pubcontent.EnvOr("SITE_AUTHOR", ""),
		Addr:                 pubcontent.EnvOr("ADDR", ":3000"),
		DatabasePath:         pubcontent.EnvOr("DATABASE_PATH", "data/content.db"),
		ContentRoot:          pubcontent.EnvOr("CONTENT_ROOT", "."),
		CollectionConfigPath: pubcontent.EnvOr("CONTENT_CONFIG", "content.hcl"),
		AdminPassword:        pubcontent.MustEnv("ADMIN_PASSWORD"),
		SessionSecret:        pubcontent.MustEnv("ADMIN_SESSION_SECRET"),
		CookieSecure:         pubcontent.EnvOr("COOKIE_SECURE", "") == "true",
		PostCacheTTL:         ttl,
	}
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	static := fs.String("static", "public", "directory of user static assets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := siteConfigFromEnv()
	app := pubcontent.New(cfg, views.Default(cfg),
		pubcontent.WithStaticDir(*static),
		pubcontent.WithLogger(slog.Default()),
	)
	defer app.Close()

	return app.Start(ctx)
}
