package pubcontent

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// pubcontent.css, served at /public/pubcontent.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
