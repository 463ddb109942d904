package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/contentlayer"
)

func loadRegistry(config string) (content.Registry, error) {
	return pubcontent.LoadCollectionConfig(config, content.Collections)
}

// runCheck builds every collection without touching the database and
// prints each rejected file.
func runCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	root := fs.String("root", pubcontent.EnvOr("CONTENT_ROOT", "."), "directory loader bases are relative to")
	config := fs.String("config", pubcontent.EnvOr("CONTENT_CONFIG", "content.hcl"), "collection override file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := loadRegistry(*config)
	if err != nil {
		return err
	}

	builder := contentlayer.NewBuilder(slog.Default())
	results, buildErr := builder.BuildAll(ctx, os.DirFS(*root), registry)

	for _, name := range registry.Names() {
		res, ok := results[name]
		if !ok {
			continue
		}
		var size int
		for _, e := range res.Entries {
			size += len(e.Body)
		}
		fmt.Printf("%s: %d entries (%s) in %s\n", name, len(res.Entries), humanize.Bytes(uint64(size)), res.Duration)
		for _, f := range res.Failures {
			fmt.Printf("  %s\n", f.Path)
			for _, issue := range f.Issues {
				fmt.Printf("    %s\n", issue)
			}
		}
	}
	if buildErr != nil {
		return buildErr
	}
	return nil
}

// runSchema writes <name>.schema.json for every collection so editors can
// validate frontmatter.
func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	out := fs.String("out", ".", "output directory")
	config := fs.String("config", pubcontent.EnvOr("CONTENT_CONFIG", "content.hcl"), "collection override file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := loadRegistry(*config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for _, name := range registry.Names() {
		schema := registry[name].Schema
		if _, err := schema.Compile(); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		data, err := json.MarshalIndent(schema.JSONSchema(), "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(*out, name+".schema.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Printf("  wrote %s\n", path)
	}
	return nil
}
