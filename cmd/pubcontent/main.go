package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

// version is set at build time via ldflags.
var version = "dev"

func setupLogging() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "check":
		err = runCheck(ctx, args)
	case "schema":
		err = runSchema(args)
	case "new":
		name, opts, perr := parseNewArgs(args)
		if perr != nil {
			fmt.Fprintln(os.Stderr, perr)
			os.Exit(1)
		}
		err = runNew(ctx, name, opts)
	case "version":
		fmt.Printf("pubcontent %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "err", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pubcontent - A blog engine whose posts are a validated content collection

Usage:
  pubcontent <command> [arguments]

Commands:
  serve         Build the blog collection and serve the site
  check         Validate every collection entry and report problems
  schema        Write the JSON Schema of every collection
  new <name>    Create a new pubcontent project (-dir parent, -tidy=false)
  version       Print the pubcontent version
  help          Show this help message

Examples:
  pubcontent check -root .
  pubcontent schema -out .schemas
  pubcontent new myblog`)
}
