package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/contentlayer"
	"github.com/eringen/pubcontent/scaffold"
)

const templateRoot = "templates"

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	ModuleName  string
	SiteName    string
}

type newOptions struct {
	Parent string // directory the project is created in
	Tidy   bool   // run go mod tidy in the new project
	Out    io.Writer
}

// parseNewArgs reads `new [-dir parent] [-tidy=false] <module-or-name>`.
func parseNewArgs(args []string) (string, newOptions, error) {
	flags := flag.NewFlagSet("new", flag.ContinueOnError)
	parent := flags.String("dir", ".", "directory to create the project in")
	tidy := flags.Bool("tidy", true, "run go mod tidy after scaffolding")
	if err := flags.Parse(args); err != nil {
		return "", newOptions{}, err
	}
	if flags.NArg() != 1 {
		return "", newOptions{}, fmt.Errorf("usage: pubcontent new [-dir parent] [-tidy=false] <project-name>")
	}
	return flags.Arg(0), newOptions{Parent: *parent, Tidy: *tidy, Out: os.Stdout}, nil
}

// runNew writes a project from the embedded scaffold and builds its blog
// collection once, so a broken starter post fails here and not at serve time.
func runNew(ctx context.Context, name string, opts newOptions) error {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	dirName := path.Base(strings.TrimRight(name, "/"))
	if dirName == "." || dirName == "/" || dirName == "" {
		return fmt.Errorf("invalid project name %q", name)
	}
	projectDir := filepath.Join(opts.Parent, dirName)
	if _, err := os.Stat(projectDir); err == nil {
		return fmt.Errorf("directory %q already exists", projectDir)
	}

	data := scaffoldData{
		ProjectName: dirName,
		ModuleName:  name,
		SiteName:    toTitle(dirName),
	}
	fmt.Fprintf(opts.Out, "Creating new pubcontent project: %s\n\n", projectDir)

	err := fs.WalkDir(scaffold.Templates, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		outPath := filepath.Join(projectDir, scaffoldPath(p))
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if err := renderTemplate(p, outPath, data); err != nil {
			return err
		}
		fmt.Fprintf(opts.Out, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	if err := checkStarterContent(ctx, projectDir); err != nil {
		return err
	}

	if opts.Tidy {
		fmt.Fprintln(opts.Out, "\nResolving Go dependencies...")
		tidy := exec.CommandContext(ctx, "go", "mod", "tidy")
		tidy.Dir = projectDir
		tidy.Stdout = opts.Out
		tidy.Stderr = os.Stderr
		if err := tidy.Run(); err != nil {
			slog.Warn("go mod tidy failed; run it manually", "dir", projectDir, "err", err)
		}
	}

	fmt.Fprintf(opts.Out, "\nDone! Next steps:\n\n  cd %s\n  cp .env.example .env\n  pubcontent check\n  go run .\n\n", projectDir)
	fmt.Fprintln(opts.Out, "Write posts under src/content/blog; each needs title, date and description frontmatter.")
	return nil
}

// scaffoldPath maps an embedded template path to its path in the project:
// the templates/ prefix and .tmpl suffix go, dotenv becomes .env.example.
func scaffoldPath(p string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, templateRoot), "/")
	rel = strings.TrimSuffix(rel, ".tmpl")
	if path.Base(rel) == "dotenv" {
		rel = path.Join(path.Dir(rel), ".env.example")
	}
	return filepath.FromSlash(rel)
}

func renderTemplate(src, dst string, data scaffoldData) error {
	raw, err := scaffold.Templates.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	tmpl, err := template.New(path.Base(src)).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("execute template %s: %w", src, err)
	}
	return f.Close()
}

func checkStarterContent(ctx context.Context, projectDir string) error {
	builder := contentlayer.NewBuilder(slog.Default())
	res, err := builder.Build(ctx, os.DirFS(projectDir), content.BlogCollection, content.Blog)
	if err != nil {
		return fmt.Errorf("scaffolded blog collection: %w", err)
	}
	if len(res.Entries) == 0 {
		return fmt.Errorf("scaffolded blog collection is empty")
	}
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
