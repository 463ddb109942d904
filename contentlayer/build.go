package contentlayer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/markdown"
)

const (
	validationFailedCode = "CONTENT_VALIDATION_FAILED"
	parseFailedCode      = "content.frontmatter"
)

// ErrInvalidEntries is the root cause of a build rejected for invalid entries.
var ErrInvalidEntries = errors.New("collection has invalid entries")

// Entry is a validated, rendered collection entry.
type Entry struct {
	ID         string
	Collection string
	FilePath   string
	Data       content.Record
	Body       string
	Rendered   markdown.Rendered
	Digest     string
	ModTime    time.Time
}

// Issue is one problem found in an entry.
type Issue struct {
	Field   string
	Code    string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// EntryError lists the problems of a single file.
type EntryError struct {
	Path   string
	Issues []Issue
}

func (e EntryError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return e.Path + ": " + strings.Join(parts, "; ")
}

// Result is the outcome of building one collection.
type Result struct {
	Collection string
	Entries    []Entry
	Failures   []EntryError
	Started    time.Time
	Duration   time.Duration
}

// OK reports whether every file was accepted.
func (r *Result) OK() bool {
	return r != nil && len(r.Failures) == 0
}

// Builder turns a collection's files into entries.
type Builder struct {
	Renderer *markdown.Renderer
	Logger   *slog.Logger
}

// NewBuilder returns a Builder with a default renderer.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		Renderer: markdown.NewRenderer(markdown.Options{}),
		Logger:   logger,
	}
}

// Build loads, validates and renders every file of c. The returned Result is
// always populated when the files could be collected; when any file fails
// validation the error is a go-errors validation error and Result.Failures
// lists every rejected file.
func (b *Builder) Build(ctx context.Context, fsys fs.FS, name string, c content.Collection) (*Result, error) {
	started := time.Now()
	log := b.Logger.With("collection", name)

	files, err := Collect(ctx, fsys, c.Loader)
	if err != nil {
		return nil, err
	}

	res := &Result{Collection: name, Started: started}
	index := make(map[string]int, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, body, err := ParseFrontmatter(f.Source)
		if err != nil {
			res.Failures = append(res.Failures, EntryError{
				Path:   f.Path,
				Issues: []Issue{{Code: parseFailedCode, Message: err.Error()}},
			})
			continue
		}

		data, err := c.Schema.Parse(raw)
		if err != nil {
			res.Failures = append(res.Failures, EntryError{Path: f.Path, Issues: issuesFrom(err)})
			continue
		}

		rendered, err := b.Renderer.Render(body)
		if err != nil {
			return nil, fmt.Errorf("contentlayer: %s: %w", f.Path, err)
		}

		entry := Entry{
			ID:         GenerateID(f.Path, raw),
			Collection: name,
			FilePath:   f.Path,
			Data:       data,
			Body:       string(body),
			Rendered:   rendered,
			Digest:     f.Digest,
			ModTime:    f.ModTime,
		}
		if i, dup := index[entry.ID]; dup {
			log.Warn("duplicate entry id, later file wins",
				"id", entry.ID, "previous", res.Entries[i].FilePath, "file", f.Path)
			res.Entries[i] = entry
			continue
		}
		index[entry.ID] = len(res.Entries)
		res.Entries = append(res.Entries, entry)
	}

	res.Duration = time.Since(started)
	log.Debug("collection built",
		"entries", len(res.Entries), "failures", len(res.Failures), "duration", res.Duration)

	if len(res.Failures) > 0 {
		msg := fmt.Sprintf("collection %q: %d invalid entries", name, len(res.Failures))
		return res, goerrors.Wrap(ErrInvalidEntries, goerrors.CategoryValidation, msg).
			WithTextCode(validationFailedCode)
	}
	return res, nil
}

// BuildAll builds every collection in r, stopping at the first collection
// that cannot be collected. Validation failures do not stop the loop; the
// last one is returned alongside all results.
func (b *Builder) BuildAll(ctx context.Context, fsys fs.FS, r content.Registry) (map[string]*Result, error) {
	out := make(map[string]*Result, len(r))
	var buildErr error
	for _, name := range r.Names() {
		res, err := b.Build(ctx, fsys, name, r[name])
		if res == nil {
			return out, err
		}
		out[name] = res
		if err != nil {
			buildErr = err
		}
	}
	return out, buildErr
}

// IsValidationFailure reports whether err came from rejected entries.
func IsValidationFailure(err error) bool {
	return err != nil && goerrors.IsCategory(err, goerrors.CategoryValidation)
}

func issuesFrom(err error) []Issue {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []Issue{{Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(errs))
	for field, fieldErr := range errs {
		issue := Issue{Field: field, Message: fieldErr.Error()}
		var verr validation.Error
		if errors.As(fieldErr, &verr) {
			issue.Code = verr.Code()
			issue.Message = verr.Message()
		}
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return issues
}
