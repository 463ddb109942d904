package pubcontent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

const helloPost = `---
title: Hello
date: 2024-01-15
description: First post
tags: [go, web]
---
# Hello

Body text.
`

func textComponent(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func stubViews() ViewFuncs {
	list := func(posts []BlogPost, activeTag string, tags []string) templ.Component {
		titles := make([]string, len(posts))
		for i, p := range posts {
			titles[i] = p.Title
		}
		return textComponent("posts=%s tag=%s tags=%s", strings.Join(titles, ","), activeTag, strings.Join(tags, ","))
	}
	return ViewFuncs{
		Home:        list,
		BlogSection: func(posts []BlogPost, activeTag string, tags []string) templ.Component { return textComponent("section") },
		Post: func(post BlogPost, related []BlogPost) templ.Component {
			return textComponent("post=%s related=%d html=%s", post.Title, len(related), post.HTML)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return textComponent("login error=%t", showError)
		},
		AdminDashboard: func(reports []BuildReport, posts []BlogPost, msg, csrfToken string) templ.Component {
			return textComponent("dashboard reports=%d posts=%d msg=%s", len(reports), len(posts), msg)
		},
		NotFound:    func() templ.Component { return textComponent("not found") },
		ServerError: func() templ.Component { return textComponent("server error") },
	}
}

func newTestApp(t *testing.T, fsys fstest.MapFS) *App {
	t.Helper()
	dir := t.TempDir()
	app := New(SiteConfig{
		Name:                 "Test Blog",
		URL:                  "https://example.com",
		AdminPassword:        "secret",
		SessionSecret:        "0123456789abcdef0123456789abcdef",
		DatabasePath:         filepath.Join(dir, "content.db"),
		CollectionConfigPath: filepath.Join(dir, "content.hcl"),
	}, stubViews(),
		WithContentFS(fsys),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() { app.Close() })
	return app
}

func initTestApp(t *testing.T) (*App, fstest.MapFS) {
	t.Helper()
	fsys := fstest.MapFS{
		"src/content/blog/hello.md": {Data: []byte(helloPost)},
	}
	app := newTestApp(t, fsys)
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return app, fsys
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestInitRejectsInvalidEntries(t *testing.T) {
	app := newTestApp(t, fstest.MapFS{
		"src/content/blog/bad.md": {Data: []byte("---\ntitle: No date\ndescription: x\n---\nbody\n")},
	})
	err := app.Init(context.Background())
	if err == nil {
		t.Fatal("expected Init to fail")
	}
	reports := app.Reports()
	if len(reports) != 1 || len(reports[0].Failures) != 1 {
		t.Fatalf("expected one failure in report, got %+v", reports)
	}
	if reports[0].Failures[0].Path != "bad.md" {
		t.Errorf("unexpected failure path %q", reports[0].Failures[0].Path)
	}
}

func TestInitRequiresViews(t *testing.T) {
	app := newTestApp(t, fstest.MapFS{})
	app.Views.Post = nil
	if err := app.Init(context.Background()); err == nil {
		t.Fatal("expected Init to fail without a Post view")
	}
}

func TestHomeListsPosts(t *testing.T) {
	app, _ := initTestApp(t)

	rec := get(t, app, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "posts=Hello") || !strings.Contains(body, "tags=go,web") {
		t.Errorf("unexpected body %q", body)
	}

	rec = get(t, app, "/?tag=nope")
	if !strings.Contains(rec.Body.String(), "posts= tag=nope") {
		t.Errorf("expected empty filtered list, got %q", rec.Body.String())
	}
}

func TestHomePartialForHTMX(t *testing.T) {
	app, _ := initTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/?partial=blog", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	if rec.Body.String() != "section" {
		t.Errorf("expected blog section partial, got %q", rec.Body.String())
	}
}

func TestPostPage(t *testing.T) {
	app, _ := initTestApp(t)

	rec := get(t, app, "/blog/hello/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "post=Hello") || !strings.Contains(body, `<h1 id="hello">Hello</h1>`) {
		t.Errorf("unexpected body %q", body)
	}

	rec = get(t, app, "/blog/hello")
	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("expected trailing slash redirect, got %d", rec.Code)
	}

	rec = get(t, app, "/blog/missing/")
	if rec.Code != http.StatusNotFound || rec.Body.String() != "not found" {
		t.Errorf("expected not found page, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestFeedAndSitemap(t *testing.T) {
	app, _ := initTestApp(t)

	rec := get(t, app, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", rec.Code)
	}
	feed := rec.Body.String()
	for _, want := range []string{"<rss", "<title>Hello</title>", "https://example.com/blog/hello/", "<description>First post</description>"} {
		if !strings.Contains(feed, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	rec = get(t, app, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap: expected 200, got %d", rec.Code)
	}
	sitemap := rec.Body.String()
	if !strings.Contains(sitemap, "<loc>https://example.com/blog/hello/</loc>") || !strings.Contains(sitemap, "<lastmod>2024-01-15</lastmod>") {
		t.Errorf("unexpected sitemap %q", sitemap)
	}
}

func TestCollectionAPI(t *testing.T) {
	app, _ := initTestApp(t)

	rec := get(t, app, "/api/collections/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var colls []collectionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &colls); err != nil {
		t.Fatal(err)
	}
	if len(colls) != 1 || colls[0].Name != "blog" || strings.Join(colls[0].Fields, ",") != "title,date,description,tags" {
		t.Errorf("unexpected collections %+v", colls)
	}

	rec = get(t, app, "/api/collections/blog/")
	var entries []entryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "hello" || entries[0].Data.Title != "Hello" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if got := entries[0].Data.Date.Format(DateLayout); got != "2024-01-15" {
		t.Errorf("unexpected date %s", got)
	}

	rec = get(t, app, "/api/collections/blog/schema.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("schema: expected 200, got %d", rec.Code)
	}
	var schema map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &schema); err != nil {
		t.Fatal(err)
	}
	if schema["type"] != "object" {
		t.Errorf("unexpected schema %v", schema)
	}

	if rec := get(t, app, "/api/collections/notes/schema.json"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown collection, got %d", rec.Code)
	}
	if rec := get(t, app, "/api/collections/notes/"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown collection entries, got %d", rec.Code)
	}
}

func TestAdminShowsLoginWhenLoggedOut(t *testing.T) {
	app, _ := initTestApp(t)

	rec := get(t, app, "/admin/")
	if rec.Code != http.StatusOK || rec.Body.String() != "login error=false" {
		t.Errorf("unexpected admin response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store for admin, got %q", rec.Header().Get("Cache-Control"))
	}
}

func TestRebuildKeepsPreviousPostsOnFailure(t *testing.T) {
	app, fsys := initTestApp(t)
	ctx := context.Background()

	fsys["src/content/blog/broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Broken\ndate: 2024-02-01\ndescription: x\ntags: [1, go]\n---\n")}
	report, err := app.Rebuild(ctx)
	if err == nil {
		t.Fatal("expected rebuild to fail")
	}
	if report.OK() || len(report.Failures) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if issue := report.Failures[0].Issues[0]; issue.Field != "tags.0" {
		t.Errorf("expected tags.0 issue, got %+v", issue)
	}
	if rec := get(t, app, "/blog/hello/"); rec.Code != http.StatusOK {
		t.Errorf("expected previous post to still be served, got %d", rec.Code)
	}

	delete(fsys, "src/content/blog/broken.md")
	fsys["src/content/blog/second.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Second\ndate: 2024-02-01\ndescription: y\n---\nMore.\n")}
	report, err = app.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if report.Sync != (SyncStats{Added: 1, Unchanged: 1}) {
		t.Errorf("unexpected sync stats %+v", report.Sync)
	}
	rec := get(t, app, "/")
	if !strings.Contains(rec.Body.String(), "posts=Second,Hello") {
		t.Errorf("expected both posts newest first, got %q", rec.Body.String())
	}
}

func postForm(app *App, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAdminLoginAndRebuild(t *testing.T) {
	app, _ := initTestApp(t)

	csrf := cookie(get(t, app, "/admin/"), "_csrf")
	if csrf == nil {
		t.Fatal("expected a csrf cookie")
	}

	rec := postForm(app, "/admin/login/", url.Values{"_csrf": {csrf.Value}, "password": {"wrong"}}, []*http.Cookie{csrf})
	if rec.Body.String() != "login error=true" {
		t.Fatalf("expected login error, got %d %q", rec.Code, rec.Body.String())
	}

	rec = postForm(app, "/admin/login/", url.Values{"_csrf": {csrf.Value}, "password": {"secret"}}, []*http.Cookie{csrf})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", rec.Code)
	}
	sess := cookie(rec, sessionName)
	if sess == nil {
		t.Fatal("expected a session cookie")
	}

	rec = postForm(app, "/admin/rebuild/", url.Values{"_csrf": {csrf.Value}}, []*http.Cookie{csrf, sess})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected dashboard, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "dashboard reports=1 posts=1 msg=rebuilt blog" {
		t.Errorf("unexpected dashboard %q", body)
	}
}

func TestAdminRebuildRequiresLogin(t *testing.T) {
	app, _ := initTestApp(t)

	csrf := cookie(get(t, app, "/admin/"), "_csrf")
	rec := postForm(app, "/admin/rebuild/", url.Values{"_csrf": {csrf.Value}}, []*http.Cookie{csrf})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}
}
