// Package views is the default look of a pubcontent site: html/template
// pages wrapped as templ components so they plug into pubcontent.ViewFuncs.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubcontent"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Site      pubcontent.SiteConfig
	Meta      pubcontent.PageMeta
	JSONLD    template.JS
	Posts     []pubcontent.BlogPost
	Tags      []string
	ActiveTag string
	Post      pubcontent.BlogPost
	Related   []pubcontent.BlogPost
	Content   template.HTML
	Reports   []pubcontent.BuildReport
	Message   string
	CSRF      string
	ShowError bool
}

type pages struct {
	home, post, login, dashboard, notFound, serverError *template.Template
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/partials.html", "templates/"+name))
}

func loadPages() pages {
	return pages{
		home:        parsePage("home.html"),
		post:        parsePage("post.html"),
		login:       parsePage("admin_login.html"),
		dashboard:   parsePage("admin_dashboard.html"),
		notFound:    parsePage("not_found.html"),
		serverError: parsePage("server_error.html"),
	}
}

func component(t *template.Template, name string, data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

// Default returns the built-in views for cfg.
func Default(cfg pubcontent.SiteConfig) pubcontent.ViewFuncs {
	if cfg.Name == "" {
		cfg.Name = "Blog"
	}
	p := loadPages()

	page := func(title, description, url, ogType string) pageData {
		return pageData{
			Site: cfg,
			Meta: pubcontent.PageMeta{
				Title:       title,
				Description: description,
				URL:         url,
				OGType:      ogType,
			},
		}
	}
	home := func(posts []pubcontent.BlogPost, activeTag string, tags []string) pageData {
		d := page(cfg.Name, cfg.Description, pubcontent.BuildURL(cfg.URL), "website")
		d.JSONLD = template.JS(pubcontent.WebsiteJsonLD(cfg))
		d.Posts = posts
		d.Tags = tags
		d.ActiveTag = activeTag
		return d
	}

	return pubcontent.ViewFuncs{
		Home: func(posts []pubcontent.BlogPost, activeTag string, tags []string) templ.Component {
			return component(p.home, "layout", home(posts, activeTag, tags))
		},
		BlogSection: func(posts []pubcontent.BlogPost, activeTag string, tags []string) templ.Component {
			return component(p.home, "blog-section", home(posts, activeTag, tags))
		},
		Post: func(post pubcontent.BlogPost, related []pubcontent.BlogPost) templ.Component {
			d := page(post.Title+" | "+cfg.Name, post.Description, pubcontent.BuildURL(cfg.URL, "blog", post.ID), "article")
			d.JSONLD = template.JS(pubcontent.BlogPostingJsonLD(post, cfg))
			d.Post = post
			d.Related = related
			// Rendered by goldmark without raw HTML passthrough.
			d.Content = template.HTML(post.HTML)
			return component(p.post, "layout", d)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			d := page("Admin | "+cfg.Name, "", "", "website")
			d.ShowError = showError
			d.CSRF = csrfToken
			return component(p.login, "layout", d)
		},
		AdminDashboard: func(reports []pubcontent.BuildReport, posts []pubcontent.BlogPost, msg string, csrfToken string) templ.Component {
			d := page("Admin | "+cfg.Name, "", "", "website")
			d.Reports = reports
			d.Posts = posts
			d.Message = msg
			d.CSRF = csrfToken
			return component(p.dashboard, "layout", d)
		},
		NotFound: func() templ.Component {
			return component(p.notFound, "layout", page("Not found | "+cfg.Name, "", "", "website"))
		},
		ServerError: func() templ.Component {
			return component(p.serverError, "layout", page("Error | "+cfg.Name, "", "", "website"))
		},
	}
}
