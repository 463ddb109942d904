package pubcontent

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/content"
)

func (a *App) handleHome(c echo.Context) error {
	tag := c.QueryParam("tag")
	posts, err := a.Cache.ListPosts(tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == "blog" && a.Views.BlogSection != nil {
		return Render(c, a.Views.BlogSection(posts, tag, tags))
	}
	return Render(c, a.Views.Home(posts, tag, tags))
}

func (a *App) handlePost(c echo.Context) error {
	id := strings.Trim(c.Param("*"), "/")
	if id == "" {
		return c.Redirect(http.StatusMovedPermanently, "/")
	}
	post, err := a.Cache.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post, FilterRelatedPosts(post, posts)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

type collectionJSON struct {
	Name    string   `json:"name"`
	Pattern string   `json:"pattern"`
	Base    string   `json:"base"`
	Fields  []string `json:"fields"`
}

func (a *App) handleCollections(c echo.Context) error {
	out := make([]collectionJSON, 0, len(a.Collections))
	for _, name := range a.Collections.Names() {
		coll := a.Collections[name]
		fields := []string{}
		for _, f := range coll.Schema.Fields() {
			fields = append(fields, f.Name)
		}
		out = append(out, collectionJSON{
			Name:    name,
			Pattern: coll.Loader.Pattern,
			Base:    coll.Loader.Base,
			Fields:  fields,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type entryJSON struct {
	ID   string                   `json:"id"`
	Data content.BlogPostMetadata `json:"data"`
	Link string                   `json:"link"`
}

func (a *App) handleCollectionEntries(c echo.Context) error {
	if c.Param("name") != content.BlogCollection {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	posts, err := a.Cache.ListPosts(c.QueryParam("tag"))
	if err != nil {
		return err
	}
	out := make([]entryJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, entryJSON{
			ID: p.ID,
			Data: content.BlogPostMetadata{
				Title:       p.Title,
				Date:        p.Date,
				Description: p.Description,
				Tags:        p.Tags,
			},
			Link: BuildURL(a.Config.URL, "blog", p.ID),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleCollectionSchema(c echo.Context) error {
	coll, ok := a.Collections.Get(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, coll.Schema.JSONSchema())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound && !strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
