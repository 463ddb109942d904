package pubcontent

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("failed admin login", "ip", ip)
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminRebuild re-reads the blog collection from disk. A failed build
// leaves the served posts untouched and shows the rejected files.
func (a *App) handleAdminRebuild(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if !a.rebuildLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many rebuilds. Try again later.")
	}
	report, err := a.Rebuild(c.Request().Context())
	if err != nil {
		return a.renderAdminDashboard(c, "rebuild failed: "+err.Error())
	}
	return a.renderAdminDashboard(c, "rebuilt "+report.Collection)
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(a.Reports(), posts, msg, CsrfToken(c)))
}
