package overlaypost

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/overlaypost/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return a.renderAdminTemplates(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(c.RealIP())
	return Render(c, views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleTemplateUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	data, filename, err := readUpload(c, "image", a.Config.MaxUploadBytes)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid upload: "+err.Error())
	}
	if data == nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}

	t, err := processTemplate(data, c.FormValue("name"), filename, a.Config.pixelBudget())
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	if err := a.ensureUniqueSlug(&t); err != nil {
		return err
	}
	if err := a.Store.SaveTemplate(t); err != nil {
		return err
	}
	a.Cache.Invalidate()
	c.Logger().Infof("template %q saved (%dx%d)", t.Slug, t.Width, t.Height)
	return a.renderAdminTemplates(c, "saved")
}

func (a *App) handleTemplateDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := c.Param("slug")
	if slug == "" {
		return c.String(http.StatusBadRequest, "Slug required")
	}
	if err := a.Store.DeleteTemplate(slug); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminTemplates(c, "deleted")
}

func (a *App) renderAdminTemplates(c echo.Context, msg string) error {
	templates, err := a.Store.ListTemplates()
	if err != nil {
		return err
	}
	return Render(c, views.AdminTemplates(a.site(), templateItems(templates), msg, CsrfToken(c)))
}
