package overlaypost

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/overlaypost/compositor"
	"github.com/eringen/overlaypost/views"
)

const notReadyNotice = "Select both a template image and a content image, then press Generate Post."

// formMessages are the per-response extras layered over the stored form.
type formMessages struct {
	Notice string
	Error  string
	Result *compositor.Output // overrides the stored result when set
}

func (a *App) handleHome(c echo.Context) error {
	id, err := formID(c)
	if err != nil {
		return err
	}
	return a.renderForm(c, id, http.StatusOK, formMessages{})
}

func (a *App) handleCompose(c echo.Context) error {
	if !a.composeLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
	}
	id, err := formID(c)
	if err != nil {
		return err
	}

	tmpl, tmplName, err := readUpload(c, "template", a.Config.MaxUploadBytes)
	if err != nil {
		return a.uploadError(c, id, err)
	}
	content, contentName, err := readUpload(c, "content", a.Config.MaxUploadBytes)
	if err != nil {
		return a.uploadError(c, id, err)
	}

	var saved Template
	if slug := strings.TrimSpace(c.FormValue("library")); tmpl == nil && slug != "" {
		saved, err = a.Store.GetTemplate(slug)
		if errors.Is(err, ErrNotFound) {
			return a.renderForm(c, id, http.StatusBadRequest, formMessages{Error: "That saved template no longer exists."})
		}
		if err != nil {
			return err
		}
	}

	caption := c.FormValue("caption")
	a.Forms.Update(id, func(f *FormState) {
		switch {
		case tmpl != nil:
			f.Template, f.TemplateName, f.Library = tmpl, tmplName, ""
		case saved.Slug != "":
			f.Template, f.TemplateName, f.Library = saved.Data, saved.Name, saved.Slug
		}
		if content != nil {
			f.Content, f.ContentName = content, contentName
		}
		f.Caption = caption
	})

	in, gen := a.Forms.Begin(id)
	out, err := a.Compositor.Compose(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, compositor.ErrDecode) {
			c.Logger().Warnf("compose %s: %v", id, err)
			return a.renderForm(c, id, http.StatusUnprocessableEntity, formMessages{Error: decodeMessage(err)})
		}
		return err
	}
	if out == nil {
		return a.renderForm(c, id, http.StatusOK, formMessages{Notice: notReadyNotice})
	}
	if !a.Forms.Finish(id, gen, out) {
		c.Logger().Debugf("compose %s: generation %d superseded by a newer request", id, gen)
	}
	return a.renderForm(c, id, http.StatusOK, formMessages{Result: out})
}

func (a *App) uploadError(c echo.Context, id string, err error) error {
	if errors.Is(err, errUploadTooLarge) {
		return a.renderForm(c, id, http.StatusRequestEntityTooLarge, formMessages{Error: err.Error()})
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid upload").SetInternal(err)
}

func decodeMessage(err error) string {
	var de *compositor.DecodeError
	if errors.As(err, &de) {
		if errors.Is(err, compositor.ErrTooLarge) {
			return "The " + string(de.Role) + " image is too large."
		}
		return "The " + string(de.Role) + " image could not be read as an image."
	}
	return "One of the images could not be read."
}

func (a *App) handleDownload(c echo.Context) error {
	id, err := formID(c)
	if err != nil {
		return err
	}
	state := a.Forms.Get(id)
	if state.Result == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(compositor.Filename))
	return c.Blob(http.StatusOK, "image/png", state.Result.PNG)
}

func (a *App) handleReset(c echo.Context) error {
	id, err := formID(c)
	if err != nil {
		return err
	}
	a.Forms.Reset(id)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleHealth(c echo.Context) error {
	status := map[string]any{"status": "ok", "forms": a.Forms.Len()}
	if err := a.Store.Ping(); err != nil {
		status["status"] = "unhealthy"
		status["library"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

func (a *App) renderForm(c echo.Context, id string, code int, msg formMessages) error {
	library, err := a.Cache.ListTemplates()
	if err != nil {
		return err
	}
	state := a.Forms.Get(id)
	v := views.FormView{
		Caption:      state.Caption,
		TemplateName: state.TemplateName,
		ContentName:  state.ContentName,
		Library:      templateItems(library),
		Selected:     state.Library,
		Notice:       msg.Notice,
		Error:        msg.Error,
		CSRFToken:    CsrfToken(c),
	}
	result := state.Result
	if msg.Result != nil {
		result = msg.Result
	}
	if result != nil && msg.Error == "" {
		v.ResultURL = result.DataURL()
	}
	return RenderStatus(c, code, views.Home(a.site(), v))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
