package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func TestHomeEscapesAndSelects(t *testing.T) {
	html := renderString(t, Home(SiteConfig{Name: "Overlay"}, FormView{
		Caption:   `<b>"hi"</b>`,
		CSRFToken: "tok",
		Library: []TemplateItem{
			{Slug: "a", Name: "Frame A", Width: 10, Height: 20},
			{Slug: "b", Name: "Frame B", Width: 30, Height: 40},
		},
		Selected: "b",
	}))

	for _, want := range []string{
		"<title>Overlay</title>",
		`value="&lt;b&gt;&#34;hi&#34;&lt;/b&gt;"`,
		`<option value="a">Frame A (10×20)</option>`,
		`<option value="b" selected>Frame B (30×40)</option>`,
		`name="_csrf" value="tok"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(html, "Overlayed Image") {
		t.Error("result section rendered without a result")
	}
}

func TestHomeShowsResult(t *testing.T) {
	html := renderString(t, Home(SiteConfig{Name: "Overlay"}, FormView{ResultURL: "data:image/png;base64,AAAA"}))
	if !strings.Contains(html, `src="data:image/png;base64,AAAA"`) {
		t.Error("result image should keep its data URL")
	}
	if !strings.Contains(html, `href="/download/"`) {
		t.Error("missing download link")
	}
}

func TestAdminTemplatesDeleteAction(t *testing.T) {
	html := renderString(t, AdminTemplates(SiteConfig{Name: "Overlay"}, []TemplateItem{{Slug: "a b", Name: "Spaced"}}, "saved", "tok"))
	if !strings.Contains(html, `action="/admin/templates/a%20b/delete/"`) {
		t.Errorf("delete form action not escaped: %s", html)
	}
	if !strings.Contains(html, "<title>Templates | Overlay</title>") {
		t.Error("page title should include the section")
	}
}
