package overlaypost

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/eringen/overlaypost/compositor"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	app := New(SiteConfig{
		Name:          "Test Overlay",
		DatabasePath:  filepath.Join(t.TempDir(), "templates.db"),
		AdminPassword: "letmein",
		SessionSecret: "test-session-secret",
		LogLevel:      "off",
	}, opts...)
	if err := app.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

// browser replays cookies and the CSRF token between requests.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app *App) *browser {
	b := &browser{t: t, app: app, cookies: map[string]*http.Cookie{}}
	if rec := b.get("/"); rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	return b
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	if req.Method != http.MethodGet {
		if c, ok := b.cookies["_csrf"]; ok {
			req.Header.Set("X-CSRF-Token", c.Value)
		}
	}
	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, fields map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.do(req)
}

func (b *browser) postFiles(path string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	b.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".png")
		if err != nil {
			b.t.Fatalf("create form file: %v", err)
		}
		part.Write(data)
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.do(req)
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHomeRendersForm(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Test Overlay", "Select Template Image", "Select Content Image", "Generate Post", `name="_csrf"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(body, "data:image/png") {
		t.Error("fresh form should not show a result")
	}
}

func TestComposeNotReadyThenComplete(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	rec := b.postFiles("/compose/", map[string]string{"caption": "Hello there"},
		map[string][]byte{"content": pngBytes(t, 30, 30, color.NRGBA{B: 255, A: 255})})
	if rec.Code != http.StatusOK {
		t.Fatalf("compose with one image = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Select both a template image and a content image") {
		t.Error("expected not-ready notice")
	}
	if strings.Contains(rec.Body.String(), "data:image/png") {
		t.Error("no composite expected before both images are present")
	}

	// The content pick is remembered; adding the template completes the form.
	rec = b.postFiles("/compose/", map[string]string{"caption": "Hello there"},
		map[string][]byte{"template": pngBytes(t, 200, 100, color.NRGBA{})})
	if rec.Code != http.StatusOK {
		t.Fatalf("compose = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Fatal("expected inline composite")
	}
	if !strings.Contains(body, `value="Hello there"`) {
		t.Error("caption should be kept in the form")
	}

	rec = b.get("/download/")
	if rec.Code != http.StatusOK {
		t.Fatalf("download = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="overlayed_image.png"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode download: %v", err)
	}
	if s := img.Bounds().Size(); s.X != 200 || s.Y != 100 {
		t.Errorf("download size = %v, want 200x100", s)
	}
}

func TestDownloadWithoutResult(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	if rec := b.get("/download/"); rec.Code != http.StatusNotFound {
		t.Errorf("download = %d, want 404", rec.Code)
	}
}

func TestComposeUndecodableContent(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.postFiles("/compose/", nil, map[string][]byte{
		"template": pngBytes(t, 50, 50, color.White),
		"content":  []byte("definitely not an image"),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("compose = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "content image could not be read") {
		t.Error("expected decode error message naming the content image")
	}
	if strings.Contains(rec.Body.String(), "data:image/png") {
		t.Error("no composite expected on decode failure")
	}
	if rec := b.get("/download/"); rec.Code != http.StatusNotFound {
		t.Errorf("download after failure = %d, want 404", rec.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	app := newTestApp(t)
	alice := newBrowser(t, app)
	bob := newBrowser(t, app)

	rec := alice.postFiles("/compose/", nil, map[string][]byte{
		"template": pngBytes(t, 40, 40, color.White),
		"content":  pngBytes(t, 40, 40, color.Black),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("compose = %d", rec.Code)
	}
	if rec := bob.get("/download/"); rec.Code != http.StatusNotFound {
		t.Errorf("other session download = %d, want 404", rec.Code)
	}
}

func TestResetClearsForm(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.postFiles("/compose/", map[string]string{"caption": "gone soon"}, map[string][]byte{
		"template": pngBytes(t, 40, 40, color.White),
		"content":  pngBytes(t, 40, 40, color.Black),
	})

	if rec := b.postForm("/reset/", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("reset = %d, want 303", rec.Code)
	}
	if rec := b.get("/download/"); rec.Code != http.StatusNotFound {
		t.Errorf("download after reset = %d, want 404", rec.Code)
	}
	if strings.Contains(b.get("/").Body.String(), "gone soon") {
		t.Error("caption survived reset")
	}
}

func TestComposeRequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/compose/", strings.NewReader(""))
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("compose without token = %d, want 403", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz body = %s", rec.Body.String())
	}
}

func TestAdminLibraryFlow(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	if rec := b.get("/admin/"); !strings.Contains(rec.Body.String(), `type="password"`) {
		t.Fatal("expected login form")
	}
	if rec := b.postForm("/admin/login/", map[string]string{"password": "wrong"}); !strings.Contains(rec.Body.String(), "Wrong password") {
		t.Error("expected wrong password message")
	}
	if rec := b.postForm("/admin/login/", map[string]string{"password": "letmein"}); rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d, want 303", rec.Code)
	}

	rec := b.postFiles("/admin/templates/upload/", map[string]string{"name": "Frame One"},
		map[string][]byte{"image": pngBytes(t, 120, 80, color.NRGBA{R: 255, A: 128})})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Frame One") {
		t.Error("uploaded template missing from library page")
	}

	if !strings.Contains(b.get("/").Body.String(), `value="frame-one"`) {
		t.Fatal("saved template missing from the public form")
	}

	rec = b.postFiles("/compose/", map[string]string{"library": "frame-one"},
		map[string][]byte{"content": pngBytes(t, 10, 10, color.Black)})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Fatalf("compose with library template = %d", rec.Code)
	}
	img, err := png.Decode(b.get("/download/").Body)
	if err != nil {
		t.Fatalf("decode download: %v", err)
	}
	if s := img.Bounds().Size(); s.X != 120 || s.Y != 80 {
		t.Errorf("download size = %v, want the library template's 120x80", s)
	}

	if rec := b.postForm("/admin/templates/frame-one/delete/", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	if ok, _ := app.Store.HasTemplate("frame-one"); ok {
		t.Error("template still stored after delete")
	}
}

func TestAdminUploadRequiresLogin(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.postFiles("/admin/templates/upload/", nil, map[string][]byte{"image": pngBytes(t, 10, 10, color.White)})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("upload without login = %d, want 303", rec.Code)
	}
}

func TestFailedComposeDropsPreviousResult(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.postFiles("/compose/", nil, map[string][]byte{
		"template": pngBytes(t, 40, 40, color.White),
		"content":  pngBytes(t, 40, 40, color.Black),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first compose = %d", rec.Code)
	}
	if rec := b.get("/download/"); rec.Code != http.StatusOK {
		t.Fatalf("download after success = %d", rec.Code)
	}

	rec = b.postFiles("/compose/", nil, map[string][]byte{"content": []byte("junk")})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("compose with junk content = %d, want 422", rec.Code)
	}
	if rec := b.get("/download/"); rec.Code != http.StatusNotFound {
		t.Errorf("download after failed compose = %d, want 404", rec.Code)
	}
	if strings.Contains(b.get("/").Body.String(), "data:image/png") {
		t.Error("form still shows the composite from before the failure")
	}
}

func TestWithCompositorReplacesDefault(t *testing.T) {
	small := compositor.New(compositor.WithMaxPixels(100))
	b := newBrowser(t, newTestApp(t, WithCompositor(small)))
	rec := b.postFiles("/compose/", nil, map[string][]byte{
		"template": pngBytes(t, 20, 20, color.White),
		"content":  pngBytes(t, 5, 5, color.Black),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("compose = %d, want 422 from the injected pixel limit", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "template image is too large") {
		t.Error("expected the too-large message for the template")
	}
}

func TestWithCustomRoutes(t *testing.T) {
	app := newTestApp(t, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/ping/", func(c echo.Context) error {
			return c.String(http.StatusOK, "pong")
		})
	}))
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("custom route = %d %q", rec.Code, rec.Body.String())
	}
}

func TestFormSessionsAreCapped(t *testing.T) {
	app := New(SiteConfig{
		DatabasePath:  filepath.Join(t.TempDir(), "templates.db"),
		SessionSecret: "test-session-secret",
		LogLevel:      "off",
		MaxForms:      3,
	})
	if err := app.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer app.Close()

	for i := 0; i < 10; i++ {
		b := newBrowser(t, app)
		b.postFiles("/compose/", map[string]string{"caption": "hi"}, nil)
	}
	if n := app.Forms.Len(); n > 3 {
		t.Errorf("live form sessions = %d, want at most 3", n)
	}
}

func TestNegativeMaxPixelsDisablesLimit(t *testing.T) {
	cfg := SiteConfig{MaxPixels: -1}
	cfg.setDefaults()
	if got := cfg.pixelBudget(); got != 0 {
		t.Errorf("pixelBudget = %d, want 0", got)
	}
	cfg = SiteConfig{}
	cfg.setDefaults()
	if got := cfg.pixelBudget(); got != 40_000_000 {
		t.Errorf("default pixelBudget = %d, want 40000000", got)
	}
}
