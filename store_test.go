package overlaypost

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_templates.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTemplate(slug, uploadedAt string) Template {
	return Template{
		Slug:       slug,
		Name:       "Frame " + slug,
		Width:      1080,
		Height:     1350,
		Data:       []byte("png-" + slug),
		Thumb:      []byte("thumb-" + slug),
		UploadedAt: uploadedAt,
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestSaveAndGetTemplate(t *testing.T) {
	s := setupTestStore(t)
	want := sampleTemplate("launch", "2026-01-15T10:00:00Z")

	if err := s.SaveTemplate(want); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}
	got, err := s.GetTemplate("launch")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != want.Name {
		t.Errorf("Name = %q, want %q", got.Name, want.Name)
	}
	if got.Width != want.Width || got.Height != want.Height {
		t.Errorf("size = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("Data = %q, want %q", got.Data, want.Data)
	}
	if !bytes.Equal(got.Thumb, want.Thumb) {
		t.Errorf("Thumb = %q, want %q", got.Thumb, want.Thumb)
	}
	if got.UploadedAt != want.UploadedAt {
		t.Errorf("UploadedAt = %q, want %q", got.UploadedAt, want.UploadedAt)
	}
}

func TestSaveTemplateUpdate(t *testing.T) {
	s := setupTestStore(t)
	tmpl := sampleTemplate("update", "2026-01-01T00:00:00Z")
	if err := s.SaveTemplate(tmpl); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}

	tmpl.Name = "Renamed"
	tmpl.Data = []byte("new-data")
	if err := s.SaveTemplate(tmpl); err != nil {
		t.Fatalf("SaveTemplate update failed: %v", err)
	}

	got, err := s.GetTemplate("update")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != "Renamed" || string(got.Data) != "new-data" {
		t.Errorf("got %q / %q, want updated values", got.Name, got.Data)
	}
	list, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListTemplates returned %d templates, want 1", len(list))
	}
}

func TestSaveTemplateRequiresData(t *testing.T) {
	s := setupTestStore(t)
	tmpl := sampleTemplate("empty", "2026-01-01T00:00:00Z")
	tmpl.Data = nil
	if err := s.SaveTemplate(tmpl); err == nil {
		t.Fatal("expected error saving a template without data")
	}
}

func TestListTemplatesNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	for _, tmpl := range []Template{
		sampleTemplate("old", "2025-06-01T00:00:00Z"),
		sampleTemplate("new", "2026-03-01T00:00:00Z"),
		sampleTemplate("mid", "2025-12-01T00:00:00Z"),
	} {
		if err := s.SaveTemplate(tmpl); err != nil {
			t.Fatalf("SaveTemplate(%s) failed: %v", tmpl.Slug, err)
		}
	}

	list, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	var slugs []string
	for _, tmpl := range list {
		slugs = append(slugs, tmpl.Slug)
		if tmpl.Data != nil {
			t.Errorf("listing for %s carries image data", tmpl.Slug)
		}
		if len(tmpl.Thumb) == 0 {
			t.Errorf("listing for %s is missing its thumbnail", tmpl.Slug)
		}
	}
	if len(slugs) != 3 || slugs[0] != "new" || slugs[1] != "mid" || slugs[2] != "old" {
		t.Errorf("order = %v, want [new mid old]", slugs)
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetTemplate("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHasAndDeleteTemplate(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveTemplate(sampleTemplate("gone", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}
	if ok, err := s.HasTemplate("gone"); err != nil || !ok {
		t.Fatalf("HasTemplate = %v, %v; want true", ok, err)
	}
	if err := s.DeleteTemplate("gone"); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}
	if ok, err := s.HasTemplate("gone"); err != nil || ok {
		t.Fatalf("HasTemplate after delete = %v, %v; want false", ok, err)
	}
}

func TestTemplateCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	cache := NewTemplateCache(s, time.Hour)

	list, err := cache.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty library, got %d", len(list))
	}

	if err := s.SaveTemplate(sampleTemplate("cached", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}
	if list, _ := cache.ListTemplates(); len(list) != 0 {
		t.Fatalf("expected stale listing before invalidation, got %d", len(list))
	}
	cache.Invalidate()
	if list, _ := cache.ListTemplates(); len(list) != 1 {
		t.Fatalf("expected 1 template after invalidation, got %d", len(list))
	}
}
