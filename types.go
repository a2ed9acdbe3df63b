package overlaypost

import (
	"encoding/base64"

	"github.com/eringen/overlaypost/views"
)

// Template is a saved template overlay from the library.
type Template struct {
	Slug       string
	Name       string
	Width      int
	Height     int
	Data       []byte // PNG, empty in listings
	Thumb      []byte // PNG thumbnail
	UploadedAt string
}

func (t Template) item() views.TemplateItem {
	item := views.TemplateItem{
		Slug:       t.Slug,
		Name:       t.Name,
		Width:      t.Width,
		Height:     t.Height,
		UploadedAt: t.UploadedAt,
	}
	if len(t.Thumb) > 0 {
		item.ThumbDataURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(t.Thumb)
	}
	return item
}

func templateItems(ts []Template) []views.TemplateItem {
	items := make([]views.TemplateItem, len(ts))
	for i, t := range ts {
		items[i] = t.item()
	}
	return items
}
