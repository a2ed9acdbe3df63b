package overlaypost

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"

	"github.com/eringen/overlaypost/compositor"
)

const thumbSize = 160

var errUploadTooLarge = errors.New("file too large")

// readUpload returns the bytes of the named multipart file. A missing field
// yields nil bytes and a nil error so the previous pick is kept.
func readUpload(c echo.Context, field string, limit int64) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if fh.Size == 0 {
		return nil, "", nil
	}
	if fh.Size > limit {
		return nil, "", fmt.Errorf("%s: %w (max %d MB)", fh.Filename, errUploadTooLarge, limit>>20)
	}
	data, err := readFileHeader(fh, limit)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w", fh.Filename, errUploadTooLarge)
	}
	return data, nil
}

// processTemplate decodes an uploaded template overlay, re-encodes it as PNG
// so its alpha channel survives, and renders a thumbnail for the library.
func processTemplate(data []byte, name, originalName string, maxPixels int) (Template, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Template{}, fmt.Errorf("decode image: %w", err)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return Template{}, fmt.Errorf("decode image: %w: %dx%d", compositor.ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := compositor.DecodeOriented(bytes.NewReader(data))
	if err != nil {
		return Template{}, fmt.Errorf("decode image: %w", err)
	}

	var full bytes.Buffer
	if err := png.Encode(&full, img); err != nil {
		return Template{}, fmt.Errorf("encode png: %w", err)
	}
	var thumb bytes.Buffer
	if err := png.Encode(&thumb, imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)); err != nil {
		return Template{}, fmt.Errorf("encode thumbnail: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(originalName, filepath.Ext(originalName))
	}
	slug := Slugify(name)
	if slug == "" {
		slug = "template"
	}

	b := img.Bounds()
	return Template{
		Slug:       slug,
		Name:       name,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Data:       full.Bytes(),
		Thumb:      thumb.Bytes(),
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ensureUniqueSlug appends a counter if the slug is already in the library.
func (a *App) ensureUniqueSlug(t *Template) error {
	base := t.Slug
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := a.Store.HasTemplate(candidate)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, counter+1)
	}
	t.Slug = candidate
	return nil
}
