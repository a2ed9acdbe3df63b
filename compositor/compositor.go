// Package compositor merges a template overlay, a content image and a caption
// into a single PNG.
//
// The content image is stretched to the template's size, the template is
// drawn over it at its native size, and the caption is word-wrapped into the
// lower-right region in white.
package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/overlaypost/textlayout"
)

const (
	// Filename is the name offered when a composited image is downloaded.
	Filename = "overlayed_image.png"

	FontSize     = 40
	LineHeight   = 50
	RightMargin  = 20
	BottomOffset = 200
)

// CaptionColor is the fill used for caption text.
var CaptionColor color.Color = color.White

// Input carries the three form fields. Either image may be empty while the
// user is still picking files.
type Input struct {
	Template []byte
	Content  []byte
	Caption  string
}

// Ready reports whether both images have been supplied.
func (in Input) Ready() bool {
	return len(in.Template) > 0 && len(in.Content) > 0
}

// Output is an encoded composite. Its dimensions always match the template's.
type Output struct {
	PNG    []byte
	Width  int
	Height int
}

// DataURL returns the PNG as a data: URL suitable for an <img> src.
func (o *Output) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(o.PNG)
}

// Compositor renders composites. It keeps no per-call state and is safe for
// concurrent use.
type Compositor struct {
	newSurface SurfaceFactory
	decoder    Decoder
	maxPixels  int
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithSurfaceFactory replaces the default RasterSurface.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(c *Compositor) {
		c.newSurface = f
	}
}

// WithDecoder replaces the default EXIF-aware decoder.
func WithDecoder(d Decoder) Option {
	return func(c *Compositor) {
		c.decoder = d
	}
}

// WithMaxPixels rejects images whose width*height exceeds n before they are
// fully decoded. Zero disables the check.
func WithMaxPixels(n int) Option {
	return func(c *Compositor) {
		c.maxPixels = n
	}
}

// New returns a Compositor with the given options applied.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		newSurface: newRasterSurface,
		decoder:    DecodeOriented,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose decodes both images concurrently and draws the composite once both
// are ready. If either image is missing it returns a nil Output and a nil
// error; nothing is drawn until the form is complete.
//
// A decode failure returns a *DecodeError and no output. If both images fail,
// the error names the template.
func (c *Compositor) Compose(ctx context.Context, in Input) (*Output, error) {
	if !in.Ready() {
		return nil, nil
	}

	var (
		tmpl, content   image.Image
		tmplErr, cntErr error
		g               errgroup.Group
	)
	g.Go(func() error {
		tmpl, tmplErr = c.decode(ctx, RoleTemplate, in.Template)
		return nil
	})
	g.Go(func() error {
		content, cntErr = c.decode(ctx, RoleContent, in.Content)
		return nil
	})
	g.Wait()
	// The template error wins when both fail.
	if tmplErr != nil {
		return nil, tmplErr
	}
	if cntErr != nil {
		return nil, cntErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.draw(tmpl, content, in.Caption)
}

func (c *Compositor) draw(tmpl, content image.Image, caption string) (*Output, error) {
	size := tmpl.Bounds().Size()
	surface, err := c.newSurface(size.X, size.Y)
	if err != nil {
		return nil, fmt.Errorf("compositor: create surface: %w", err)
	}
	defer surface.Close()

	full := image.Rectangle{Max: size}
	surface.DrawImage(content, full)
	surface.DrawImage(tmpl, full)

	if err := surface.SetFontSize(FontSize); err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	surface.SetColor(CaptionColor)
	x, y, maxWidth := CaptionAnchor(size.X, size.Y, surface.MeasureText(caption))
	for i, line := range textlayout.Wrap(caption, maxWidth, surface.MeasureText) {
		surface.FillText(line, x, y+float64(i*LineHeight))
	}

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("compositor: encode png: %w", err)
	}
	return &Output{PNG: buf.Bytes(), Width: size.X, Height: size.Y}, nil
}

// CaptionAnchor returns where the first caption line starts on a surface of
// w×h pixels, and the width the caption is wrapped to. The caption hugs the
// right edge and never claims more than half the surface width.
func CaptionAnchor(w, h int, textWidth float64) (x, y, maxWidth float64) {
	maxWidth = float64(w) / 2
	x = float64(w) - math.Min(textWidth, maxWidth) - RightMargin
	y = float64(h) - BottomOffset
	return x, y, maxWidth
}
