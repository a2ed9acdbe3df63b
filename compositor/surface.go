package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Surface is the 2-D raster capability the compositor draws on.
// Coordinates are pixels with the origin at the top-left corner.
type Surface interface {
	Bounds() image.Rectangle
	// DrawImage scales img to fill dst and composites it source-over.
	DrawImage(img image.Image, dst image.Rectangle)
	SetFontSize(px float64) error
	SetColor(c color.Color)
	MeasureText(s string) float64
	// FillText draws s with its alphabetic baseline starting at (x, y).
	FillText(s string, x, y float64)
	EncodePNG(w io.Writer) error
	Close() error
}

// SurfaceFactory allocates a blank, fully transparent surface of w×h pixels.
type SurfaceFactory func(w, h int) (Surface, error)

const defaultFontSize = 10

var (
	goRegularOnce sync.Once
	goRegular     *opentype.Font
	goRegularErr  error
)

func captionFont() (*opentype.Font, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = opentype.Parse(goregular.TTF)
	})
	return goRegular, goRegularErr
}

// RasterSurface is an in-memory RGBA Surface that renders text with the
// Go Regular typeface.
type RasterSurface struct {
	img  *image.RGBA
	face font.Face
	src  *image.Uniform
}

// NewRasterSurface returns a transparent RasterSurface of w×h pixels.
func NewRasterSurface(w, h int) (*RasterSurface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	s := &RasterSurface{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		src: image.NewUniform(color.Black),
	}
	if err := s.SetFontSize(defaultFontSize); err != nil {
		return nil, err
	}
	return s, nil
}

func newRasterSurface(w, h int) (Surface, error) {
	s, err := NewRasterSurface(w, h)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RasterSurface) Bounds() image.Rectangle { return s.img.Bounds() }

func (s *RasterSurface) DrawImage(img image.Image, dst image.Rectangle) {
	sb := img.Bounds()
	if dst.Size() == sb.Size() {
		draw.Draw(s.img, dst, img, sb.Min, draw.Over)
		return
	}
	draw.CatmullRom.Scale(s.img, dst, img, sb, draw.Over, nil)
}

func (s *RasterSurface) SetFontSize(px float64) error {
	f, err := captionFont()
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	if s.face != nil {
		s.face.Close()
	}
	s.face = face
	return nil
}

func (s *RasterSurface) SetColor(c color.Color) {
	s.src = image.NewUniform(c)
}

func (s *RasterSurface) MeasureText(str string) float64 {
	return toFloat(font.MeasureString(s.face, str))
}

func (s *RasterSurface) FillText(str string, x, y float64) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  s.src,
		Face: s.face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y)},
	}
	d.DrawString(str)
}

func (s *RasterSurface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

// Image exposes the backing pixels.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

func (s *RasterSurface) Close() error {
	if s.face == nil {
		return nil
	}
	err := s.face.Close()
	s.face = nil
	return err
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }
