package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Role names which input an image was supplied as.
type Role string

const (
	RoleTemplate Role = "template"
	RoleContent  Role = "content"
)

var (
	// ErrDecode matches every DecodeError.
	ErrDecode = errors.New("compositor: decode image")
	// ErrTooLarge is wrapped by a DecodeError when an image exceeds the
	// configured pixel budget.
	ErrTooLarge = errors.New("image exceeds pixel limit")
)

// DecodeError reports an input that could not be decoded as a raster image.
type DecodeError struct {
	Role Role
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("compositor: decode %s image: %v", e.Role, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decoder turns encoded image bytes into a decoded image.
type Decoder func(r io.Reader) (image.Image, error)

// DecodeOriented decodes r and applies any EXIF orientation so photos come
// out upright.
func DecodeOriented(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

func (c *Compositor) decode(ctx context.Context, role Role, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Role: role, Err: err}
		}
		if cfg.Width*cfg.Height > c.maxPixels {
			return nil, &DecodeError{Role: role, Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)}
		}
	}
	img, err := c.decoder(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Role: role, Err: err}
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Role: role, Err: errors.New("empty image")}
	}
	return img, nil
}
