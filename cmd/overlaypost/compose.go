package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eringen/overlaypost/compositor"
	"github.com/eringen/overlaypost/textlayout"
)

func runCompose(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	templatePath := fs.String("template", "", "template (overlay) image path")
	contentPath := fs.String("content", "", "content (background) image path")
	caption := fs.String("caption", "", "caption text")
	out := fs.String("out", compositor.Filename, "output PNG path")
	dryRun := fs.Bool("dry-run", false, "print the caption layout instead of writing a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" || *contentPath == "" {
		return errors.New("both -template and -content are required")
	}

	tmpl, err := os.ReadFile(*templatePath)
	if err != nil {
		return err
	}
	if *dryRun {
		return printLayout(stdout, tmpl, *caption)
	}
	content, err := os.ReadFile(*contentPath)
	if err != nil {
		return err
	}

	result, err := compositor.New().Compose(context.Background(), compositor.Input{
		Template: tmpl,
		Content:  content,
		Caption:  *caption,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, result.PNG, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%dx%d)\n", *out, result.Width, result.Height)
	return nil
}

// printLayout shows where each caption line would be drawn on the template.
func printLayout(w io.Writer, tmpl []byte, caption string) error {
	img, err := compositor.DecodeOriented(bytes.NewReader(tmpl))
	if err != nil {
		return &compositor.DecodeError{Role: compositor.RoleTemplate, Err: err}
	}
	size := img.Bounds().Size()
	surface, err := compositor.NewRasterSurface(size.X, size.Y)
	if err != nil {
		return err
	}
	defer surface.Close()
	if err := surface.SetFontSize(compositor.FontSize); err != nil {
		return err
	}

	x, y, maxWidth := compositor.CaptionAnchor(size.X, size.Y, surface.MeasureText(caption))
	lines := textlayout.Wrap(caption, maxWidth, surface.MeasureText)
	fmt.Fprintf(w, "surface %dx%d, wrap width %.1f\n", size.X, size.Y, maxWidth)
	for i, line := range lines {
		fmt.Fprintf(w, "(%.1f, %.1f) %q\n", x, y+float64(i*compositor.LineHeight), line)
	}
	fmt.Fprintf(w, "caption %q in %d line(s)\n", textlayout.Unwrap(lines), len(lines))
	return nil
}
