package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	storyWidth       = 1080
	storyHeight      = 1920
	textScale        = 4
	textPadding      = 6
	maxStoryLines    = 12
	storyJPEGQuality = 90
)

var (
	storyBackground = color.RGBA{R: 17, G: 17, B: 17, A: 255}
	bannerColor     = color.RGBA{A: 170}
)

// renderStoryComposite fits the image into a vertical story canvas and burns text into
// a banner over its lower part.
func renderStoryComposite(r io.Reader, text string) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode story image: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, storyWidth, storyHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(storyBackground), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, fitRect(src.Bounds(), canvas.Bounds()), src, src.Bounds(), draw.Over, nil)

	if banner := renderTextBanner(text); banner != nil {
		w := banner.Bounds().Dx() * textScale
		h := banner.Bounds().Dy() * textScale
		top := storyHeight - h - storyHeight/8
		dst := image.Rect((storyWidth-w)/2, top, (storyWidth+w)/2, top+h)
		draw.NearestNeighbor.Scale(canvas, dst, banner, banner.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: storyJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitRect centers src inside dst, scaled to fit while keeping its aspect ratio.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 {
		return image.Rectangle{}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// renderTextBanner draws wrapped text at native font size. The caller scales it up.
func renderTextBanner(text string) *image.RGBA {
	face := basicfont.Face7x13
	charWidth := face.Advance
	lineHeight := face.Height

	width := storyWidth / textScale
	lines := wrapText(text, (width-2*textPadding)/charWidth)
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > maxStoryLines {
		lines = lines[:maxStoryLines]
		lines[maxStoryLines-1] = strings.TrimRight(lines[maxStoryLines-1], " ") + "..."
	}

	height := len(lines)*lineHeight + 2*textPadding
	banner := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(banner, banner.Bounds(), image.NewUniform(bannerColor), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: banner, Src: image.White, Face: face}
	for i, line := range lines {
		lineWidth := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((width-lineWidth)/2, textPadding+(i+1)*lineHeight-face.Descent)
		d.DrawString(line)
	}
	return banner
}

// wrapText splits text into lines of at most width runes, breaking on spaces and
// hard-splitting words that are too long.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line []rune
		for _, word := range strings.Fields(paragraph) {
			w := []rune(word)
			for len(w) > width {
				if len(line) > 0 {
					lines = append(lines, string(line))
					line = nil
				}
				lines = append(lines, string(w[:width]))
				w = w[width:]
			}
			switch {
			case len(line) == 0:
				line = w
			case len(line)+1+len(w) <= width:
				line = append(append(line, ' '), w...)
			default:
				lines = append(lines, string(line))
				line = w
			}
		}
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
	}
	return lines
}
