package review

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"implantplanner/pkg/atlas"
)

const (
	// Fallback cell size when a group carries no images at all.
	minCellWidth  = 400
	minCellHeight = 300

	// titleBand is the height reserved above the grid for the figure title.
	titleBand = 28

	cellPad = 4
)

var (
	gridBackground   = color.RGBA{R: 24, G: 24, B: 24, A: 255}
	placeholderFill  = color.RGBA{R: 48, G: 48, B: 48, A: 255}
	placeholderInk   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	titleInk         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	placeholderLabel = "Image unavailable"
)

// RenderGrid lays out one review group as a 2x3 figure: the coronal planes of
// the left, center and right bundles across the first row and the horizontal
// planes across the second, in the same column order. Each cell shows the
// marked image when one exists, the unmarked image otherwise, and an explicit
// placeholder when the plane image was unavailable.
func RenderGrid(g *Group, title string) *image.RGBA {
	cells := gridCells(g)
	cellW, cellH := cellSize(cells)

	imgW := 3*cellW + 4*cellPad
	imgH := titleBand + 2*cellH + 3*cellPad
	dst := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(gridBackground), image.Point{}, draw.Src)

	if title != "" {
		drawCenteredText(dst, basicfont.Face7x13, title, imgW/2, titleBand/2+5, titleInk)
	}

	for i, cell := range cells {
		row, col := i/3, i%3
		x0 := cellPad + col*(cellW+cellPad)
		y0 := titleBand + cellPad + row*(cellH+cellPad)
		rect := image.Rect(x0, y0, x0+cellW, y0+cellH)

		if cell == nil {
			drawPlaceholder(dst, rect)
			continue
		}
		// Anchor the image at the cell origin without scaling
		draw.Draw(dst, rect, cell, cell.Bounds().Min, draw.Src)
	}

	return dst
}

// RenderGridBytes renders a group and returns it encoded as JPEG.
func RenderGridBytes(g *Group, title string) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, RenderGrid(g, title), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding review grid: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveGrid renders a group and writes it as a JPEG file.
func SaveGrid(g *Group, title, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating grid file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, RenderGrid(g, title), &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encoding review grid: %w", err)
	}
	return nil
}

// gridCells collects the six display images in row-major order: coronal
// left/center/right, then horizontal left/center/right. A nil entry marks an
// unavailable image.
func gridCells(g *Group) []image.Image {
	cells := make([]image.Image, 0, 6)
	for _, pick := range []func(*atlas.SliceBundle) *atlas.PlaneSample{
		func(b *atlas.SliceBundle) *atlas.PlaneSample { return b.Coronal },
		func(b *atlas.SliceBundle) *atlas.PlaneSample { return b.Horizontal },
	} {
		for _, bundle := range g.Bundles() {
			if bundle == nil {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, displayImage(pick(bundle)))
		}
	}
	return cells
}

// displayImage prefers the marked copy and falls back to the unmarked image.
func displayImage(p *atlas.PlaneSample) image.Image {
	if p == nil {
		return nil
	}
	if p.Marked != nil {
		return p.Marked
	}
	return p.Image
}

// cellSize returns a uniform cell size fitting the largest available image.
func cellSize(cells []image.Image) (int, int) {
	w, h := 0, 0
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		b := cell.Bounds()
		if b.Dx() > w {
			w = b.Dx()
		}
		if b.Dy() > h {
			h = b.Dy()
		}
	}
	if w == 0 {
		w = minCellWidth
	}
	if h == 0 {
		h = minCellHeight
	}
	return w, h
}

func drawPlaceholder(dst *image.RGBA, rect image.Rectangle) {
	draw.Draw(dst, rect, image.NewUniform(placeholderFill), image.Point{}, draw.Src)
	cx := (rect.Min.X + rect.Max.X) / 2
	cy := (rect.Min.Y + rect.Max.Y) / 2
	drawCenteredText(dst, basicfont.Face7x13, placeholderLabel, cx, cy, placeholderInk)
}

// drawText draws a string at (x, y) using the given font face.
func drawText(dst *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCenteredText draws a string centered at (cx, cy).
func drawCenteredText(dst *image.RGBA, face font.Face, s string, cx, cy int, c color.RGBA) {
	advance := font.MeasureString(face, s)
	drawText(dst, face, s, cx-advance.Round()/2, cy, c)
}
