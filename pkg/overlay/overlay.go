// Package overlay draws marker circles on atlas cross-section images so the
// derived implant targets can be reviewed visually. Drawing is delegated to an
// Annotator backend selected at build time; when no backend is injected the
// engine degrades to a no-op and callers fall back to the unmarked images.
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"implantplanner/pkg/atlas"
)

// markColor is the fixed opaque highlight used for every marker.
var markColor = color.RGBA{R: 255, A: 255}

// Circle is one filled marker: a pixel center and a radius.
type Circle struct {
	X, Y   int
	Radius int
}

// Annotator draws filled circles on a fresh copy of src and returns the copy.
// Implementations never mutate src. A nil return reports a drawing failure.
type Annotator interface {
	MarkCircles(src image.Image, circles []Circle) image.Image
}

// Engine applies marker overlays to slice bundles. A nil annotator makes
// every marking operation a no-op that leaves bundles unchanged.
type Engine struct {
	ann Annotator
}

// NewEngine wraps an annotator. Pass nil to disable marking entirely.
func NewEngine(ann Annotator) *Engine {
	return &Engine{ann: ann}
}

// NewDefaultEngine uses the drawing backend selected by build tags.
func NewDefaultEngine() *Engine {
	return NewEngine(NewAnnotator())
}

// Available reports whether the engine can draw at all.
func (e *Engine) Available() bool {
	return e.ann != nil
}

// MarkCircle draws one filled circle on a copy of src. It returns nil when no
// drawing capability is available, so callers can leave marked images unset.
func (e *Engine) MarkCircle(src image.Image, x, y, radius int) image.Image {
	if e.ann == nil || src == nil {
		return nil
	}
	return e.ann.MarkCircles(src, []Circle{{X: x, Y: y, Radius: radius}})
}

// MarkGroup annotates every bundle of one review group in place.
//
// Each bundle's coronal plane receives a single marker at its own position.
// The horizontal plane receives the shared horizontalPts marker set when one
// is supplied, so every horizontal image shows all derived targets at once;
// otherwise it falls back to the bundle's own point, like coronal. Existing
// marked copies are replaced; unmarked source images are never touched.
func (e *Engine) MarkGroup(bundles []*atlas.SliceBundle, radiusPx int, horizontalPts []Circle) []*atlas.SliceBundle {
	if e.ann == nil {
		return bundles
	}

	for _, bundle := range bundles {
		if bundle == nil {
			continue
		}
		markOwn(e.ann, bundle.Coronal, radiusPx)

		if h := bundle.Horizontal; h != nil && h.Image != nil {
			if len(horizontalPts) > 0 {
				if marked := e.ann.MarkCircles(h.Image, horizontalPts); marked != nil {
					h.Marked = marked
				}
			} else {
				markOwn(e.ann, h, radiusPx)
			}
		}
	}
	return bundles
}

// markOwn marks a plane at its own (left, top) position.
func markOwn(ann Annotator, p *atlas.PlaneSample, radiusPx int) {
	if p == nil || p.Image == nil {
		return
	}
	marked := ann.MarkCircles(p.Image, []Circle{{X: p.Left, Y: p.Top, Radius: radiusPx}})
	if marked != nil {
		p.Marked = marked
	}
}

// cloneRGBA copies any image into a freshly allocated RGBA buffer anchored at
// the origin, leaving the source untouched.
func cloneRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}
