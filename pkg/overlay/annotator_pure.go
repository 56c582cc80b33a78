//go:build purego || js

package overlay

import "image"

// imageAnnotator is the pure Go drawing backend. It rasterizes filled circles
// directly into an RGBA copy of the source image.
type imageAnnotator struct{}

// NewAnnotator returns the drawing backend selected by build tags.
func NewAnnotator() Annotator {
	return imageAnnotator{}
}

func (imageAnnotator) MarkCircles(src image.Image, circles []Circle) image.Image {
	if src == nil {
		return nil
	}
	dst := cloneRGBA(src)
	for _, c := range circles {
		fillCircle(dst, c.X, c.Y, c.Radius)
	}
	return dst
}

// fillCircle paints every pixel within radius of (cx, cy) in the mark color.
func fillCircle(dst *image.RGBA, cx, cy, radius int) {
	if radius < 0 {
		return
	}
	bounds := dst.Bounds()
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				dst.SetRGBA(x, y, markColor)
			}
		}
	}
}
