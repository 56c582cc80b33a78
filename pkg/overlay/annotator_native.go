//go:build !purego && !js

package overlay

import (
	"image"

	"gocv.io/x/gocv"
)

// imageAnnotator is the OpenCV drawing backend.
type imageAnnotator struct{}

// NewAnnotator returns the drawing backend selected by build tags.
func NewAnnotator() Annotator {
	return imageAnnotator{}
}

func (imageAnnotator) MarkCircles(src image.Image, circles []Circle) image.Image {
	if src == nil {
		return nil
	}

	mat, err := gocv.ImageToMatRGBA(cloneRGBA(src))
	if err != nil {
		return nil
	}
	defer mat.Close()

	for _, c := range circles {
		// Negative thickness fills the circle
		gocv.Circle(&mat, image.Pt(c.X, c.Y), c.Radius, markColor, -1)
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil
	}
	return out
}
