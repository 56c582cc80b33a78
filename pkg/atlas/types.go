package atlas

import (
	"image"

	"implantplanner/pkg/geometry"
)

// PlaneSample is one anatomical plane of a lookup result: the marker position
// in pixel coordinates of the atlas image, the URL the image was served from,
// and the decoded image data when retrieval succeeded.
//
// Marked is only ever derived from Image; when Image is nil, Marked is nil.
type PlaneSample struct {
	// Top is the vertical marker position in pixels from the image top.
	Top int

	// Left is the horizontal marker position in pixels from the image left.
	Left int

	// ImageURL is the source URL of the cross-section image.
	ImageURL string

	// Image is the decoded unmarked cross-section, or nil when the image
	// could not be fetched or decoded.
	Image image.Image

	// Marked is an annotated copy of Image with marker overlays drawn on it.
	Marked image.Image
}

// SliceBundle groups the three anatomical planes returned by one atlas lookup
// for a single stereotaxic point. The bundle identity is immutable; its planes
// are mutated in place only to attach marked image copies.
type SliceBundle struct {
	// Point is the stereotaxic coordinate this bundle was looked up for.
	Point geometry.Point3D

	Coronal    *PlaneSample
	Sagittal   *PlaneSample
	Horizontal *PlaneSample
}

// Planes returns the three planes in the fixed coronal, sagittal, horizontal
// order used throughout the pipeline.
func (b *SliceBundle) Planes() []*PlaneSample {
	return []*PlaneSample{b.Coronal, b.Sagittal, b.Horizontal}
}
