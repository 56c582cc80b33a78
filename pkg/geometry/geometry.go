// Package geometry derives stereotaxic implant target coordinates from a base
// position, an implant rotation angle, and the physical spans of the implant.
// All coordinates are expressed in the standard rat stereotaxic frame:
// anteroposterior (AP), mediolateral (ML) and dorsoventral (DV), in millimeters.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3D is a single stereotaxic coordinate in millimeters.
// Values are immutable once computed.
type Point3D struct {
	// AP is the anteroposterior position relative to bregma in mm.
	AP float64

	// ML is the mediolateral position relative to the midline in mm.
	ML float64

	// DV is the dorsoventral position relative to the skull surface in mm.
	DV float64
}

func (p Point3D) String() string {
	return fmt.Sprintf("(AP=%.3f, ML=%.3f, DV=%.3f)", p.AP, p.ML, p.DV)
}

// vec maps a point onto a gonum r3 vector so the offset arithmetic can be
// expressed as plain vector addition. AP maps to X, ML to Y and DV to Z.
func (p Point3D) vec() r3.Vec {
	return r3.Vec{X: p.AP, Y: p.ML, Z: p.DV}
}

func fromVec(v r3.Vec) Point3D {
	return Point3D{AP: v.X, ML: v.Y, DV: v.Z}
}

// Triplet holds the three electrode targets of one implant row,
// ordered left to right as they appear when facing the animal.
type Triplet struct {
	Left   Point3D
	Center Point3D
	Right  Point3D
}

// Points returns the targets in display order (left, center, right).
func (t Triplet) Points() []Point3D {
	return []Point3D{t.Left, t.Center, t.Right}
}

// DeriveTargets computes the electrode tip (bottom) targets and, when an
// insertion depth is given, the electrode entry (top) targets.
//
// base is the surgeon-specified target. angleDeg is the implant rotation in
// degrees; a positive angle rotates the left/right offset pair counter to the
// increasing AP/ML axes. spanUm is the full distance between the left and
// right electrodes in microns, skullUm the skull thickness added to DV for
// all bottom points, and depthUm the optional insertion depth.
//
// depthUm is an explicit tri-state: nil means no top triplet is wanted, while
// a pointer to zero requests a top triplet coincident with the bottom one.
func DeriveTargets(base Point3D, angleDeg, spanUm, skullUm float64, depthUm *float64) (Triplet, *Triplet) {
	s := spanUm / 1000.0 / 2.0
	rad := angleDeg * math.Pi / 180.0

	offset := r3.Vec{X: math.Sin(rad) * s, Y: math.Cos(rad) * s}
	center := base.vec()
	center.Z += skullUm / 1000.0

	bottom := Triplet{
		Left:   fromVec(r3.Sub(center, offset)),
		Center: fromVec(center),
		Right:  fromVec(r3.Add(center, offset)),
	}

	if depthUm == nil {
		return bottom, nil
	}

	rise := r3.Vec{Z: *depthUm / 1000.0}
	top := Triplet{
		Left:   fromVec(r3.Sub(bottom.Left.vec(), rise)),
		Center: fromVec(r3.Sub(bottom.Center.vec(), rise)),
		Right:  fromVec(r3.Sub(bottom.Right.vec(), rise)),
	}
	return bottom, &top
}
