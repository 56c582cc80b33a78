// Package planner is the top-level implant planning surface. One call derives
// the left/center/right electrode targets from the base coordinate and
// rotation angle, looks up the atlas slices for each target, and assembles
// the marked review groups for the electrode tips and, when an insertion
// depth is given, the electrode entry points.
package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"implantplanner/pkg/atlas"
	"implantplanner/pkg/geometry"
	"implantplanner/pkg/overlay"
	"implantplanner/pkg/review"
)

// Options carries the named geometric and presentation parameters of one
// planning call. The zero value is not useful; start from DefaultOptions.
type Options struct {
	// SpanMicrons is the full distance between the left and right
	// electrode targets, in microns.
	SpanMicrons float64

	// SkullMicrons is the skull thickness added to DV for all bottom
	// targets, in microns.
	SkullMicrons float64

	// DepthMicrons is the optional insertion depth defining the top
	// targets. nil means no top group is derived; an explicit zero is a
	// valid, different request.
	DepthMicrons *float64

	// MarkerRadius is the overlay circle radius in pixels.
	MarkerRadius int

	// NegateAngle reproduces the rotation sense of the legacy planner,
	// which negated the angle before computing the offsets. Leave false
	// for the canonical convention.
	NegateAngle bool
}

// DefaultOptions returns the standard three-electrode implant parameters.
func DefaultOptions() Options {
	return Options{
		SpanMicrons:  750,
		SkullMicrons: 500,
		MarkerRadius: 5,
	}
}

// Result is the outcome of one planning call.
type Result struct {
	// Bottom reviews the electrode tip targets.
	Bottom *review.Group

	// Top reviews the electrode entry targets, or nil when no insertion
	// depth was requested. Absence is meaningful and must not be rendered
	// as an empty grid.
	Top *review.Group

	// BottomTargets and TopTargets are the derived coordinates backing
	// the two groups.
	BottomTargets geometry.Triplet
	TopTargets    *geometry.Triplet

	// Angle is the implant rotation the grids were derived for, as given
	// by the caller.
	Angle float64
}

// BottomTitle returns the figure title for the tip group.
func (r *Result) BottomTitle() string {
	return fmt.Sprintf("Bottom Electrode Locations %g°", r.Angle)
}

// TopTitle returns the figure title for the entry group.
func (r *Result) TopTitle() string {
	return fmt.Sprintf("Top Electrode Locations %g°", r.Angle)
}

// Planner wires the lookup client and overlay engine together.
type Planner struct {
	client *atlas.Client
	engine *overlay.Engine
	log    *zap.Logger
}

// New creates a planner. log may be nil for a silent planner.
func New(client *atlas.Client, engine *overlay.Engine, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{client: client, engine: engine, log: log}
}

// Plan derives the implant targets for one base coordinate and fetches their
// atlas slices. Lookups run sequentially, left to center to right, bottom
// group first; the first metadata-level failure aborts the whole call and no
// partial group is returned. Failed image fetches degrade per plane only.
func (p *Planner) Plan(ctx context.Context, ap, ml, dv, angleDeg float64, opts Options) (*Result, error) {
	session := uuid.NewString()
	log := p.log.With(zap.String("session", session))

	angle := angleDeg
	if opts.NegateAngle {
		angle = -angle
	}

	base := geometry.Point3D{AP: ap, ML: ml, DV: dv}
	bottomTargets, topTargets := geometry.DeriveTargets(base, angle, opts.SpanMicrons, opts.SkullMicrons, opts.DepthMicrons)

	log.Info("derived implant targets",
		zap.Float64("angle_deg", angleDeg),
		zap.Float64("span_um", opts.SpanMicrons),
		zap.Float64("skull_um", opts.SkullMicrons),
		zap.Bool("with_top", topTargets != nil))

	bottom, err := p.lookupGroup(ctx, log, bottomTargets, opts.MarkerRadius)
	if err != nil {
		return nil, fmt.Errorf("looking up bottom targets: %w", err)
	}

	result := &Result{
		Bottom:        bottom,
		BottomTargets: bottomTargets,
		TopTargets:    topTargets,
		Angle:         angleDeg,
	}

	if topTargets != nil {
		top, err := p.lookupGroup(ctx, log, *topTargets, opts.MarkerRadius)
		if err != nil {
			return nil, fmt.Errorf("looking up top targets: %w", err)
		}
		result.Top = top
	}

	return result, nil
}

// lookupGroup fetches the three bundles of one triplet, consolidates them and
// applies the marker overlays. The shared horizontal marker set contains the
// own points of all three bundles so each horizontal image shows every target.
func (p *Planner) lookupGroup(ctx context.Context, log *zap.Logger, targets geometry.Triplet, radiusPx int) (*review.Group, error) {
	bundles := make([]*atlas.SliceBundle, 0, 3)
	for _, target := range targets.Points() {
		log.Debug("looking up slice", zap.String("point", target.String()))
		bundle, err := p.client.Lookup(ctx, target.ML, target.AP, target.DV)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}

	group := review.Consolidate(bundles[0], bundles[1], bundles[2])

	horizontal := make([]overlay.Circle, 0, 3)
	for _, bundle := range group.Bundles() {
		if h := bundle.Horizontal; h != nil {
			horizontal = append(horizontal, overlay.Circle{X: h.Left, Y: h.Top, Radius: radiusPx})
		}
	}
	p.engine.MarkGroup(group.Bundles(), radiusPx, horizontal)

	return group, nil
}
