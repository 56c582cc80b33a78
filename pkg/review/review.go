// Package review assembles slice lookups into side-by-side comparison groups
// and renders them as 2x3 image grids for visual verification of the planned
// implant targets.
package review

import "implantplanner/pkg/atlas"

// Group is the ordered left/center/right triplet of slice bundles assembled
// for one comparison figure. Bottom (tip) and top (entry) groups are built
// independently and never merged.
type Group struct {
	Left   *atlas.SliceBundle
	Center *atlas.SliceBundle
	Right  *atlas.SliceBundle
}

// Consolidate wraps three lookups into a group, preserving display order.
func Consolidate(left, center, right *atlas.SliceBundle) *Group {
	return &Group{Left: left, Center: center, Right: right}
}

// Bundles returns the group members in display order.
func (g *Group) Bundles() []*atlas.SliceBundle {
	return []*atlas.SliceBundle{g.Left, g.Center, g.Right}
}
