package render

import "github.com/umbra3d/umbra/pkg/math3d"

// Clip-space axes accepted by ClipAxis.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// ClipVertex is one corner of a polygon moving through the clipper. Clip
// holds the homogeneous clip-space position; the remaining attributes ride
// along and are re-synthesized with perspective correction at plane
// crossings.
type ClipVertex struct {
	World  math3d.Vec4
	Clip   math3d.Vec4
	UV     math3d.Vec2
	Normal math3d.Vec3
}

// ClipAxis clips a convex polygon against the pair of frustum planes of
// one axis, c <= w and c >= -w, using Sutherland-Hodgman in homogeneous
// coordinates. Vertices already inside pass through unchanged. The result
// may have fewer than three vertices, in which case the polygon is fully
// outside and should be discarded.
func ClipAxis(poly []ClipVertex, axis int) []ClipVertex {
	out := clipPlane(poly, axis)
	for i := range out {
		out[i].Clip.SetAt(axis, -out[i].Clip.At(axis))
	}
	out = clipPlane(out, axis)
	for i := range out {
		out[i].Clip.SetAt(axis, -out[i].Clip.At(axis))
	}
	return out
}

// clipPlane clips against the single plane c/w <= 1.
func clipPlane(in []ClipVertex, axis int) []ClipVertex {
	if len(in) == 0 {
		return nil
	}
	out := make([]ClipVertex, 0, len(in)+1)
	for i := range in {
		now := in[i]
		next := in[(i+1)%len(in)]
		cNow := now.Clip.At(axis) / now.Clip.W
		cNext := next.Clip.At(axis) / next.Clip.W

		if cNow <= 1 {
			out = append(out, now)
		}
		if (cNow < 1 && cNext > 1) || (cNow > 1 && cNext < 1) {
			out = append(out, intersect(now, next, axis))
		}
	}
	return out
}

// intersect synthesizes the vertex where edge a->b crosses the plane
// c = w. The clip coordinate interpolates linearly; the attributes use
// perspective-correct interpolation (divide by the endpoint w, lerp,
// multiply back by the harmonically interpolated w).
func intersect(a, b ClipVertex, axis int) ClipVertex {
	da := a.Clip.W - a.Clip.At(axis)
	db := b.Clip.W - b.Clip.At(axis)
	t := da / (da - db)

	wa, wb := a.Clip.W, b.Clip.W
	invW := 1/wa + t*(1/wb-1/wa)
	w := 1 / invW

	var v ClipVertex
	v.Clip = a.Clip.Lerp(b.Clip, t)
	v.World = a.World.Scale(1 / wa).Lerp(b.World.Scale(1/wb), t).Scale(w)
	v.UV = a.UV.Scale(1 / wa).Lerp(b.UV.Scale(1/wb), t).Scale(w)
	v.Normal = a.Normal.Scale(1 / wa).Lerp(b.Normal.Scale(1/wb), t).Scale(w)
	return v
}
