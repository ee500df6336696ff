package render

import "github.com/umbra3d/umbra/pkg/math3d"

// Varyings carries the per-triangle vertex outputs from the vertex stage
// to the fragment stage. The pipeline owns one instance per triangle and
// hands it to both stages, so shaders stay free of per-triangle mutable
// state and a single shader value can be reused across a whole mesh.
type Varyings struct {
	Screen   [3]math3d.Vec4 // viewport position, W holds 1/w for perspective correction
	UV       [3]math3d.Vec2
	Normal   [3]math3d.Vec3
	World    [3]math3d.Vec3
	LightPos [3]math3d.Vec3 // light-space viewport position for shadow lookups
}

// Shader is one programmable stage pair of the pipeline.
//
// Vertex is called once per triangle corner (nth in 0..2) with the
// world-space position, UV and world-space normal; it writes its outputs
// into vary and returns the viewport-space position handed to the
// rasterizer.
//
// Fragment is called once per covered pixel with the barycentric weights
// of the pixel center. It returns the shaded color (0..255 per channel)
// and whether the fragment is kept; a discarded fragment rejects the
// whole pixel.
type Shader interface {
	Vertex(nth int, world math3d.Vec4, uv math3d.Vec2, normal math3d.Vec3, vary *Varyings) math3d.Vec4
	Fragment(vary *Varyings, bar math3d.Vec3) (math3d.Vec3, bool)
}

// LightColor groups the three intensity terms of the single scene light.
type LightColor struct {
	Ambient  math3d.Vec3
	Diffuse  math3d.Vec3
	Specular math3d.Vec3
}

// interpVec4 blends three corner values with barycentric weights.
func interpVec4(v [3]math3d.Vec4, bar math3d.Vec3) math3d.Vec4 {
	return v[0].Scale(bar.X).Add(v[1].Scale(bar.Y)).Add(v[2].Scale(bar.Z))
}

func interpVec3(v [3]math3d.Vec3, bar math3d.Vec3) math3d.Vec3 {
	return v[0].Scale(bar.X).Add(v[1].Scale(bar.Y)).Add(v[2].Scale(bar.Z))
}

func interpVec2(v [3]math3d.Vec2, bar math3d.Vec3) math3d.Vec2 {
	return v[0].Scale(bar.X).Add(v[1].Scale(bar.Y)).Add(v[2].Scale(bar.Z))
}
