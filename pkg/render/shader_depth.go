package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// DepthShader renders geometry from the light's point of view, producing
// the depth buffer consumed by shadow lookups in the lit pass. Its color
// output is an exponential visualization of depth (near is bright) so the
// shadow pass can be resolved and saved as a grayscale image.
type DepthShader struct {
	// VPV is viewport * projection * view for the light camera.
	VPV math3d.Mat4
}

// Vertex projects the world position into the light's viewport.
func (s *DepthShader) Vertex(nth int, world math3d.Vec4, _ math3d.Vec2, _ math3d.Vec3, vary *Varyings) math3d.Vec4 {
	sc := s.VPV.MulVec4(world)
	sc = sc.Scale(1 / sc.W)
	vary.Screen[nth] = sc
	return sc
}

// Fragment accepts everything; the depth test in the sample buffer does
// the work. The emitted intensity maps post-projection z in [-1,1] onto
// a steep exponential ramp so nearby depth differences stay visible.
func (s *DepthShader) Fragment(vary *Varyings, bar math3d.Vec3) (math3d.Vec3, bool) {
	pos := interpVec4(vary.Screen, bar)
	intensity := 255 * math.Pow(math.Exp(pos.Z-1), 4)
	return math3d.V3(intensity, intensity, intensity), true
}
