package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// PCF kernel: 4x4 taps over [-2,2) in light-space pixels, and the depth
// bias that suppresses shadow acne.
const (
	pcfRadius  = 2
	shadowBias = 0.005
)

const specularExponent = 32

// PhongShader implements Blinn-Phong lighting with tangent-space normal
// mapping and percentage-closer-filtered shadows. Tangent and Bitangent
// are per-face uniforms set by the pipeline before each face is drawn;
// everything else is constant across a pass.
type PhongShader struct {
	// VPV is viewport * projection * view for the eye camera.
	VPV math3d.Mat4
	// LightVPV is the same product for the light camera used by the
	// shadow pass, mapping world space into ShadowMap coordinates.
	LightVPV  math3d.Mat4
	ShadowMap *SampleBuffer

	LightPos math3d.Vec3 // directional: only the direction is used
	EyePos   math3d.Vec3
	Light    LightColor
	Material Material

	Tangent   math3d.Vec3
	Bitangent math3d.Vec3
}

// Vertex projects the world position into the eye viewport and stores
// the perspective-divided varyings. Every attribute is pre-divided by
// the clip-space w so the fragment stage can interpolate linearly and
// recover perspective-correct values with a single multiply; Screen.W
// holds 1/w for that purpose.
func (s *PhongShader) Vertex(nth int, world math3d.Vec4, uv math3d.Vec2, normal math3d.Vec3, vary *Varyings) math3d.Vec4 {
	sc := s.VPV.MulVec4(world)
	w := sc.W

	vary.World[nth] = world.Vec3().Scale(1 / w)

	sc = sc.Scale(1 / w)
	sc.Z /= w // depth also perspective-corrected
	sc.W = 1 / w
	vary.Screen[nth] = sc

	vary.UV[nth] = uv.Scale(1 / w)
	vary.Normal[nth] = normal.Scale(1 / w)

	lp := s.LightVPV.MulVec4(world)
	lp = lp.Scale(1 / lp.W)
	vary.LightPos[nth] = lp.Vec3().Scale(1 / w)

	return sc
}

// Fragment shades one pixel: perspective-correct attribute recovery,
// TBN normal mapping, Blinn-Phong ambient/diffuse/specular, and a PCF
// shadow factor attenuating the direct terms.
func (s *PhongShader) Fragment(vary *Varyings, bar math3d.Vec3) (math3d.Vec3, bool) {
	invW := interpVec4(vary.Screen, bar).W
	if math.Abs(invW) < 1e-7 {
		return math3d.Vec3{}, false
	}
	w := 1 / invW

	uv := interpVec2(vary.UV, bar).Scale(w)
	world := interpVec3(vary.World, bar).Scale(w)
	vn := interpVec3(vary.Normal, bar).Scale(w)

	// Tangent-space normal through the TBN basis.
	sample := s.Material.Normal(uv)
	n := s.Tangent.Scale(sample.X).
		Add(s.Bitangent.Scale(sample.Y)).
		Add(vn.Scale(sample.Z)).
		Normalize()

	lightDir := s.LightPos.Normalize()
	eyeDir := s.EyePos.Sub(world).Normalize()
	half := lightDir.Add(eyeDir).Scale(0.5)

	albedo := s.Material.Diffuse(uv)
	ambient := s.Light.Ambient.Mul(albedo)
	diffuse := s.Light.Diffuse.Mul(albedo.Scale(math.Max(0, n.Dot(lightDir))))
	specular := s.Light.Specular.Scale(s.Material.Specular(uv) * math.Pow(math.Max(0, n.Dot(half)), specularExponent))

	shadow := s.shadowFactor(interpVec3(vary.LightPos, bar).Scale(w))

	color := ambient.Add(diffuse.Add(specular).Scale(1 - shadow))
	return color, true
}

// shadowFactor returns the fraction of PCF taps around the light-space
// position that are occluded, in [0,1]. Taps outside the shadow map do
// not count toward the average.
func (s *PhongShader) shadowFactor(lsPos math3d.Vec3) float64 {
	taps := 0
	occluded := 0.0
	for dx := -pcfRadius; dx < pcfRadius; dx++ {
		x := int(lsPos.X + float64(dx))
		if x < 0 || x >= s.ShadowMap.Width {
			continue
		}
		for dy := -pcfRadius; dy < pcfRadius; dy++ {
			y := int(lsPos.Y + float64(dy))
			if y < 0 || y >= s.ShadowMap.Height {
				continue
			}
			taps++
			if lsPos.Z+shadowBias < s.ShadowMap.DepthAt(x, y, 0) {
				occluded++
			}
		}
	}
	if taps == 0 {
		return 0
	}
	return occluded / float64(taps)
}
