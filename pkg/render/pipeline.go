package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// FaceMesh is the geometry view the pipeline consumes: triangulated
// faces addressed by index, each corner exposing model-space position,
// normal and UV.
type FaceMesh interface {
	FaceCount() int
	Corner(face, nth int) (pos math3d.Vec3, normal math3d.Vec3, uv math3d.Vec2)
}

// Object places a mesh in the scene with a world transform and the
// material sampled by the lit pass.
type Object struct {
	Mesh      FaceMesh
	Transform math3d.Mat4
	Material  Material
}

// Scene holds the camera, the single directional-style light and the
// objects to draw. FOV is the vertical field of view in radians; Near
// and Far are view-space Z planes and negative for visible geometry.
// ShadowExtent is the half-width of the orthographic box the shadow
// pass renders.
type Scene struct {
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3

	LightPos math3d.Vec3
	Light    LightColor

	FOV  float64
	Near float64
	Far  float64

	ShadowExtent float64

	Objects []*Object
}

// NewScene returns a scene with the standard camera and light setup.
func NewScene() *Scene {
	return &Scene{
		Eye:    math3d.V3(1, 1, 3),
		Center: math3d.Zero3(),
		Up:     math3d.Up(),

		LightPos: math3d.V3(1, 1, 1),
		Light: LightColor{
			Ambient:  math3d.V3(0.3, 0.3, 0.3),
			Diffuse:  math3d.V3(1, 1, 1),
			Specular: math3d.V3(0.5, 0.5, 0.5),
		},

		FOV:          math.Pi / 4,
		Near:         -0.01,
		Far:          -10,
		ShadowExtent: 2,
	}
}

// ShadowPass renders every object's depth from the light's point of view
// into buf using an orthographic projection, and returns the light's
// combined viewport-projection-view matrix for shadow lookups in the
// following lit pass.
func (s *Scene) ShadowPass(buf *SampleBuffer) math3d.Mat4 {
	view := LookAt(s.LightPos, s.Center, s.Up)
	e := s.ShadowExtent
	proj := Ortho(-e, e, -e, e, s.Near, s.Far)
	vpv := Viewport(buf.Width, buf.Height).Mul(proj).Mul(view)

	for _, obj := range s.Objects {
		shader := &DepthShader{VPV: vpv}
		normalMat := obj.Transform.InverseTranspose()
		cullMat := view.Mul(obj.Transform).InverseTranspose()

		for f := 0; f < obj.Mesh.FaceCount(); f++ {
			p0, _, _ := obj.Mesh.Corner(f, 0)
			p1, _, _ := obj.Mesh.Corner(f, 1)
			p2, _, _ := obj.Mesh.Corner(f, 2)
			faceN := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
			if cullMat.MulVec4(math3d.V4FromV3(faceN, 0)).Z <= 0 {
				continue
			}

			var (
				screen [3]math3d.Vec4
				vary   Varyings
			)
			for j := range 3 {
				pos, normal, uvc := obj.Mesh.Corner(f, j)
				world := obj.Transform.MulVec4(math3d.V4FromV3(pos, 1))
				n := normalMat.MulVec4(math3d.V4FromV3(normal, 0)).Vec3()
				screen[j] = shader.Vertex(j, world, uvc, n, &vary)
			}
			RasterizeTriangle(screen, shader, &vary, buf, CenterSample)
		}
	}
	return vpv
}

// LitPass renders every object with Blinn-Phong shading into buf,
// sampling shadowMap through lightVPV as produced by ShadowPass. Faces
// are backface-culled in view space, clipped against the Z frustum
// planes and fan-triangulated before rasterization.
func (s *Scene) LitPass(buf *SampleBuffer, shadowMap *SampleBuffer, lightVPV math3d.Mat4, offsets []SampleOffset) {
	view := LookAt(s.Eye, s.Center, s.Up)
	aspect := float64(buf.Width) / float64(buf.Height)
	proj := Projection(s.FOV, aspect, s.Near, s.Far)
	pv := proj.Mul(view)
	vpv := Viewport(buf.Width, buf.Height).Mul(pv)

	for _, obj := range s.Objects {
		shader := &PhongShader{
			VPV:       vpv,
			LightVPV:  lightVPV,
			ShadowMap: shadowMap,
			LightPos:  s.LightPos,
			EyePos:    s.Eye,
			Light:     s.Light,
			Material:  obj.Material,
		}
		normalMat := obj.Transform.InverseTranspose()
		cullMat := view.Mul(obj.Transform).InverseTranspose()

		for f := 0; f < obj.Mesh.FaceCount(); f++ {
			p0, _, uv0 := obj.Mesh.Corner(f, 0)
			p1, _, uv1 := obj.Mesh.Corner(f, 1)
			p2, _, uv2 := obj.Mesh.Corner(f, 2)

			// Backface cull with the geometric face normal in view
			// space; the camera looks down -Z so visible front faces
			// have positive Z normals.
			faceN := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
			if cullMat.MulVec4(math3d.V4FromV3(faceN, 0)).Z <= 0 {
				continue
			}

			poly := make([]ClipVertex, 3)
			for j := range 3 {
				pos, normal, uvc := obj.Mesh.Corner(f, j)
				world := obj.Transform.MulVec4(math3d.V4FromV3(pos, 1))
				poly[j] = ClipVertex{
					World:  world,
					Clip:   pv.MulVec4(world),
					UV:     uvc,
					Normal: normalMat.MulVec4(math3d.V4FromV3(normal, 0)).Vec3(),
				}
			}

			// Near/far clipping only; X and Y overflow is handled by
			// the rasterizer's screen bounds clamp.
			poly = ClipAxis(poly, AxisZ)
			if len(poly) < 3 {
				continue
			}

			shader.Tangent, shader.Bitangent = faceTangents(obj.Transform, p0, p1, p2, uv0, uv1, uv2)

			for j := 1; j < len(poly)-1; j++ {
				var (
					screen [3]math3d.Vec4
					vary   Varyings
				)
				tri := [3]ClipVertex{poly[0], poly[j], poly[j+1]}
				for k := range 3 {
					screen[k] = shader.Vertex(k, tri[k].World, tri[k].UV, tri[k].Normal, &vary)
				}
				RasterizeTriangle(screen, shader, &vary, buf, offsets)
			}
		}
	}
}

// faceTangents solves the tangent frame of one face from its world-space
// edges and UV deltas. Degenerate UV mappings (zero determinant) fall
// back to a zero frame, which leaves only the interpolated normal
// contributing in the shader.
func faceTangents(transform math3d.Mat4, p0, p1, p2 math3d.Vec3, uv0, uv1, uv2 math3d.Vec2) (tangent, bitangent math3d.Vec3) {
	e1 := transform.MulVec4(math3d.V4FromV3(p1.Sub(p0), 0)).Vec3()
	e2 := transform.MulVec4(math3d.V4FromV3(p2.Sub(p0), 0)).Vec3()

	du1, dv1 := uv1.X-uv0.X, uv1.Y-uv0.Y
	du2, dv2 := uv2.X-uv0.X, uv2.Y-uv0.Y

	det := du1*dv2 - dv1*du2
	if det == 0 {
		return math3d.Vec3{}, math3d.Vec3{}
	}

	tangent = e1.Scale(dv2).Sub(e2.Scale(dv1)).Div(det).Normalize()
	bitangent = e2.Scale(du1).Sub(e1.Scale(du2)).Div(det).Normalize()
	return tangent, bitangent
}
