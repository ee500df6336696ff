package render

import (
	"testing"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// quadMesh is a square of two CCW triangles facing +Z at a fixed Z,
// centered on the Z axis.
type quadMesh struct {
	half float64
	z    float64
}

func (q *quadMesh) FaceCount() int { return 2 }

func (q *quadMesh) Corner(face, nth int) (math3d.Vec3, math3d.Vec3, math3d.Vec2) {
	s := q.half
	corners := [4]math3d.Vec3{
		{X: -s, Y: -s, Z: q.z},
		{X: s, Y: -s, Z: q.z},
		{X: s, Y: s, Z: q.z},
		{X: -s, Y: s, Z: q.z},
	}
	uvs := [4]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	idx := [2][3]int{{0, 1, 2}, {0, 2, 3}}

	i := idx[face][nth]
	return corners[i], math3d.V3(0, 0, 1), uvs[i]
}

func testScene(objs ...*Object) *Scene {
	s := NewScene()
	s.Eye = math3d.V3(0, 0, 3)
	s.LightPos = math3d.V3(0, 0, 1)
	s.Objects = objs
	return s
}

func TestShadowPassCoversGeometry(t *testing.T) {
	scene := testScene(&Object{
		Mesh:      &quadMesh{half: 0.5, z: 0},
		Transform: math3d.Identity(),
		Material:  flatNormalMaterial(),
	})

	buf := NewSampleBuffer(64, 64, 1)
	scene.ShadowPass(buf)

	if !buf.Covered(32, 32, 0) {
		t.Error("shadow map center should be covered by the quad")
	}
	if buf.Covered(1, 1, 0) {
		t.Error("shadow map corner outside the quad should be empty")
	}
}

func TestShadowPassDepthSeesNearestOccluder(t *testing.T) {
	floor := &Object{Mesh: &quadMesh{half: 1, z: 0}, Transform: math3d.Identity(), Material: flatNormalMaterial()}
	occluder := &Object{Mesh: &quadMesh{half: 0.25, z: 0.5}, Transform: math3d.Identity(), Material: flatNormalMaterial()}

	scene := testScene(floor, occluder)

	shadow := NewSampleBuffer(128, 128, 1)
	lightVPV := scene.ShadowPass(shadow)

	// The floor point under the occluder center maps into the shadow
	// map; the stored depth there must belong to the occluder, far
	// enough above the floor's own depth to shadow it past the bias.
	p := lightVPV.MulVec4(math3d.V4(0, 0, 0, 1))
	p = p.Scale(1 / p.W)

	stored := shadow.DepthAt(int(p.X), int(p.Y), 0)
	if stored == DepthEmpty {
		t.Fatal("no depth stored where the floor projects")
	}
	if !(p.Z+0.005 < stored) {
		t.Errorf("floor depth %v should test shadowed against stored %v", p.Z, stored)
	}
}

func TestLitPassRendersFrontFaces(t *testing.T) {
	scene := testScene(&Object{
		Mesh:      &quadMesh{half: 0.5, z: 0},
		Transform: math3d.Identity(),
		Material:  flatNormalMaterial(),
	})

	shadow := NewSampleBuffer(64, 64, 1)
	lightVPV := scene.ShadowPass(shadow)

	buf := NewSampleBuffer(64, 64, 1)
	scene.LitPass(buf, shadow, lightVPV, CenterSample)

	if !buf.Covered(32, 32, 0) {
		t.Fatal("quad should cover the image center")
	}

	// Facing the light with an unobstructed view: brighter than the
	// ambient floor of 0.3 * 255.
	c := buf.ColorAt(32, 32, 0)
	if c.X <= 0.3*255 {
		t.Errorf("lit intensity %v should exceed the ambient term", c.X)
	}
}

func TestLitPassCullsBackFaces(t *testing.T) {
	// Same quad seen from behind: every face normal points away.
	scene := testScene(&Object{
		Mesh:      &quadMesh{half: 0.5, z: 0},
		Transform: math3d.Identity(),
		Material:  flatNormalMaterial(),
	})
	scene.Eye = math3d.V3(0, 0, -3)

	shadow := NewSampleBuffer(64, 64, 1)
	lightVPV := scene.ShadowPass(shadow)

	buf := NewSampleBuffer(64, 64, 1)
	scene.LitPass(buf, shadow, lightVPV, CenterSample)

	for y := range 64 {
		for x := range 64 {
			if buf.Covered(x, y, 0) {
				t.Fatalf("pixel (%d,%d) covered despite backface culling", x, y)
			}
		}
	}
}

func TestLitPassMSAAResolvesSofterEdges(t *testing.T) {
	scene := testScene(&Object{
		Mesh:      &quadMesh{half: 0.5, z: 0},
		Transform: math3d.RotateZ(0.4), // tilt so edges cross pixels diagonally
		Material:  flatNormalMaterial(),
	})

	shadow := NewSampleBuffer(64, 64, 1)
	lightVPV := scene.ShadowPass(shadow)

	buf := NewSampleBuffer(64, 64, 4)
	scene.LitPass(buf, shadow, lightVPV, MSAA4)

	partial := false
	for y := range 64 {
		for x := range 64 {
			covered := 0
			for s := range 4 {
				if buf.Covered(x, y, s) {
					covered++
				}
			}
			if covered > 0 && covered < 4 {
				partial = true
			}
		}
	}
	if !partial {
		t.Error("expected partially covered samples along the tilted edges")
	}
}
