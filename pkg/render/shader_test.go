package render

import (
	"math"
	"testing"

	"github.com/umbra3d/umbra/pkg/math3d"
)

func TestDepthShaderVertex(t *testing.T) {
	shader := &DepthShader{VPV: math3d.Identity()}

	var vary Varyings
	got := shader.Vertex(0, math3d.V4(2, 4, 6, 2), math3d.V2(0, 0), math3d.Zero3(), &vary)

	want := math3d.V4(1, 2, 3, 1)
	if got != want {
		t.Errorf("vertex = %v, want %v", got, want)
	}
	if vary.Screen[0] != want {
		t.Errorf("varying screen = %v, want %v", vary.Screen[0], want)
	}
}

func TestDepthShaderFragment(t *testing.T) {
	shader := &DepthShader{}

	tests := []struct {
		name string
		z    float64
		want float64
	}{
		{"near plane", 1, 255},
		{"far plane", -1, 255 * math.Exp(-8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vary Varyings
			for i := range 3 {
				vary.Screen[i] = math3d.V4(0, 0, tt.z, 1)
			}
			got, ok := shader.Fragment(&vary, math3d.V3(1.0/3, 1.0/3, 1.0/3))
			if !ok {
				t.Fatal("depth fragment must never discard")
			}
			if math.Abs(got.X-tt.want) > 1e-9 {
				t.Errorf("intensity = %v, want %v", got.X, tt.want)
			}
			if got.X != got.Y || got.Y != got.Z {
				t.Errorf("depth output should be grayscale, got %v", got)
			}
		})
	}
}

// solidTexture builds a 1x1 texture of one color.
func solidTexture(c Color) *Texture {
	tex := NewTexture(1, 1)
	tex.SetPixel(0, 0, c)
	return tex
}

// flatNormalMaterial is white albedo with a straight-up tangent-space
// normal and no specular map.
func flatNormalMaterial() *TextureSet {
	return &TextureSet{
		DiffuseMap: solidTexture(RGB(255, 255, 255)),
		NormalMap:  solidTexture(RGB(127, 127, 255)),
	}
}

// litVaryings builds fragment inputs for a surface at the origin facing
// +Z, already perspective-divided with w=1.
func litVaryings() *Varyings {
	var vary Varyings
	for i := range 3 {
		vary.Screen[i] = math3d.V4(0, 0, 0, 1) // W carries 1/w
		vary.UV[i] = math3d.V2(0.5, 0.5)
		vary.Normal[i] = math3d.V3(0, 0, 1)
		vary.World[i] = math3d.Zero3()
		vary.LightPos[i] = math3d.V3(2, 2, 0)
	}
	return &vary
}

func testLight() LightColor {
	return LightColor{
		Ambient:  math3d.V3(0.3, 0.3, 0.3),
		Diffuse:  math3d.V3(1, 1, 1),
		Specular: math3d.V3(0.5, 0.5, 0.5),
	}
}

func TestPhongFragmentLit(t *testing.T) {
	shader := &PhongShader{
		ShadowMap: NewSampleBuffer(4, 4, 1),
		LightPos:  math3d.V3(0, 0, 1),
		EyePos:    math3d.V3(0, 0, 5),
		Light:     testLight(),
		Material:  flatNormalMaterial(),
		Tangent:   math3d.V3(1, 0, 0),
		Bitangent: math3d.V3(0, 1, 0),
	}

	got, ok := shader.Fragment(litVaryings(), math3d.V3(1.0/3, 1.0/3, 1.0/3))
	if !ok {
		t.Fatal("fragment unexpectedly discarded")
	}

	// Surface faces the light head-on with an empty shadow map: full
	// ambient plus full diffuse, no specular without a specular map.
	want := 0.3*255 + 255.0
	if math.Abs(got.X-want) > 2 {
		t.Errorf("lit intensity = %v, want about %v", got.X, want)
	}
}

func TestPhongFragmentShadowed(t *testing.T) {
	shadow := NewSampleBuffer(4, 4, 1)
	// Every shadow map texel holds a depth much closer to the light
	// than the fragment, so all PCF taps report occlusion.
	for y := range 4 {
		for x := range 4 {
			shadow.Set(x, y, 0, 10, math3d.Zero3())
		}
	}

	shader := &PhongShader{
		ShadowMap: shadow,
		LightPos:  math3d.V3(0, 0, 1),
		EyePos:    math3d.V3(0, 0, 5),
		Light:     testLight(),
		Material:  flatNormalMaterial(),
		Tangent:   math3d.V3(1, 0, 0),
		Bitangent: math3d.V3(0, 1, 0),
	}

	got, ok := shader.Fragment(litVaryings(), math3d.V3(1.0/3, 1.0/3, 1.0/3))
	if !ok {
		t.Fatal("fragment unexpectedly discarded")
	}

	// Fully shadowed: ambient term only.
	want := 0.3 * 255
	if math.Abs(got.X-want) > 1 {
		t.Errorf("shadowed intensity = %v, want %v", got.X, want)
	}
}

func TestPhongFragmentRejectsTinyInvW(t *testing.T) {
	shader := &PhongShader{
		ShadowMap: NewSampleBuffer(4, 4, 1),
		Material:  &TextureSet{},
		Light:     testLight(),
	}

	var vary Varyings // Screen W all zero: interpolated 1/w below the guard
	if _, ok := shader.Fragment(&vary, math3d.V3(1.0/3, 1.0/3, 1.0/3)); ok {
		t.Error("fragment with degenerate 1/w should be discarded")
	}
}

func TestPhongFragmentMissingMapsShadeBlackAmbient(t *testing.T) {
	shader := &PhongShader{
		ShadowMap: NewSampleBuffer(4, 4, 1),
		LightPos:  math3d.V3(0, 0, 1),
		EyePos:    math3d.V3(0, 0, 5),
		Light:     testLight(),
		Material:  &TextureSet{}, // all maps nil
	}

	got, ok := shader.Fragment(litVaryings(), math3d.V3(1.0/3, 1.0/3, 1.0/3))
	if !ok {
		t.Fatal("fragment unexpectedly discarded")
	}
	// Zero albedo and zero normal sample: everything shades to black
	// rather than failing.
	if got.Len() > epsilon {
		t.Errorf("missing maps shaded %v, want black", got)
	}
}

func TestPhongVertexPerspectiveVaryings(t *testing.T) {
	// VPV that only doubles w: post-transform w=2 exercises every
	// divide in the vertex stage.
	vpv := math3d.Identity()
	vpv.Set(3, 3, 2)

	shader := &PhongShader{
		VPV:      vpv,
		LightVPV: math3d.Identity(),
	}

	var vary Varyings
	got := shader.Vertex(0, math3d.V4(2, 4, 6, 1), math3d.V2(0.4, 0.8), math3d.V3(0, 0, 1), &vary)

	// x,y divide once by w, z twice, W holds 1/w.
	want := math3d.V4(1, 2, 1.5, 0.5)
	if got.Sub(want).Len() > epsilon {
		t.Errorf("vertex = %v, want %v", got, want)
	}
	if d := vary.UV[0].Sub(math3d.V2(0.2, 0.4)); d.Len() > epsilon {
		t.Errorf("uv varying = %v, want (0.2,0.4)", vary.UV[0])
	}
	if !vecNear(vary.World[0], math3d.V3(1, 2, 3), epsilon) {
		t.Errorf("world varying = %v, want (1,2,3)", vary.World[0])
	}
	if !vecNear(vary.Normal[0], math3d.V3(0, 0, 0.5), epsilon) {
		t.Errorf("normal varying = %v, want (0,0,0.5)", vary.Normal[0])
	}
}
