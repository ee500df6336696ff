package render

import "github.com/umbra3d/umbra/pkg/math3d"

// Material supplies per-surface texture data to the lit shader.
// Diffuse returns albedo with channels in 0..255, Specular a scalar
// exponent weight in 0..255, Normal a signed tangent-space vector.
type Material interface {
	Diffuse(uv math3d.Vec2) math3d.Vec3
	Specular(uv math3d.Vec2) float64
	Normal(uv math3d.Vec2) math3d.Vec3
}

// TextureSet is the standard Material backed by up to three texture
// maps. Any map may be nil; missing maps sample as zero, which shades
// the surface black rather than failing.
type TextureSet struct {
	DiffuseMap  *Texture
	NormalMap   *Texture
	SpecularMap *Texture
}

// Diffuse samples the albedo map.
func (t *TextureSet) Diffuse(uv math3d.Vec2) math3d.Vec3 {
	if t == nil || t.DiffuseMap == nil {
		return math3d.Vec3{}
	}
	c := t.DiffuseMap.Sample(uv.X, uv.Y)
	return math3d.V3(float64(c.R), float64(c.G), float64(c.B))
}

// Specular samples the specular weight from the red channel.
func (t *TextureSet) Specular(uv math3d.Vec2) float64 {
	if t == nil || t.SpecularMap == nil {
		return 0
	}
	return float64(t.SpecularMap.Sample(uv.X, uv.Y).R)
}

// Normal decodes the tangent-space normal map, mapping each byte from
// [0,255] to [-1,1].
func (t *TextureSet) Normal(uv math3d.Vec2) math3d.Vec3 {
	if t == nil || t.NormalMap == nil {
		return math3d.Vec3{}
	}
	c := t.NormalMap.Sample(uv.X, uv.Y)
	return math3d.V3(
		float64(c.R)/255*2-1,
		float64(c.G)/255*2-1,
		float64(c.B)/255*2-1,
	)
}
