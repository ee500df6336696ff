package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// Barycentric returns the barycentric coordinates of point p with
// respect to triangle (a, b, c) in 2D. For degenerate (zero-area)
// triangles the first coordinate is negative, so callers treating any
// negative weight as "outside" reject every point.
func Barycentric(a, b, c, p math3d.Vec2) math3d.Vec3 {
	u := math3d.V3(b.X-a.X, c.X-a.X, a.X-p.X).
		Cross(math3d.V3(b.Y-a.Y, c.Y-a.Y, a.Y-p.Y))
	if math.Abs(u.Z) < 1e-5 {
		return math3d.V3(-1, 0, 0)
	}
	return math3d.V3(1-(u.X+u.Y)/u.Z, u.X/u.Z, u.Y/u.Z)
}

// RasterizeTriangle scan-converts one triangle into the sample buffer.
// screen holds the viewport-space corners as returned by the vertex
// stage, with W carrying 1/w. Coverage and depth are evaluated per
// sample offset; the fragment shader runs at most once per pixel, at the
// pixel center, and its color is shared by every covered sample. A
// discarded fragment rejects the whole pixel.
func RasterizeTriangle(screen [3]math3d.Vec4, shader Shader, vary *Varyings, buf *SampleBuffer, offsets []SampleOffset) {
	a := math3d.V2(screen[0].X, screen[0].Y)
	b := math3d.V2(screen[1].X, screen[1].Y)
	c := math3d.V2(screen[2].X, screen[2].Y)

	minX, minY := buf.Width-1, buf.Height-1
	maxX, maxY := 0, 0
	for i := range 3 {
		minX = min(minX, int(screen[i].X))
		minY = min(minY, int(screen[i].Y))
		maxX = max(maxX, int(screen[i].X))
		maxY = max(maxY, int(screen[i].Y))
	}
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, buf.Width-1)
	maxY = min(maxY, buf.Height-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			var (
				color  math3d.Vec3
				shaded bool
			)
			for s, off := range offsets {
				bar := Barycentric(a, b, c, math3d.V2(float64(x)+off.X, float64(y)+off.Y))
				if bar.X < 0 || bar.Y < 0 || bar.Z < 0 {
					continue
				}

				// Perspective-corrected depth: w is harmonic, z is
				// pre-divided by w twice in the vertex stage.
				w := 1 / (bar.X*screen[0].W + bar.Y*screen[1].W + bar.Z*screen[2].W)
				z := (bar.X*screen[0].Z + bar.Y*screen[1].Z + bar.Z*screen[2].Z) * w
				if z < buf.DepthAt(x, y, s) {
					continue
				}

				if !shaded {
					centerBar := Barycentric(a, b, c, math3d.V2(float64(x)+0.5, float64(y)+0.5))
					var ok bool
					color, ok = shader.Fragment(vary, centerBar)
					if !ok {
						break
					}
					shaded = true
				}

				buf.Set(x, y, s, z, color)
			}
		}
	}
}
