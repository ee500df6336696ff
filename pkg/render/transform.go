package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// LookAt builds a view matrix from camera position, look target and up hint.
// The camera looks down its local -Z axis, so geometry in front of the
// camera has negative view-space Z.
func LookAt(eye, center, up math3d.Vec3) math3d.Mat4 {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x).Normalize()

	rotate := math3d.Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		0, 0, 0, 1,
	}
	return rotate.Mul(math3d.Translate(eye.Negate()))
}

// Ortho builds an orthographic projection mapping the box
// [l,r]×[b,t]×[n,f] onto the canonical [-1,1] cube.
func Ortho(l, r, b, t, n, f float64) math3d.Mat4 {
	return math3d.Mat4{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, 2 / (n - f), 0,
		(l + r) / (l - r), (b + t) / (b - t), (n + f) / (f - n), 1,
	}
}

// PerspectiveToOrtho builds the matrix that squeezes a perspective view
// frustum into the orthographic box spanned by the near plane. After the
// perspective divide the output W carries the original view-space Z.
func PerspectiveToOrtho(n, f float64) math3d.Mat4 {
	return math3d.Mat4{
		n, 0, 0, 0,
		0, n, 0, 0,
		0, 0, n + f, 1,
		0, 0, -f * n, 0,
	}
}

// Projection builds the full perspective projection for a vertical field
// of view (radians) and width/height aspect ratio. Near and far are
// view-space Z values and therefore negative for visible geometry; with
// the usual n=-0.01, f=-10 setup the near plane maps to z=+1 and the far
// plane to z=-1, so larger post-projection z means closer to the camera.
func Projection(fov, aspect, n, f float64) math3d.Mat4 {
	t := -n * math.Tan(fov/2)
	r := t * aspect
	return Ortho(-r, r, -t, t, n, f).Mul(PerspectiveToOrtho(n, f))
}

// Viewport maps canonical [-1,1] X/Y onto pixel coordinates
// [0,w-1]×[0,h-1], leaving Z untouched for depth testing.
func Viewport(w, h int) math3d.Mat4 {
	fw, fh := float64(w), float64(h)
	return math3d.Mat4{
		fw / 2, 0, 0, 0,
		0, fh / 2, 0, 0,
		0, 0, 1, 0,
		(fw - 1) / 2, (fh - 1) / 2, 0, 1,
	}
}
