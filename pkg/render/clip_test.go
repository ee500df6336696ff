package render

import (
	"math"
	"testing"

	"github.com/umbra3d/umbra/pkg/math3d"
)

func clipTri(a, b, c math3d.Vec4) []ClipVertex {
	return []ClipVertex{
		{Clip: a, World: a},
		{Clip: b, World: b},
		{Clip: c, World: c},
	}
}

func TestClipAxisInsideUnchanged(t *testing.T) {
	poly := clipTri(
		math3d.V4(0, 0, 0.5, 1),
		math3d.V4(0.5, 0, -0.5, 1),
		math3d.V4(0, 0.5, 0, 1),
	)

	got := ClipAxis(poly, AxisZ)
	if len(got) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(got))
	}
	for i := range got {
		if got[i].Clip != poly[i].Clip {
			t.Errorf("vertex %d changed: %v -> %v", i, poly[i].Clip, got[i].Clip)
		}
	}
}

func TestClipAxisOutsideDiscarded(t *testing.T) {
	tests := []struct {
		name string
		poly []ClipVertex
	}{
		{
			"beyond positive plane",
			clipTri(
				math3d.V4(0, 0, 2, 1),
				math3d.V4(1, 0, 3, 1),
				math3d.V4(0, 1, 2.5, 1),
			),
		},
		{
			"beyond negative plane",
			clipTri(
				math3d.V4(0, 0, -2, 1),
				math3d.V4(1, 0, -3, 1),
				math3d.V4(0, 1, -2.5, 1),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClipAxis(tt.poly, AxisZ); len(got) >= 3 {
				t.Errorf("expected fewer than 3 vertices, got %d", len(got))
			}
		})
	}
}

func TestClipAxisStraddlingPlane(t *testing.T) {
	// One vertex past z=w, two inside: clipping cuts the tip and the
	// polygon gains a vertex.
	poly := clipTri(
		math3d.V4(0, 0, 2, 1),
		math3d.V4(1, 0, 0, 1),
		math3d.V4(-1, 0, 0, 1),
	)

	got := ClipAxis(poly, AxisZ)
	if len(got) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(got))
	}
	for i := range got {
		z := got[i].Clip.Z / got[i].Clip.W
		if z > 1+epsilon {
			t.Errorf("vertex %d still outside: z/w = %v", i, z)
		}
	}
}

func TestClipAxisSynthesizedVertex(t *testing.T) {
	// Edge from z=0 to z=2 at w=1 crosses z=w at t=0.5; with equal w
	// the attribute interpolation degenerates to plain lerp.
	a := ClipVertex{
		Clip:   math3d.V4(0, 0, 0, 1),
		World:  math3d.V4(0, 0, 0, 1),
		UV:     math3d.V2(0, 0),
		Normal: math3d.V3(1, 0, 0),
	}
	b := ClipVertex{
		Clip:   math3d.V4(2, 0, 2, 1),
		World:  math3d.V4(2, 0, 2, 1),
		UV:     math3d.V2(1, 1),
		Normal: math3d.V3(0, 1, 0),
	}
	c := ClipVertex{
		Clip:   math3d.V4(-2, 0, 0, 1),
		World:  math3d.V4(-2, 0, 0, 1),
		UV:     math3d.V2(0, 1),
		Normal: math3d.V3(0, 0, 1),
	}

	got := ClipAxis([]ClipVertex{a, b, c}, AxisZ)
	if len(got) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(got))
	}

	// The synthesized vertex on edge a->b sits at the midpoint.
	var mid *ClipVertex
	for i := range got {
		if math.Abs(got[i].UV.X-0.5) < epsilon && math.Abs(got[i].UV.Y-0.5) < epsilon {
			mid = &got[i]
		}
	}
	if mid == nil {
		t.Fatalf("midpoint vertex not found in %v", got)
	}
	if math.Abs(mid.Clip.Z-mid.Clip.W) > epsilon {
		t.Errorf("synthesized vertex not on the plane: z=%v w=%v", mid.Clip.Z, mid.Clip.W)
	}
	wantN := math3d.V3(0.5, 0.5, 0)
	if !vecNear(mid.Normal, wantN, epsilon) {
		t.Errorf("synthesized normal = %v, want %v", mid.Normal, wantN)
	}
}

func TestClipAxisPerspectiveCorrectAttributes(t *testing.T) {
	// Differing w: attributes interpolate in value/w space and scale
	// back by the harmonic w, not a plain lerp.
	a := ClipVertex{
		Clip: math3d.V4(0, 0, 0, 1),
		UV:   math3d.V2(0, 0),
	}
	b := ClipVertex{
		Clip: math3d.V4(0, 0, 6, 3),
		UV:   math3d.V2(1, 0),
	}
	c := ClipVertex{
		Clip: math3d.V4(1, 0, 0, 1),
		UV:   math3d.V2(0, 1),
	}

	got := ClipAxis([]ClipVertex{a, b, c}, AxisZ)

	// Crossing on a->b: t = (1-0)/((1-0)-(3-6)) = 0.25.
	// invW = 1 + 0.25*(1/3-1) = 1/w, w = 1.2.
	// u = (0 + 0.25*(1/3-0)) * 1.2 = 0.1.
	var found bool
	for i := range got {
		if math.Abs(got[i].UV.X-0.1) < 1e-9 && got[i].UV.Y == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("perspective-correct UV 0.1 not found, got %+v", got)
	}
}
