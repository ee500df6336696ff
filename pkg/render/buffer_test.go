package render

import (
	"testing"

	"github.com/umbra3d/umbra/pkg/math3d"
)

func TestSampleBufferClear(t *testing.T) {
	buf := NewSampleBuffer(4, 4, 2)

	for s := range 2 {
		if buf.DepthAt(1, 1, s) != DepthEmpty {
			t.Errorf("cleared depth = %v, want DepthEmpty", buf.DepthAt(1, 1, s))
		}
		if buf.Covered(1, 1, s) {
			t.Error("cleared sample should not be covered")
		}
	}

	buf.Set(1, 1, 0, -0.5, math3d.V3(10, 20, 30))
	if !buf.Covered(1, 1, 0) {
		t.Error("written sample should be covered")
	}

	buf.Clear()
	if buf.Covered(1, 1, 0) {
		t.Error("Clear should reset coverage")
	}
	if buf.ColorAt(1, 1, 0) != math3d.Zero3() {
		t.Error("Clear should reset color")
	}
}

func TestSampleBufferAnyFiniteDepthBeatsEmpty(t *testing.T) {
	buf := NewSampleBuffer(2, 2, 1)

	// Even a very distant depth wins against the cleared sentinel.
	z := -1e300
	if !(z > buf.DepthAt(0, 0, 0)) {
		t.Fatal("finite depth should compare greater than DepthEmpty")
	}
}

func TestSampleBufferOutOfBounds(t *testing.T) {
	buf := NewSampleBuffer(2, 2, 1)

	buf.Set(-1, 0, 0, 1, math3d.V3(1, 1, 1)) // dropped
	buf.Set(0, 5, 0, 1, math3d.V3(1, 1, 1))  // dropped
	buf.Set(0, 0, 3, 1, math3d.V3(1, 1, 1))  // dropped

	if buf.DepthAt(-1, 0, 0) != DepthEmpty {
		t.Error("out-of-bounds read should return DepthEmpty")
	}
	for y := range 2 {
		for x := range 2 {
			if buf.Covered(x, y, 0) {
				t.Errorf("sample (%d,%d) unexpectedly written", x, y)
			}
		}
	}
}

func TestResolveAveragesOverFullSampleCount(t *testing.T) {
	buf := NewSampleBuffer(2, 2, 4)

	// Cover half the samples of pixel (0,0) with white: the resolve
	// divides by all 4 samples, darkening the partially covered pixel.
	buf.Set(0, 0, 0, 0, math3d.V3(200, 200, 200))
	buf.Set(0, 0, 1, 0, math3d.V3(200, 200, 200))

	fb := NewFramebuffer(2, 2)
	buf.Resolve(fb)

	// Buffer row 0 is the bottom framebuffer row.
	got := fb.GetPixel(0, 1)
	if got.R != 100 || got.G != 100 || got.B != 100 {
		t.Errorf("resolved pixel = %v, want (100,100,100)", got)
	}

	// Untouched pixel resolves to black.
	if c := fb.GetPixel(1, 0); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("empty pixel = %v, want black", c)
	}
}

func TestResolveClampsColor(t *testing.T) {
	buf := NewSampleBuffer(1, 1, 1)
	buf.Set(0, 0, 0, 0, math3d.V3(400, -20, 255))

	fb := NewFramebuffer(1, 1)
	buf.Resolve(fb)

	got := fb.GetPixel(0, 0)
	if got.R != 255 || got.G != 0 || got.B != 255 {
		t.Errorf("clamped pixel = %v, want (255,0,255)", got)
	}
}
