package render

import (
	"math"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// DepthEmpty is the cleared depth value. Every finite depth compares
// greater, so the first covering fragment always wins over it.
const DepthEmpty = -math.MaxFloat64

// SampleOffset is a sub-pixel sample position within a pixel, with both
// components in [0,1).
type SampleOffset struct {
	X, Y float64
}

// CenterSample places a single sample at the pixel center.
var CenterSample = []SampleOffset{{0.5, 0.5}}

// MSAA4 is the 4x multisample pattern, a regular 2x2 grid inside each
// pixel.
var MSAA4 = []SampleOffset{
	{0.25, 0.25},
	{0.25, 0.75},
	{0.75, 0.25},
	{0.75, 0.75},
}

// SampleBuffer holds per-sample depth and color for a width x height grid
// of pixels with a fixed number of samples per pixel. Depth uses a
// larger-is-closer convention; cleared samples start at DepthEmpty.
type SampleBuffer struct {
	Width   int
	Height  int
	Samples int

	depth []float64
	color []math3d.Vec3
}

// NewSampleBuffer allocates a cleared buffer.
func NewSampleBuffer(width, height, samples int) *SampleBuffer {
	b := &SampleBuffer{
		Width:   width,
		Height:  height,
		Samples: samples,
		depth:   make([]float64, width*height*samples),
		color:   make([]math3d.Vec3, width*height*samples),
	}
	b.Clear()
	return b
}

// Clear resets every sample to empty depth and black.
func (b *SampleBuffer) Clear() {
	for i := range b.depth {
		b.depth[i] = DepthEmpty
	}
	for i := range b.color {
		b.color[i] = math3d.Vec3{}
	}
}

func (b *SampleBuffer) index(x, y, s int) int {
	return b.Samples*(y*b.Width+x) + s
}

func (b *SampleBuffer) inBounds(x, y, s int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height && s >= 0 && s < b.Samples
}

// DepthAt returns the stored depth for a sample, or DepthEmpty when the
// coordinates fall outside the buffer.
func (b *SampleBuffer) DepthAt(x, y, s int) float64 {
	if !b.inBounds(x, y, s) {
		return DepthEmpty
	}
	return b.depth[b.index(x, y, s)]
}

// ColorAt returns the stored color for a sample.
func (b *SampleBuffer) ColorAt(x, y, s int) math3d.Vec3 {
	if !b.inBounds(x, y, s) {
		return math3d.Vec3{}
	}
	return b.color[b.index(x, y, s)]
}

// Covered reports whether a sample has been written since the last Clear.
func (b *SampleBuffer) Covered(x, y, s int) bool {
	return b.DepthAt(x, y, s) > DepthEmpty
}

// Set writes depth and color for one sample. Out-of-bounds writes are
// dropped.
func (b *SampleBuffer) Set(x, y, s int, depth float64, color math3d.Vec3) {
	if !b.inBounds(x, y, s) {
		return
	}
	i := b.index(x, y, s)
	b.depth[i] = depth
	b.color[i] = color
}

// Resolve averages the samples of each pixel into the framebuffer,
// dividing by the full sample count so uncovered samples darken partially
// covered edge pixels. Buffer rows run bottom-up; framebuffer rows run
// top-down.
func (b *SampleBuffer) Resolve(fb *Framebuffer) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			var sum math3d.Vec3
			for s := 0; s < b.Samples; s++ {
				if b.Covered(x, y, s) {
					sum = sum.Add(b.ColorAt(x, y, s))
				}
			}
			avg := sum.Div(float64(b.Samples))
			fb.SetPixel(x, b.Height-1-y, RGB(clampByte(avg.X), clampByte(avg.Y), clampByte(avg.Z)))
		}
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
