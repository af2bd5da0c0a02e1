package soft

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/display/hal"
)

// TestApplyTransform checks every scanout transform on a 2x1 strip,
// where each mapping has a unique result.
func TestApplyTransform(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, green)

	tests := []struct {
		name   string
		tr     hal.Transform
		w, h   int
		first  color.RGBA // pixel (0,0)
		second color.RGBA // pixel (w-1,h-1)
	}{
		{"none", hal.TransformNone, 2, 1, red, green},
		{"flip h", hal.TransformFlipH, 2, 1, green, red},
		{"flip v", hal.TransformFlipV, 2, 1, red, green},
		{"rot180", hal.TransformRot180, 2, 1, green, red},
		{"rot90", hal.TransformRot90, 1, 2, red, green},
		{"rot270", hal.TransformRot270, 1, 2, green, red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyTransform(src, tt.tr)
			b := got.Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Fatalf("bounds = %v, want %dx%d", b, tt.w, tt.h)
			}
			if c := got.RGBAAt(0, 0); c != tt.first {
				t.Errorf("pixel (0,0) = %v, want %v", c, tt.first)
			}
			if c := got.RGBAAt(tt.w-1, tt.h-1); c != tt.second {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.w-1, tt.h-1, c, tt.second)
			}
		})
	}
}

// TestApplyTransformLeavesSource keeps the input image intact for
// non-identity transforms.
func TestApplyTransformLeavesSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, red)

	_ = applyTransform(src, hal.TransformRot180)
	if got := src.RGBAAt(0, 0); got != red {
		t.Errorf("source pixel mutated to %v", got)
	}
}

// TestLayerSourceCropClamped intersects out-of-range crops with the
// buffer bounds instead of panicking.
func TestLayerSourceCropClamped(t *testing.T) {
	a := NewAllocator()
	handle, _, err := a.Allocate(2, 2, hal.FormatRGBA8888, 0)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	buf := handle.(*Buffer)

	img, _ := layerSource(buf, image.Rect(-5, -5, 50, 50))
	if got := img.Bounds(); got != image.Rect(0, 0, 2, 2) {
		t.Errorf("clamped bounds = %v, want (0,0)-(2,2)", got)
	}

	empty, _ := layerSource(buf, image.Rect(10, 10, 20, 20))
	if !empty.Bounds().Empty() {
		t.Errorf("disjoint crop bounds = %v, want empty", empty.Bounds())
	}
}
