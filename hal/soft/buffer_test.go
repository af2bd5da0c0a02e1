package soft

import (
	"errors"
	"testing"

	"github.com/gogpu/display/hal"
)

// TestAllocate checks slab geometry and stride alignment.
func TestAllocate(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		format     hal.PixelFormat
		wantStride int
		wantBytes  int
	}{
		{"aligned rgba", 480, hal.FormatRGBA8888, 480, 480 * 4 * 4},
		{"unaligned rgba", 100, hal.FormatRGBA8888, 112, 112 * 4 * 4},
		{"narrow rgb565", 5, hal.FormatRGB565, 16, 16 * 4 * 2},
		{"rgb888", 17, hal.FormatRGB888, 32, 32 * 4 * 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAllocator()
			handle, stride, err := a.Allocate(tt.width, 4, tt.format, hal.UsageHWRender)
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if stride != tt.wantStride {
				t.Errorf("stride = %d, want %d", stride, tt.wantStride)
			}

			buf := handle.(*Buffer)
			if buf.Stride != stride {
				t.Errorf("Buffer.Stride = %d, want %d", buf.Stride, stride)
			}
			if len(buf.Pix) != tt.wantBytes {
				t.Errorf("len(Pix) = %d, want %d", len(buf.Pix), tt.wantBytes)
			}
		})
	}
}

// TestAllocateErrors rejects bad geometry and unknown formats.
func TestAllocateErrors(t *testing.T) {
	a := NewAllocator()

	if _, _, err := a.Allocate(0, 10, hal.FormatRGBA8888, 0); err == nil {
		t.Error("Allocate(0, 10) succeeded, want error")
	}
	if _, _, err := a.Allocate(10, -1, hal.FormatRGBA8888, 0); err == nil {
		t.Error("Allocate(10, -1) succeeded, want error")
	}
	if _, _, err := a.Allocate(10, 10, hal.PixelFormat(99), 0); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Allocate(bad format) error = %v, want ErrBadFormat", err)
	}
}

// TestFree releases slabs exactly once.
func TestFree(t *testing.T) {
	a := NewAllocator()
	handle, _, err := a.Allocate(64, 64, hal.FormatRGBA8888, 0)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got := a.liveCount(); got != 1 {
		t.Errorf("liveCount() = %d, want 1", got)
	}

	if err := a.Free(handle); err != nil {
		t.Errorf("Free() error = %v", err)
	}
	if got := a.liveCount(); got != 0 {
		t.Errorf("liveCount() = %d after Free, want 0", got)
	}

	if err := a.Free(handle); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("double Free() error = %v, want ErrUnknownHandle", err)
	}
	if err := a.Free("bogus"); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Free(non-buffer) error = %v, want ErrUnknownHandle", err)
	}
}

// TestSlabReuse recycles a freed slab for an allocation that fits.
func TestSlabReuse(t *testing.T) {
	a := NewAllocator()
	handle, _, err := a.Allocate(64, 64, hal.FormatRGBA8888, 0)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	// Dirty the slab, free it, and take a same-size buffer: it must
	// come back zeroed whether or not the pool reused it.
	buf := handle.(*Buffer)
	for i := range buf.Pix {
		buf.Pix[i] = 0xab
	}
	if err := a.Free(handle); err != nil {
		t.Fatalf("Free() error = %v", err)
	}

	handle2, _, err := a.Allocate(64, 64, hal.FormatRGBA8888, 0)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	buf2 := handle2.(*Buffer)
	for i, v := range buf2.Pix {
		if v != 0 {
			t.Fatalf("Pix[%d] = %#x in fresh buffer, want 0", i, v)
		}
	}
}
