// Command presentdemo brings up a display surface and runs frames
// through the swap chain: acquire a buffer, render a test pattern into
// it, submit it for composition. The final framebuffer can be dumped
// to PNG and, on Linux, touch gestures can be tailed afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gogpu/display"
	"github.com/gogpu/display/config"
	_ "github.com/gogpu/display/drivers"
	"github.com/gogpu/display/hal"
	"github.com/gogpu/display/hal/soft"
)

func main() {
	var (
		configPath = flag.String("config", "", "display profile YAML (built-in defaults when empty)")
		driverName = flag.String("driver", "", "driver to open (overrides the profile)")
		frames     = flag.Int("frames", 60, "frames to present")
		output     = flag.String("output", "", "write the final framebuffer to this PNG file")
		gestures   = flag.Int("gestures", 0, "tail this many touch gestures after presenting")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		display.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	profile := config.Default()
	if *configPath != "" {
		p, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
		profile = p
	}
	if *driverName != "" {
		profile.Driver = *driverName
	}

	drv, err := openDriver(profile.Driver)
	if err != nil {
		log.Fatalf("Failed to open driver: %v (available: %v)", err, hal.Available())
	}
	defer func() { _ = drv.Close() }()
	log.Printf("Driver %q opened (registered: %v)", drv.Name(), hal.List())

	format, err := profile.PixelFormat()
	if err != nil {
		log.Fatalf("Bad profile: %v", err)
	}
	usage, err := profile.UsageFlags()
	if err != nil {
		log.Fatalf("Bad profile: %v", err)
	}

	listener := &eventCounter{}
	opts := []display.SurfaceOption{display.WithListener(listener)}
	if profile.VSyncEnabled() {
		opts = append(opts, display.WithVSync())
	}

	surf, err := display.New(drv.Allocator(), drv.Compositor(), opts...)
	if err != nil {
		log.Fatalf("Failed to create surface: %v", err)
	}
	defer surf.Release()

	if err := surf.Configure(profile.Width, profile.Height, format, usage); err != nil {
		log.Fatalf("Failed to configure %dx%d %v: %v", profile.Width, profile.Height, format, err)
	}

	for frame := 0; frame < *frames; frame++ {
		buf, release, err := surf.Acquire()
		if err != nil {
			log.Fatalf("Frame %d: acquire: %v", frame, err)
		}
		if release != nil {
			if err := release.Wait(context.Background()); err != nil {
				log.Printf("Frame %d: release fence: %v", frame, err)
			}
			_ = release.Close()
		}
		if err := renderPattern(buf, frame); err != nil {
			log.Fatalf("Frame %d: render: %v", frame, err)
		}
		if err := surf.Submit(buf, nil); err != nil {
			log.Fatalf("Frame %d: submit: %v", frame, err)
		}
	}

	log.Printf("Presented %d frames at %dx%d %v (buffer age %d, transform %v, vsync pulses %d)",
		*frames, surf.Width(), surf.Height(), surf.Format(),
		surf.BufferAge(), surf.TransformHint(), listener.vsyncs.Load())

	if *output != "" {
		if err := writePNG(drv.Compositor(), *output); err != nil {
			log.Fatalf("Failed to write %s: %v", *output, err)
		}
		log.Printf("Framebuffer written to %s", *output)
	}

	if *gestures > 0 {
		if err := tailGestures(profile, *gestures); err != nil {
			log.Fatalf("Input: %v", err)
		}
	}
}

func openDriver(name string) (hal.Driver, error) {
	if name == "" {
		return hal.OpenDefault()
	}
	return hal.Open(name)
}

// eventCounter tallies display events so the summary line can report
// them.
type eventCounter struct {
	vsyncs atomic.Int64
}

func (c *eventCounter) Hotplug(connected bool) {
	log.Printf("Display hotplug: connected=%v", connected)
}

func (c *eventCounter) VSync(timestampNanos int64) { c.vsyncs.Add(1) }

func (c *eventCounter) Invalidate() {}

// bufferPixels exposes a buffer's CPU-addressable pixel slab.
func bufferPixels(handle hal.BufferHandle) ([]byte, bool) {
	if b, ok := handle.(*soft.Buffer); ok {
		return b.Pix, true
	}
	return gpuBufferPixels(handle)
}

// renderPattern fills the buffer with a frame-shifted test pattern,
// addressing rows by the allocator's stride.
func renderPattern(buf *display.GraphicsBuffer, frame int) error {
	pix, ok := bufferPixels(buf.Handle())
	if !ok {
		return fmt.Errorf("buffer handle %T exposes no CPU pixels", buf.Handle())
	}
	bpp := buf.Format().BytesPerPixel()
	for y := 0; y < buf.Height(); y++ {
		row := pix[y*buf.Stride()*bpp:]
		for x := 0; x < buf.Width(); x++ {
			putPixel(row[x*bpp:], buf.Format(), uint8(x+frame), uint8(y+frame), uint8(x^y))
		}
	}
	return nil
}

func putPixel(dst []byte, format hal.PixelFormat, r, g, b uint8) {
	switch format {
	case hal.FormatRGBA8888, hal.FormatRGBX8888:
		dst[0], dst[1], dst[2], dst[3] = r, g, b, 0xff
	case hal.FormatBGRA8888:
		dst[0], dst[1], dst[2], dst[3] = b, g, r, 0xff
	case hal.FormatRGB888:
		dst[0], dst[1], dst[2] = r, g, b
	case hal.FormatRGB565:
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		dst[0], dst[1] = byte(v), byte(v>>8)
	}
}

// writePNG dumps the compositor's framebuffer, when the driver can
// read it back.
func writePNG(comp hal.Compositor, path string) error {
	s, ok := comp.(interface {
		Snapshot() (*image.RGBA, error)
	})
	if !ok {
		return fmt.Errorf("driver %T has no framebuffer readback", comp)
	}
	img, err := s.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
