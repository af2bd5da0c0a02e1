// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	wgpu "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/display"
	"github.com/gogpu/display/hal"
)

//go:embed shaders/compose.wgsl
var composeShaderWGSL string

// ErrClosed is returned by operations on a closed compositor.
var ErrClosed = errors.New("vk: compositor closed")

// Shader source format codes, matching compose.wgsl.
const (
	srcFormatRGBA = 0
	srcFormatRGBX = 1
	srcFormatBGRA = 2
)

// Blend modes, matching compose.wgsl.
const (
	blendSrc  = 0
	blendOver = 1
)

// composeParams mirrors the Params uniform in compose.wgsl. All
// fields are 32-bit words; the total size must stay a multiple of 16.
type composeParams struct {
	fbW, fbH             uint32
	srcStride, srcFormat uint32
	cropX, cropY         uint32
	cropW, cropH         uint32
	dstX, dstY           uint32
	dstW, dstH           uint32
	alpha, transform     uint32
	blend, pad0          uint32
}

const composeParamsSize = uint64(unsafe.Sizeof(composeParams{}))

// structToBytes views a fixed-layout struct as its raw bytes for
// uniform upload.
func structToBytes(p unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(p), size) //nolint:gosec // fixed-layout GPU staging
}

// pendingFrame holds the per-commit resources that must outlive the
// GPU work they were recorded into.
type pendingFrame struct {
	shared   *sharedFence
	cmd      wgpu.CommandBuffer
	uniforms []wgpu.Buffer
	binds    []wgpu.BindGroup
}

// Compositor composes layers with one compute dispatch per layer into
// a storage-buffer framebuffer.
type Compositor struct {
	device wgpu.Device
	queue  wgpu.Queue

	shader     wgpu.ShaderModule
	bindLayout wgpu.BindGroupLayout
	pipeLayout wgpu.PipelineLayout
	pipeline   wgpu.ComputePipeline

	fb     wgpu.Buffer
	width  int
	height int

	mu      sync.Mutex
	closed  bool
	frames  uint64
	pending []pendingFrame

	refresh   float64
	listener  hal.DisplayListener
	vsyncStop chan struct{}
}

var _ hal.Compositor = (*Compositor)(nil)

func newCompositor(device wgpu.Device, queue wgpu.Queue, width, height int, refresh float64) (*Compositor, error) {
	c := &Compositor{
		device:  device,
		queue:   queue,
		width:   width,
		height:  height,
		refresh: refresh,
	}
	if err := c.initPipeline(); err != nil {
		c.destroyPipeline()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) initPipeline() error {
	spirvBytes, err := naga.Compile(composeShaderWGSL)
	if err != nil {
		return fmt.Errorf("vk: compile compose shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	c.shader, err = c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:  "vk-compose",
		Source: wgpu.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("vk: create shader module: %w", err)
	}

	c.bindLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "vk-compose-layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: composeParamsSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeReadOnlyStorage,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vk: create bind group layout: %w", err)
	}

	c.pipeLayout, err = c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "vk-compose-pipeline-layout",
		BindGroupLayouts: []wgpu.BindGroupLayout{c.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("vk: create pipeline layout: %w", err)
	}

	c.pipeline, err = c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "vk-compose-pipeline",
		Layout: c.pipeLayout,
		Compute: wgpu.ComputeState{
			Module:     c.shader,
			EntryPoint: "cs_compose",
		},
	})
	if err != nil {
		return fmt.Errorf("vk: create compute pipeline: %w", err)
	}

	fbSize := uint64(c.width) * uint64(c.height) * 4
	c.fb, err = c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "vk-framebuffer",
		Size:  fbSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("vk: create framebuffer: %w", err)
	}
	c.queue.WriteBuffer(c.fb, 0, make([]byte, fbSize))
	return nil
}

func (c *Compositor) destroyPipeline() {
	if c.fb != nil {
		c.device.DestroyBuffer(c.fb)
		c.fb = nil
	}
	if c.pipeline != nil {
		c.device.DestroyComputePipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.bindLayout != nil {
		c.device.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
	if c.shader != nil {
		c.device.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}

// Prepare claims every framebuffer layer whose handle this driver
// allocated. The compose shader handles all transforms and plane
// alpha, so nothing is left for GLES composition.
func (c *Compositor) Prepare(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for i := range list.Layers {
		l := &list.Layers[i]
		if l.Skipped() || l.Compositing != hal.CompositionFramebuffer {
			continue
		}
		if _, ok := l.Handle.(*Buffer); ok {
			l.Compositing = hal.CompositionOverlay
		}
	}
	return nil
}

// Commit uploads the dirty layers and dispatches one compose pass per
// layer, framebuffer target first, then overlays bottom to top. The
// dispatches are submitted behind a single device fence; the retire
// and release fences are views of it.
func (c *Compositor) Commit(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.reapLocked()

	type draw struct {
		layer *hal.Layer
		blend uint32
	}
	var draws []draw
	for i := range list.Layers {
		l := &list.Layers[i]
		if !l.Skipped() && l.Compositing == hal.CompositionFramebufferTarget {
			draws = append(draws, draw{l, blendSrc})
		}
	}
	for i := range list.Layers {
		l := &list.Layers[i]
		if !l.Skipped() && l.Compositing == hal.CompositionOverlay {
			draws = append(draws, draw{l, blendOver})
		}
	}

	frame := pendingFrame{}
	fail := func(err error) error {
		for _, bg := range frame.binds {
			c.device.DestroyBindGroup(bg)
		}
		for _, ub := range frame.uniforms {
			c.device.DestroyBuffer(ub)
		}
		return err
	}

	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "vk-compose",
	})
	if err != nil {
		return fmt.Errorf("vk: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("compose"); err != nil {
		return fmt.Errorf("vk: begin encoding: %w", err)
	}

	dispatched := 0
	for _, d := range draws {
		buf, ok := d.layer.Handle.(*Buffer)
		if !ok {
			encoder.DiscardEncoding()
			return fail(fmt.Errorf("%w: %T", ErrUnknownHandle, d.layer.Handle))
		}
		c.consumeAcquire(d.layer)

		params, ok := layerParams(buf, d.layer, c.width, c.height, d.blend)
		if !ok {
			// Nothing visible, but the producer still gets its
			// buffer back with the frame.
			d.layer.ReleaseFence = nil
			continue
		}

		c.queue.WriteBuffer(buf.gpu, 0, buf.Pix)

		ub, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "vk-compose-params",
			Size:  composeParamsSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.DiscardEncoding()
			return fail(fmt.Errorf("vk: create params buffer: %w", err))
		}
		frame.uniforms = append(frame.uniforms, ub)
		c.queue.WriteBuffer(ub, 0, structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)))

		bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "vk-compose-bind",
			Layout: c.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: ub.NativeHandle(), Offset: 0, Size: composeParamsSize,
				}},
				{Binding: 1, Resource: gputypes.BufferBinding{
					Buffer: buf.gpu.NativeHandle(), Offset: 0, Size: 0, // 0 = entire buffer
				}},
				{Binding: 2, Resource: gputypes.BufferBinding{
					Buffer: c.fb.NativeHandle(), Offset: 0, Size: 0,
				}},
			},
		})
		if err != nil {
			encoder.DiscardEncoding()
			return fail(fmt.Errorf("vk: create bind group: %w", err))
		}
		frame.binds = append(frame.binds, bg)

		pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{
			Label: "vk-compose-pass",
		})
		pass.SetPipeline(c.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((params.dstW+7)/8, (params.dstH+7)/8, 1)
		pass.End()
		dispatched++
	}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fail(fmt.Errorf("vk: end encoding: %w", err))
	}
	frame.cmd = cmd

	fence, err := c.device.CreateFence()
	if err != nil {
		c.device.FreeCommandBuffer(cmd)
		return fail(fmt.Errorf("vk: create fence: %w", err))
	}
	if err := c.queue.Submit([]wgpu.CommandBuffer{cmd}, fence, 1); err != nil {
		c.device.DestroyFence(fence)
		c.device.FreeCommandBuffer(cmd)
		return fail(fmt.Errorf("vk: submit: %w", err))
	}

	frame.shared = newSharedFence(c.device, fence, 1)
	c.pending = append(c.pending, frame)

	list.RetireFence = frame.shared.view()
	for _, d := range draws {
		if _, ok := d.layer.Handle.(*Buffer); ok && !d.layer.Skipped() {
			d.layer.ReleaseFence = frame.shared.view()
		}
	}

	c.frames++
	display.Logger().Debug("vk: frame committed",
		"frame", c.frames,
		"layers", dispatched)
	return nil
}

// consumeAcquire waits out and closes a layer's acquire fence. The
// upload that follows reads the producer's pixels, so the wait must
// happen on the CPU side.
func (c *Compositor) consumeAcquire(l *hal.Layer) {
	if l.AcquireFence == nil {
		return
	}
	if err := l.AcquireFence.Wait(context.Background()); err != nil {
		display.Logger().Warn("vk: acquire fence wait failed", "error", err)
	}
	if err := l.AcquireFence.Close(); err != nil && !errors.Is(err, hal.ErrFenceClosed) {
		display.Logger().Warn("vk: acquire fence close failed", "error", err)
	}
	l.AcquireFence = nil
}

// layerParams builds the shader uniform for one layer. It reports
// false when the layer has no visible pixels.
func layerParams(buf *Buffer, l *hal.Layer, fbW, fbH int, blend uint32) (composeParams, bool) {
	bounds := image.Rect(0, 0, buf.Width, buf.Height)
	crop := l.SourceCrop.Intersect(bounds)
	frame := l.DisplayFrame
	if crop.Empty() || frame.Empty() {
		return composeParams{}, false
	}
	if frame.Min.X < 0 || frame.Min.Y < 0 {
		display.Logger().Warn("vk: layer frame off-panel",
			"frame", frame.String())
		return composeParams{}, false
	}
	if frame.Min.X >= fbW || frame.Min.Y >= fbH {
		return composeParams{}, false
	}

	var format uint32
	switch buf.Format {
	case hal.FormatRGBX8888:
		format = srcFormatRGBX
	case hal.FormatBGRA8888:
		format = srcFormatBGRA
	default:
		format = srcFormatRGBA
	}

	return composeParams{
		fbW:       uint32(fbW),
		fbH:       uint32(fbH),
		srcStride: uint32(buf.Stride),
		srcFormat: format,
		cropX:     uint32(crop.Min.X),
		cropY:     uint32(crop.Min.Y),
		cropW:     uint32(crop.Dx()),
		cropH:     uint32(crop.Dy()),
		dstX:      uint32(frame.Min.X),
		dstY:      uint32(frame.Min.Y),
		dstW:      uint32(frame.Dx()),
		dstH:      uint32(frame.Dy()),
		alpha:     uint32(l.PlaneAlpha),
		transform: uint32(l.Transform),
		blend:     blend,
	}, true
}

// reapLocked waits out previously submitted frames and frees their
// transient resources. With a depth-2 swap chain there is at most one
// frame in flight when the next commit arrives.
func (c *Compositor) reapLocked() {
	for _, f := range c.pending {
		if err := f.shared.wait(context.Background()); err != nil {
			display.Logger().Warn("vk: frame wait failed", "error", err)
		}
		for _, bg := range f.binds {
			c.device.DestroyBindGroup(bg)
		}
		for _, ub := range f.uniforms {
			c.device.DestroyBuffer(ub)
		}
		c.device.FreeCommandBuffer(f.cmd)
		f.shared.release()
	}
	c.pending = c.pending[:0]
}

// SetListener installs the display event listener. A synthetic
// hotplug for the already-connected panel is delivered immediately.
func (c *Compositor) SetListener(l hal.DisplayListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
	if l != nil {
		go l.Hotplug(true)
	}
}

// SetVSyncEnabled starts or stops synthetic vsync delivery. The
// compute path has no scanout interrupt, so ticks come from a timer
// at the configured refresh rate.
func (c *Compositor) SetVSyncEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !enabled {
		if c.vsyncStop != nil {
			close(c.vsyncStop)
			c.vsyncStop = nil
		}
		return nil
	}
	if c.vsyncStop != nil {
		return nil
	}
	c.vsyncStop = make(chan struct{})
	go c.vsyncLoop(c.vsyncStop)
	return nil
}

func (c *Compositor) vsyncLoop(stop chan struct{}) {
	interval := time.Duration(float64(time.Second) / c.refresh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			l := c.listener
			c.mu.Unlock()
			if l != nil {
				l.VSync(now.UnixNano())
			}
		}
	}
}

// Snapshot reads the framebuffer back into an image. It waits for all
// in-flight work first.
func (c *Compositor) Snapshot() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.reapLocked()

	fbSize := uint64(c.width) * uint64(c.height) * 4
	staging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "vk-snapshot-staging",
		Size:  fbSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("vk: create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "vk-snapshot",
	})
	if err != nil {
		return nil, fmt.Errorf("vk: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("snapshot"); err != nil {
		return nil, fmt.Errorf("vk: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(c.fb, staging, []wgpu.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: fbSize},
	})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("vk: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmd)

	fence, err := c.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("vk: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)
	if err := c.queue.Submit([]wgpu.CommandBuffer{cmd}, fence, 1); err != nil {
		return nil, fmt.Errorf("vk: submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, defaultWaitTimeout)
	if err != nil || !ok {
		return nil, fmt.Errorf("vk: wait for snapshot: ok=%v err=%w", ok, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	if err := c.queue.ReadBuffer(staging, 0, img.Pix); err != nil {
		return nil, fmt.Errorf("vk: readback: %w", err)
	}
	return img, nil
}

// Close drains in-flight frames and destroys the pipeline. It is safe
// to call more than once.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.vsyncStop != nil {
		close(c.vsyncStop)
		c.vsyncStop = nil
	}
	c.reapLocked()
	c.destroyPipeline()
	return nil
}

// frameCount reports committed frames. Test hook.
func (c *Compositor) frameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
