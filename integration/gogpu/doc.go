// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpu presents display frames inside a gogpu host
// application.
//
// The compositor here is not opened through the driver registry. An
// embedder constructs it with the host's device objects and calls
// RenderTo from the host draw callback. Import under an alias, since
// the host app is also package gogpu:
//
//	import hostgpu "github.com/gogpu/display/integration/gogpu"
//
//	drv, err := hostgpu.New(app.GPUContextProvider(), 480, 854)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	surface, err := display.New(drv.Allocator(), drv.Compositor())
//	...
//	app.OnDraw(func(dc *gogpu.Context) {
//	    drv.Compositor().(*hostgpu.Compositor).RenderTo(dc)
//	})
//
// Commit copies the presented frame into a staging image, so release
// fences are signaled immediately and the producer can reuse its
// buffer before the host draws. The host texture is created on the
// first RenderTo and updated in place afterwards.
//
// This package uses interfaces to avoid importing gogpu directly:
//
//   - gpucontext.DeviceProvider for device access and surface format
//   - local interfaces for texture creation and drawing
package gogpu
