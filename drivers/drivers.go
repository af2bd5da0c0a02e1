// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package drivers registers every built-in display driver.
//
// Importing it for side effects wires the software compositor and,
// unless built with the nogpu tag, the Vulkan compute compositor into
// the driver registry:
//
//	import _ "github.com/gogpu/display/drivers"
//
// hal.OpenDefault then picks the highest-priority driver that reports
// itself available: vulkan (priority 100) when a usable adapter
// exists, soft (priority 10) otherwise. Build with -tags nogpu to keep
// the Vulkan driver and its wgpu dependency out of the binary.
package drivers

import (
	_ "github.com/gogpu/display/hal/soft"
)
