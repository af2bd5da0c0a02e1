// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package drivers

import (
	_ "github.com/gogpu/display/hal/vk"
)
