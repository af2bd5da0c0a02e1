// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads display profiles from YAML.
//
// A profile bundles the settings a binary needs to bring up a surface:
// panel geometry, buffer format and usage, refresh behavior, driver
// preference and the input device to read. Unknown keys are rejected
// so typos fail loudly instead of silently falling back to defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/display/hal"
)

// Defaults, matching the panel the stack was brought up on.
const (
	DefaultWidth       = 480
	DefaultHeight      = 854
	DefaultRefreshRate = 60
	DefaultFormat      = "rgba8888"
	DefaultInputDevice = "/dev/input/event0"
)

// Profile is one display configuration.
type Profile struct {
	// Width and Height are the panel dimensions in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Format names the buffer pixel format: rgba8888, rgbx8888,
	// rgb888, rgb565 or bgra8888.
	Format string `yaml:"format,omitempty"`

	// Usage lists buffer usage flags: texture, render, 2d, composer,
	// framebuffer. Empty means render plus composer.
	Usage []string `yaml:"usage,omitempty"`

	// VSync enables refresh callbacks. Default: true.
	VSync *bool `yaml:"vsync,omitempty"`

	// RefreshRate is the panel refresh in Hz.
	RefreshRate int `yaml:"refresh_rate,omitempty"`

	// Driver selects a registered driver by name. Empty picks the
	// highest-priority driver that reports itself available.
	Driver string `yaml:"driver,omitempty"`

	// InputDevice is the touch event node to read gestures from.
	InputDevice string `yaml:"input_device,omitempty"`
}

var formatNames = map[string]hal.PixelFormat{
	"rgba8888": hal.FormatRGBA8888,
	"rgbx8888": hal.FormatRGBX8888,
	"rgb888":   hal.FormatRGB888,
	"rgb565":   hal.FormatRGB565,
	"bgra8888": hal.FormatBGRA8888,
}

var usageNames = map[string]hal.Usage{
	"texture":     hal.UsageHWTexture,
	"render":      hal.UsageHWRender,
	"2d":          hal.UsageHW2D,
	"composer":    hal.UsageHWComposer,
	"framebuffer": hal.UsageHWFramebuffer,
}

// Default returns the built-in profile.
func Default() *Profile {
	p := &Profile{}
	p.applyDefaults()
	return p
}

// Load reads and validates a profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile, applies defaults and validates the result.
// An empty document yields the default profile.
func Parse(data []byte) (*Profile, error) {
	p := &Profile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) applyDefaults() {
	if p.Width == 0 {
		p.Width = DefaultWidth
	}
	if p.Height == 0 {
		p.Height = DefaultHeight
	}
	if p.Format == "" {
		p.Format = DefaultFormat
	}
	if len(p.Usage) == 0 {
		p.Usage = []string{"render", "composer"}
	}
	if p.RefreshRate == 0 {
		p.RefreshRate = DefaultRefreshRate
	}
	if p.InputDevice == "" {
		p.InputDevice = DefaultInputDevice
	}
}

// Validate checks the profile for values no driver could accept.
func (p *Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("config: invalid dimensions %dx%d", p.Width, p.Height)
	}
	if p.RefreshRate <= 0 || p.RefreshRate > 1000 {
		return fmt.Errorf("config: invalid refresh rate %d", p.RefreshRate)
	}
	if _, err := p.PixelFormat(); err != nil {
		return err
	}
	if _, err := p.UsageFlags(); err != nil {
		return err
	}
	return nil
}

// PixelFormat resolves the format name. Names are case-insensitive.
func (p *Profile) PixelFormat() (hal.PixelFormat, error) {
	f, ok := formatNames[strings.ToLower(p.Format)]
	if !ok {
		return 0, fmt.Errorf("config: unknown format %q", p.Format)
	}
	return f, nil
}

// UsageFlags folds the usage names into a bitset.
func (p *Profile) UsageFlags() (hal.Usage, error) {
	var u hal.Usage
	for _, name := range p.Usage {
		bit, ok := usageNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("config: unknown usage flag %q", name)
		}
		u |= bit
	}
	return u, nil
}

// VSyncEnabled reports whether refresh callbacks are wanted.
func (p *Profile) VSyncEnabled() bool {
	return p.VSync == nil || *p.VSync
}
