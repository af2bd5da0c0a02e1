package display

import "github.com/gogpu/display/hal"

// PixelFormat is an alias for hal.PixelFormat, providing the
// display-facing name for buffer formats while keeping full
// compatibility with the hal vocabulary.
type PixelFormat = hal.PixelFormat

// Usage is an alias for hal.Usage.
type Usage = hal.Usage

// Fence is an alias for hal.Fence. See hal.Fence for the ownership
// rules; in short, the final owner closes it exactly once and nil
// means "no fence".
type Fence = hal.Fence

// Re-exported formats for callers that only import display.
const (
	FormatRGBA8888 = hal.FormatRGBA8888
	FormatRGBX8888 = hal.FormatRGBX8888
	FormatRGB888   = hal.FormatRGB888
	FormatRGB565   = hal.FormatRGB565
	FormatBGRA8888 = hal.FormatBGRA8888
)

// Re-exported usage bits.
const (
	UsageHWTexture     = hal.UsageHWTexture
	UsageHWRender      = hal.UsageHWRender
	UsageHW2D          = hal.UsageHW2D
	UsageHWComposer    = hal.UsageHWComposer
	UsageHWFramebuffer = hal.UsageHWFramebuffer
)

// closeFence closes f if present, reporting a failure to the package
// logger. Used on paths that discard a fence they own.
func closeFence(f Fence, where string) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		Logger().Warn("display: fence close failed", "where", where, "err", err)
	}
}
