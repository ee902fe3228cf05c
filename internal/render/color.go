package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"wavebars/internal/services"
)

const stageRender = "render"

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// ParseRGB parses "r,g,b" with float components. Values are clamped to [0, 1].
// Alpha is not accepted; the renderer applies its own fixed release alpha.
func ParseRGB(value string) (RGB, error) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) != 3 {
		return RGB{}, services.Wrap(services.ErrInputFormat, stageRender, "parse color",
			fmt.Sprintf("%q: expected three comma-separated numbers", value), nil)
	}
	var comps [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return RGB{}, services.Wrap(services.ErrInputFormat, stageRender, "parse color",
				fmt.Sprintf("%q: component %d is not a number", value, i+1), nil)
		}
		comps[i] = clamp01(v)
	}
	return RGB{R: comps[0], G: comps[1], B: comps[2]}, nil
}

// MustParseRGB is ParseRGB for constants.
func MustParseRGB(value string) RGB {
	c, err := ParseRGB(value)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the color the way ParseRGB reads it.
func (c RGB) String() string {
	return strconv.FormatFloat(c.R, 'g', -1, 64) + "," +
		strconv.FormatFloat(c.G, 'g', -1, 64) + "," +
		strconv.FormatFloat(c.B, 'g', -1, 64)
}

// NRGBA converts to 8-bit non-premultiplied color with the given alpha.
func (c RGB) NRGBA(alpha float64) color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(alpha)}
}

// ParseSize parses "WxH" into positive pixel dimensions.
func ParseSize(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if ok {
		width, errW := strconv.Atoi(strings.TrimSpace(w))
		height, errH := strconv.Atoi(strings.TrimSpace(h))
		if errW == nil && errH == nil && width > 0 && height > 0 {
			return width, height, nil
		}
	}
	return 0, 0, services.Wrap(services.ErrInputFormat, stageRender, "parse size",
		fmt.Sprintf("%q: expected WIDTHxHEIGHT with positive integers", value), nil)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
