// Package ui provides the desktop surfaces of IP to Country Tray.
// This file contains icon generation utilities for the system tray.
package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/yllada/ipcountry-tray/common"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	Label       string
	FillColor   color.RGBA
	BorderColor color.RGBA
	TextColor   color.RGBA
}

// badgePalette holds the fill colours a country code can map onto.
var badgePalette = []color.RGBA{
	{198, 40, 40, 255},  // Red
	{173, 20, 87, 255},  // Pink
	{106, 27, 154, 255}, // Purple
	{69, 39, 160, 255},  // Deep purple
	{40, 53, 147, 255},  // Indigo
	{21, 101, 192, 255}, // Blue
	{2, 119, 189, 255},  // Light blue
	{0, 131, 143, 255},  // Cyan
	{0, 105, 92, 255},   // Teal
	{46, 125, 50, 255},  // Green
	{85, 139, 47, 255},  // Light green
	{239, 108, 0, 255},  // Orange
	{216, 67, 21, 255},  // Deep orange
	{78, 52, 46, 255},   // Brown
}

// UnknownIconConfig returns the config for the unknown-country badge.
func UnknownIconConfig() IconConfig {
	return IconConfig{
		Size:        common.TrayIconSize,
		Label:       common.UnknownCountry,
		FillColor:   color.RGBA{117, 117, 117, 255}, // Dark gray
		BorderColor: color.RGBA{158, 158, 158, 255}, // Gray
		TextColor:   color.RGBA{255, 255, 255, 255}, // White
	}
}

// CountryIconConfig returns the badge config for a country code. The fill
// colour is derived from the code so a country always looks the same.
func CountryIconConfig(code string) IconConfig {
	code = common.NormalizeCountry(code)
	if code == common.UnknownCountry {
		return UnknownIconConfig()
	}

	fill := badgePalette[(int(code[0]-'A')*26+int(code[1]-'A'))%len(badgePalette)]
	return IconConfig{
		Size:        common.TrayIconSize,
		Label:       code,
		FillColor:   fill,
		BorderColor: lighten(fill),
		TextColor:   color.RGBA{255, 255, 255, 255},
	}
}

func lighten(c color.RGBA) color.RGBA {
	mix := func(v uint8) uint8 { return v + (255-v)/3 }
	return color.RGBA{mix(c.R), mix(c.G), mix(c.B), 255}
}

// IconGenerator generates PNG icons for the system tray.
type IconGenerator struct {
	config IconConfig
}

// NewIconGenerator creates a new icon generator with the given config.
func NewIconGenerator(config IconConfig) *IconGenerator {
	return &IconGenerator{config: config}
}

// Generate creates a PNG icon and returns the bytes.
func (g *IconGenerator) Generate() []byte {
	size := g.config.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	g.drawBadge(img)
	g.drawLabel(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		common.LogError("Failed to encode tray icon: %v", err)
		return nil
	}
	return buf.Bytes()
}

// drawBadge draws a rounded rectangle with a one pixel border.
func (g *IconGenerator) drawBadge(img *image.RGBA) {
	size := g.config.Size
	const radius = 4

	inBadge := func(x, y int) bool {
		if x < 0 || y < 0 || x >= size || y >= size {
			return false
		}
		cx, cy := x, y
		switch {
		case x < radius:
			cx = radius
		case x >= size-radius:
			cx = size - radius - 1
		}
		switch {
		case y < radius:
			cy = radius
		case y >= size-radius:
			cy = size - radius - 1
		}
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= radius*radius
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !inBadge(x, y) {
				continue
			}
			isBorder := !inBadge(x-1, y) || !inBadge(x+1, y) ||
				!inBadge(x, y-1) || !inBadge(x, y+1)
			if isBorder {
				img.Set(x, y, g.config.BorderColor)
			} else {
				img.Set(x, y, g.config.FillColor)
			}
		}
	}
}

// drawLabel centres the label using the 7x13 bitmap face.
func (g *IconGenerator) drawLabel(img *image.RGBA) {
	if g.config.Label == "" {
		return
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(g.config.TextColor),
		Face: face,
	}

	width := d.MeasureString(g.config.Label).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	x := (g.config.Size - width) / 2
	baseline := (g.config.Size-height)/2 + metrics.Ascent.Ceil()
	d.Dot = fixed.P(x, baseline)
	d.DrawString(g.config.Label)
}

var (
	iconCacheMu sync.Mutex
	iconCache   = make(map[string][]byte)
)

// CountryIcon returns the cached tray icon for a country code.
func CountryIcon(code string) []byte {
	cfg := CountryIconConfig(code)

	iconCacheMu.Lock()
	defer iconCacheMu.Unlock()

	if icon, ok := iconCache[cfg.Label]; ok {
		return icon
	}
	icon := NewIconGenerator(cfg).Generate()
	iconCache[cfg.Label] = icon
	return icon
}
