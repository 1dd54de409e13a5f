//go:build gui

package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"

	"klonshie/flash"
)

const iconSize = 22

var iconCache = map[bool]fyne.Resource{}

// trayIcon draws a round badge, amber while the alarm sounds and slate
// otherwise.
func trayIcon(active bool) fyne.Resource {
	if r, ok := iconCache[active]; ok {
		return r
	}
	core := flash.ParseHex(flash.DimColor)
	if active {
		core = color.RGBA{255, 176, 32, 255}
	}
	ring := color.RGBA{core.R / 2, core.G / 2, core.B / 2, 255}

	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize) / 2
	for y := range iconSize {
		for x := range iconSize {
			dist := math.Hypot(float64(x)-center+0.5, float64(y)-center+0.5)
			switch {
			case dist < 7:
				img.Set(x, y, core)
			case dist < 10:
				img.Set(x, y, ring)
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	name := "tray-idle.png"
	if active {
		name = "tray-active.png"
	}
	r := fyne.NewStaticResource(name, buf.Bytes())
	iconCache[active] = r
	return r
}
