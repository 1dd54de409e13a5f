//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"klonshie/flash"
)

// panelTheme keeps the controls on the panel's idle palette so the window
// never shows a bright surface other than the flash itself.
type panelTheme struct{}

func (t *panelTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return flash.ParseHex(flash.IdleColor)
	case theme.ColorNameForeground:
		return flash.ParseHex("#c8cad4")
	case theme.ColorNamePrimary:
		return color.RGBA{255, 176, 32, 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (t *panelTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *panelTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *panelTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
