//go:build gui

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"klonshie/flash"
)

const (
	panelMinWidth  = 380
	panelMinHeight = 160
	glyphSize      = 72
	textSize       = 18
)

// PanelWidget is the alert region: a filled background with a centered
// glyph or status line.
type PanelWidget struct {
	widget.BaseWidget
	bg   *canvas.Rectangle
	text *canvas.Text
}

func NewPanelWidget() *PanelWidget {
	p := &PanelWidget{
		bg:   canvas.NewRectangle(flash.ParseHex(flash.IdleColor)),
		text: canvas.NewText(flash.IdleText, nil),
	}
	p.text.Alignment = fyne.TextAlignCenter
	p.text.TextStyle.Bold = true
	p.SetState(flash.PanelState{Mode: flash.ModeIdle, Background: flash.IdleColor, Text: flash.IdleText})
	p.ExtendBaseWidget(p)
	return p
}

// SetState must run on the Fyne thread.
func (p *PanelWidget) SetState(s flash.PanelState) {
	p.bg.FillColor = s.RGBA()
	p.text.Text = s.Text
	p.text.Color = flash.ParseHex(s.Foreground())
	p.text.TextSize = textSize
	if s.Mode == flash.ModeBright {
		p.text.TextSize = glyphSize
	}
	p.bg.Refresh()
	p.text.Refresh()
}

func (p *PanelWidget) MinSize() fyne.Size {
	return fyne.NewSize(panelMinWidth, panelMinHeight)
}

func (p *PanelWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(p.bg, container.NewCenter(p.text)))
}
