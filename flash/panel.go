package flash

import (
	"fmt"
	"image/color"
)

// Panel colors stay away from pure white and black to soften contrast.
const (
	IdleColor   = "#0f1422"
	DimColor    = "#1b2240"
	BrightColor = "#f5f5f0"

	Glyph        = "⚠"
	IdleText     = "Idle"
	RunningText  = "Running…"
	AdvisoryText = "Reduce Motion is ON: flashing disabled"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeAnnounce
	ModeDim
	ModeBright
	ModeAdvisory
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAnnounce:
		return "announce"
	case ModeDim:
		return "dim"
	case ModeBright:
		return "bright"
	case ModeAdvisory:
		return "advisory"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// PanelState is everything a view needs to draw the alert region.
type PanelState struct {
	Mode       Mode
	Background string // #rrggbb
	Text       string
}

func idleState() PanelState {
	return PanelState{Mode: ModeIdle, Background: IdleColor, Text: IdleText}
}

func dimState() PanelState {
	return PanelState{Mode: ModeDim, Background: DimColor}
}

func brightState() PanelState {
	return PanelState{Mode: ModeBright, Background: BrightColor, Text: Glyph}
}

func advisoryState() PanelState {
	return PanelState{Mode: ModeAdvisory, Background: IdleColor, Text: AdvisoryText}
}

// Foreground picks a readable text color for the background.
func (s PanelState) Foreground() string {
	if s.Mode == ModeBright {
		return "#7a4b00"
	}
	return "#c8cad4"
}

// RGBA parses Background; malformed values yield opaque black.
func (s PanelState) RGBA() color.RGBA {
	return ParseHex(s.Background)
}

func ParseHex(hex string) color.RGBA {
	c := color.RGBA{A: 255}
	if len(hex) != 7 || hex[0] != '#' {
		return c
	}
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return color.RGBA{A: 255}
	}
	return c
}

// Panel draws panel states. Render is called with the controller's lock
// held and must not call back into the controller.
type Panel interface {
	Render(PanelState)
}

type PanelFunc func(PanelState)

func (f PanelFunc) Render(s PanelState) { f(s) }
