package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/fennwald/driftbot/internal/game"
)

// Camera maps world tiles to screen pixels.
type Camera struct {
	Center game.Vec2 // world position at the screen center
	Zoom   float32   // screen pixels per world pixel (1.0 = native)
}

// Scale returns screen pixels per world tile.
func (c Camera) Scale() float32 {
	z := c.Zoom
	if z <= 0 {
		z = 1
	}
	return 16 * z
}

// WorldToScreen projects a world position into screen space.
func (c Camera) WorldToScreen(p game.Vec2, screenW, screenH int) (float32, float32) {
	s := c.Scale()
	x := (p.X-c.Center.X)*s + float32(screenW)/2
	y := (p.Y-c.Center.Y)*s + float32(screenH)/2
	return x, y
}

// Overlay is the Ebiten Debug implementation: behavior leaves push world-
// space commands during Update and the viewer drains them in Draw.
type Overlay struct {
	Recorder
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Draw renders and clears the queued commands.
func (o *Overlay) Draw(screen *ebiten.Image, cam Camera) {
	w := screen.Bounds().Dx()
	h := screen.Bounds().Dy()

	for _, l := range o.Lines {
		x0, y0 := cam.WorldToScreen(l.A, w, h)
		x1, y1 := cam.WorldToScreen(l.B, w, h)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, l.Color, false)
	}

	for _, r := range o.Rects {
		x0, y0 := cam.WorldToScreen(r.Rect.Min, w, h)
		x1, y1 := cam.WorldToScreen(r.Rect.Max, w, h)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, r.Color, false)
	}

	face := basicfont.Face7x13
	for _, t := range o.Texts {
		x, y := cam.WorldToScreen(t.Pos, w, h)
		switch t.Align {
		case AlignCenter:
			x -= float32(len(t.Text)) * 7 / 2
		case AlignRight:
			x -= float32(len(t.Text)) * 7
		}
		text.Draw(screen, t.Text, face, int(x), int(y), t.Color)
	}

	o.Reset()
}
