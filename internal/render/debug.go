// Package render provides the debug overlay renderer behind the behavior
// tree's render leaves: a recording queue that headless runs and tests can
// inspect, and an Ebiten-backed drawer for the viewer.
package render

import (
	"image/color"

	"github.com/fennwald/driftbot/internal/game"
)

// TextAlign positions text relative to its anchor point.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// Debug receives overlay draw commands in world coordinates. Implementations
// are side-effecting and never fail; pushes accumulate until Reset.
type Debug interface {
	PushLine(a, b game.Vec2, col color.RGBA)
	PushRect(r game.Rectangle, col color.RGBA)
	PushText(s string, pos game.Vec2, col color.RGBA, align TextAlign)
	Reset()
}

// LineCommand is one queued overlay line.
type LineCommand struct {
	A, B  game.Vec2
	Color color.RGBA
}

// RectCommand is one queued overlay rectangle.
type RectCommand struct {
	Rect  game.Rectangle
	Color color.RGBA
}

// TextCommand is one queued overlay string.
type TextCommand struct {
	Text  string
	Pos   game.Vec2
	Color color.RGBA
	Align TextAlign
}

// Recorder queues overlay commands. It is the headless Debug implementation
// and the backing store the Ebiten overlay drains each frame.
type Recorder struct {
	Lines []LineCommand
	Rects []RectCommand
	Texts []TextCommand
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// PushLine implements Debug.
func (r *Recorder) PushLine(a, b game.Vec2, col color.RGBA) {
	r.Lines = append(r.Lines, LineCommand{A: a, B: b, Color: col})
}

// PushRect implements Debug.
func (r *Recorder) PushRect(rect game.Rectangle, col color.RGBA) {
	r.Rects = append(r.Rects, RectCommand{Rect: rect, Color: col})
}

// PushText implements Debug.
func (r *Recorder) PushText(s string, pos game.Vec2, col color.RGBA, align TextAlign) {
	r.Texts = append(r.Texts, TextCommand{Text: s, Pos: pos, Color: col, Align: align})
}

// Reset drops all queued commands.
func (r *Recorder) Reset() {
	r.Lines = r.Lines[:0]
	r.Rects = r.Rects[:0]
	r.Texts = r.Texts[:0]
}
