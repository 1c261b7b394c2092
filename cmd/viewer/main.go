// Command viewer runs the scripted session in a window: world rendering,
// the behavior tree's debug overlay, and a clipboard diagnostics report.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/fennwald/driftbot/internal/game"
	"github.com/fennwald/driftbot/internal/render"
	"github.com/fennwald/driftbot/internal/scenario"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

type viewer struct {
	scenario *scenario.Scenario
	overlay  *render.Overlay
	camera   render.Camera
	paused   bool
	status   string
}

func newViewer(cfg scenario.Config) *viewer {
	s := scenario.New(cfg)
	v := &viewer{
		scenario: s,
		overlay:  render.NewOverlay(),
		camera:   render.Camera{Center: game.Vec2{X: 512, Y: 512}, Zoom: 0.5},
	}
	// Route the tree's render leaves into the window overlay.
	s.Bot.Ctx.Debug = &v.overlay.Recorder
	return v
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		report := v.scenario.BuildReport().String() + "\n" + v.scenario.Sim.SimLog.Format()
		if err := clipboard.WriteAll(report); err != nil {
			v.status = fmt.Sprintf("clipboard: %v", err)
		} else {
			v.status = "report copied to clipboard"
		}
	}
	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		v.camera.Zoom *= 1 + float32(wheelY)*0.1
		if v.camera.Zoom < 0.1 {
			v.camera.Zoom = 0.1
		}
	}

	if !v.paused {
		v.scenario.Step()
	}

	if self := v.scenario.Sim.Self(); self != nil && !self.Position.IsZero() {
		v.camera.Center = self.Position
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	pm := v.scenario.Sim.Players
	tm := v.scenario.Sim.TileMap
	self := v.scenario.Sim.Self()

	// Visible tile window.
	scale := v.camera.Scale()
	tilesW := int(float32(screenWidth)/scale) + 2
	tilesH := int(float32(screenHeight)/scale) + 2
	minX := int(v.camera.Center.X) - tilesW/2
	minY := int(v.camera.Center.Y) - tilesH/2

	wallColor := color.RGBA{R: 90, G: 90, B: 110, A: 255}
	safeColor := color.RGBA{R: 40, G: 110, B: 60, A: 255}
	for y := minY; y < minY+tilesH; y++ {
		for x := minX; x < minX+tilesW; x++ {
			if x < 0 || y < 0 || x >= game.MapExtent || y >= game.MapExtent {
				continue
			}
			id := tm.GetTileID(game.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5})
			if id == 0 {
				continue
			}
			col := wallColor
			if id == game.TileIDSafe {
				col = safeColor
			}
			sx, sy := v.camera.WorldToScreen(game.Vec2{X: float32(x), Y: float32(y)}, screenWidth, screenHeight)
			vector.DrawFilledRect(screen, sx, sy, scale, scale, col, false)
		}
	}

	// Players: same-frequency yellow, hostiles blue, attached children ride
	// their parent.
	for i := 0; i < pm.PlayerCount(); i++ {
		p := pm.PlayerAt(i)
		if p.Ship >= game.SpectatorShip || p.Position.IsZero() {
			continue
		}
		if p.AttachParent != game.InvalidPlayerID {
			continue
		}
		v.drawShip(screen, pm, p, self)
	}

	v.overlay.Draw(screen, v.camera)

	hud := fmt.Sprintf("tick %d  players %d  [space] pause  [c] copy report  %s",
		v.scenario.Sim.Conn.GetCurrentTick(), pm.PlayerCount(), v.status)
	v.overlay.PushText(hud, v.hudWorldPos(12, 16), color.RGBA{R: 220, G: 220, B: 220, A: 255}, render.AlignLeft)
	if v.scenario.Bot.Ctx.TreeDebug.RenderText {
		v.overlay.PushText(v.blackboardSummary(), v.hudWorldPos(12, 32),
			color.RGBA{R: 180, G: 220, B: 180, A: 255}, render.AlignLeft)
	}
	v.overlay.Draw(screen, v.camera)
}

// hudWorldPos converts a screen pixel anchor back into world space so HUD
// text can ride the same overlay path as world annotations.
func (v *viewer) hudWorldPos(px, py float32) game.Vec2 {
	s := v.camera.Scale()
	return game.Vec2{
		X: v.camera.Center.X + (px-screenWidth/2)/s,
		Y: v.camera.Center.Y + (py-screenHeight/2)/s,
	}
}

func (v *viewer) blackboardSummary() string {
	bb := v.scenario.Bot.Ctx.Blackboard
	var parts []string
	for _, key := range []string{"request_ship", "nearest_target", "waypoint_index"} {
		if val, ok := bb.Get(key); ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, val))
		}
	}
	return strings.Join(parts, "  ")
}

func (v *viewer) drawShip(screen *ebiten.Image, pm *game.PlayerManager, p, self *game.Player) {
	if self != nil && !p.IsVisibleTo(self) && p.ID != self.ID {
		return
	}

	col := color.RGBA{R: 80, G: 120, B: 255, A: 255}
	if self != nil && p.Frequency == self.Frequency {
		col = color.RGBA{R: 240, G: 220, B: 80, A: 255}
	}

	sx, sy := v.camera.WorldToScreen(p.Position, screenWidth, screenHeight)
	radius := v.camera.Scale() * 0.9
	vector.DrawFilledCircle(screen, sx, sy, radius, col, false)

	// Heading tick.
	heading := game.OrientationToHeading(uint8(p.Orientation * 40))
	vector.StrokeLine(screen, sx, sy, sx+heading.X*radius*1.6, sy+heading.Y*radius*1.6, 1, col, false)

	// Name tag, children stacked below like the reference client.
	label := fmt.Sprintf("%s(%d)[%d]", p.Name, p.Bounty, p.Ping*10)
	v.overlay.PushText(label, p.Position.Add(game.Vec2{X: 1, Y: 1}), col, render.AlignLeft)

	offset := float32(2)
	for info := p.Children; info != nil; info = info.Next {
		child := pm.GetPlayerByID(info.PlayerID)
		if child == nil || !child.IsSynchronized() {
			continue
		}
		v.overlay.PushText(child.Name, p.Position.Add(game.Vec2{X: 1, Y: offset}), col, render.AlignLeft)
		offset++
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	var seed int64
	var behaviorName string
	var enemies int

	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.StringVar(&behaviorName, "behavior", "brawler", "behavior to run (brawler, turret)")
	flag.IntVar(&enemies, "enemies", 2, "scripted enemy count")
	flag.Parse()

	ebiten.SetWindowTitle("driftbot viewer")
	ebiten.SetWindowSize(screenWidth, screenHeight)

	v := newViewer(scenario.Config{
		Seed:       seed,
		Verbose:    true,
		EnemyCount: enemies,
		Behavior:   behaviorName,
	})
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
