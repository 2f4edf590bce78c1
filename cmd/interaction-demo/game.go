package main

import (
	"fmt"
	"image/color"
	"log"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
	"github.com/plus3/interact/interaction/debugui"
	debugui_ebiten "github.com/plus3/interact/interaction/debugui/ebiten"
	"github.com/plus3/interact/scene"
)

var stateColors = map[interaction.InteractorState]color.RGBA{
	interaction.StateNormal:   {120, 130, 150, 255},
	interaction.StateHover:    {240, 200, 80, 255},
	interaction.StateSelect:   {110, 220, 120, 255},
	interaction.StateDisabled: {70, 70, 70, 255},
}

type Game struct {
	scenePath string
	scheduler *interaction.Scheduler
	ids       *interaction.IDRegistry
	logger    *slog.Logger
	world     *scene.World
	watcher   *scene.Watcher
	backend   *debugui_ebiten.ImguiBackend
	imgui     *debugui.ImguiDriver

	pointer        cp.Vector
	pointerPresent bool
	hand           cp.Vector
}

// load builds the scene file and swaps it in. The previous world keeps running
// if the new one fails to build.
func (g *Game) load() error {
	s, err := scene.Load(g.scenePath)
	if err != nil {
		return err
	}
	w, err := scene.Build(s, scene.Inputs{
		IDs:     g.ids,
		Logger:  g.logger,
		Pointer: func() (cp.Vector, bool) { return g.pointer, g.pointerPresent },
		Positions: map[string]func() cp.Vector{
			"hand": func() cp.Vector { return g.hand },
		},
	})
	if err != nil {
		return err
	}

	if g.world != nil {
		g.world.Unregister(g.scheduler)
		g.world.Close()
	}
	g.world = w
	g.world.Start()
	g.world.Register(g.scheduler)
	g.logger.Info("scene loaded", "scene", s.Name, "targets", len(w.Targets), "roots", len(w.Roots))
	return nil
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.reload()
	g.readInput()

	if g.backend != nil {
		g.backend.Tick(g.scheduler)
	} else {
		g.scheduler.Once()
	}
	return nil
}

func (g *Game) reload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case _, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if err := g.load(); err != nil {
				log.Printf("Scene reload failed: %v", err)
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("Scene watcher: %v", err)
		default:
			return
		}
	}
}

func (g *Game) readInput() {
	captured := g.imgui != nil && g.imgui.InputState.WantCaptureMouse
	mx, my := ebiten.CursorPosition()
	g.pointer = cp.Vector{X: float64(mx), Y: float64(my)}
	g.pointerPresent = !captured

	mouseLeft := !captured && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	keyboard := g.imgui != nil && g.imgui.InputState.WantCaptureKeyboard

	if !keyboard {
		if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
			g.hand.X -= HandSpeed
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
			g.hand.X += HandSpeed
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
			g.hand.Y -= HandSpeed
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
			g.hand.Y += HandSpeed
		}
	}
	space := !keyboard && ebiten.IsKeyPressed(ebiten.KeySpace)

	for _, a := range g.world.Scene.Agents {
		switch a.Source {
		case scene.SourcePointer:
			g.world.Selectors[a.Name].SetPressed(mouseLeft)
		case scene.SourceProximity:
			g.world.Selectors[a.Name].SetPressed(space)
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 26, 32, 255})

	for _, spec := range g.world.Scene.Targets {
		target := g.world.Targets[spec.Name]
		c := stateColors[target.State()]
		if spec.Box != nil {
			x, y, w, h := float32(spec.Box[0]), float32(spec.Box[1]), float32(spec.Box[2]), float32(spec.Box[3])
			vector.DrawFilledRect(screen, x, y, w, h, c, false)
			vector.StrokeRect(screen, x, y, w, h, 1, color.RGBA{220, 220, 215, 255}, false)
			ebitenutil.DebugPrintAt(screen, spec.Name, int(x)+6, int(y)+6)
		} else {
			x, y, r := float32(spec.Circle[0]), float32(spec.Circle[1]), float32(spec.Circle[2])
			vector.DrawFilledCircle(screen, x, y, r, c, false)
			ebitenutil.DebugPrintAt(screen, spec.Name, int(x-r), int(y+r)+4)
		}
	}

	hx, hy := float32(g.hand.X), float32(g.hand.Y)
	vector.StrokeLine(screen, hx-8, hy, hx+8, hy, 2, color.White, false)
	vector.StrokeLine(screen, hx, hy-8, hx, hy+8, 2, color.White, false)

	ebitenutil.DebugPrintAt(screen, g.status(), 10, screen.Bounds().Dy()-20)

	if g.backend != nil {
		g.backend.DrawOverlay(screen)
	}
}

func (g *Game) status() string {
	status := "mouse: hover/click | arrows: move hand, space: use | q: quit"
	for _, root := range g.world.Roots {
		if group, ok := root.(*interaction.Group); ok && group.CandidateInteractor() != nil {
			status += fmt.Sprintf(" | %s -> %s (%s)", group.Name(), group.CandidateInteractor().ID(), group.State())
		}
	}
	return status
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.backend != nil {
		g.backend.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
