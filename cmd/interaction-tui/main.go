package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
	"github.com/plus3/interact/scene"
)

// One terminal cell covers this many scene units.
const (
	cellW = 8
	cellH = 16

	tickInterval = 16 * time.Millisecond
)

var stateStyles = map[interaction.InteractorState]tcell.Style{
	interaction.StateNormal:   tcell.StyleDefault.Background(tcell.ColorSlateGray),
	interaction.StateHover:    tcell.StyleDefault.Background(tcell.ColorGold).Foreground(tcell.ColorBlack),
	interaction.StateSelect:   tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack),
	interaction.StateDisabled: tcell.StyleDefault.Background(tcell.ColorDimGray),
}

type Game struct {
	screen    tcell.Screen
	world     *scene.World
	scheduler *interaction.Scheduler

	pointer        cp.Vector
	pointerPresent bool
	mouseDown      bool
	hand           cp.Vector
	handPressed    bool

	audioInit bool
}

func main() {
	scenePath := flag.String("scene", "assets/scenes/demo.yaml", "Scene file to load.")
	mute := flag.Bool("mute", false, "Disable select and unselect tones.")
	flag.Parse()

	// tcell owns the terminal, so only errors are logged.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	s, err := scene.Load(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	g := &Game{scheduler: interaction.NewScheduler(), hand: cp.Vector{X: 560, Y: 240}}
	g.world, err = scene.Build(s, scene.Inputs{
		Pointer:   func() (cp.Vector, bool) { return g.pointer, g.pointerPresent },
		Positions: map[string]func() cp.Vector{"hand": func() cp.Vector { return g.hand }},
	})
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}
	defer g.world.Close()

	if !*mute {
		if err := g.initAudio(); err != nil {
			// Non-fatal, the demo runs without sound
			log.Printf("Audio initialization failed: %v", err)
		}
	}
	for _, agent := range g.world.Agents {
		agent.WhenInteractableSelected().Subscribe(func(interaction.Interactable) { g.tone(880, 60) })
		agent.WhenInteractableUnselected().Subscribe(func(interaction.Interactable) { g.tone(440, 40) })
	}

	g.world.Start()
	g.world.Register(g.scheduler)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to initialise screen: %v", err)
	}
	screen.EnableMouse()
	g.screen = screen

	g.run()
	screen.Fini()
}

func (g *Game) initAudio() error {
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		g.audioInit = true
	}
	return err
}

func (g *Game) tone(freq int, ms int) {
	if !g.audioInit {
		return
	}
	sampleRate := beep.SampleRate(44100)
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(time.Duration(ms)*time.Millisecond), sine))
}

func (g *Game) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}
		case <-ticker.C:
			g.pressSelectors()
			g.scheduler.Once()
			g.draw()
		}
	}
}

func (g *Game) pressSelectors() {
	for _, a := range g.world.Scene.Agents {
		switch a.Source {
		case scene.SourcePointer:
			g.world.Selectors[a.Name].SetPressed(g.mouseDown)
		case scene.SourceProximity:
			g.world.Selectors[a.Name].SetPressed(g.handPressed)
		}
	}
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
		switch ev.Key() {
		case tcell.KeyLeft:
			g.hand.X -= cellW
		case tcell.KeyRight:
			g.hand.X += cellW
		case tcell.KeyUp:
			g.hand.Y -= cellH
		case tcell.KeyDown:
			g.hand.Y += cellH
		case tcell.KeyRune:
			if ev.Rune() == ' ' {
				// terminals report no key release, so space toggles
				g.handPressed = !g.handPressed
			}
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		g.pointer = cellCenter(x, y)
		g.pointerPresent = true
		g.mouseDown = ev.Buttons()&tcell.Button1 != 0
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func cellCenter(x, y int) cp.Vector {
	return cp.Vector{X: float64(x*cellW + cellW/2), Y: float64(y*cellH + cellH/2)}
}

func (g *Game) draw() {
	g.screen.Clear()
	width, height := g.screen.Size()

	for _, spec := range g.world.Scene.Targets {
		style := stateStyles[g.world.Targets[spec.Name].State()]
		for y := 0; y < height-1; y++ {
			for x := 0; x < width; x++ {
				if covers(spec, cellCenter(x, y)) {
					g.screen.SetContent(x, y, ' ', nil, style)
				}
			}
		}
		lx, ly := labelCell(spec)
		drawText(g.screen, lx, ly, spec.Name, style)
	}

	hx, hy := int(g.hand.X)/cellW, int(g.hand.Y)/cellH
	handStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	if g.handPressed {
		handStyle = handStyle.Foreground(tcell.ColorRed)
	}
	g.screen.SetContent(hx, hy, '+', nil, handStyle)

	status := "mouse: hover/click | arrows: move hand, space: use | q: quit"
	if input, ok := g.world.Groups["input"]; ok && input.CandidateInteractor() != nil {
		status += fmt.Sprintf(" | winner %s %s", input.CandidateInteractor().ID(), input.State())
	}
	drawText(g.screen, 0, height-1, status, tcell.StyleDefault.Reverse(true))

	g.screen.Show()
}

func covers(spec scene.TargetSpec, p cp.Vector) bool {
	if spec.Box != nil {
		return p.X >= spec.Box[0] && p.X < spec.Box[0]+spec.Box[2] &&
			p.Y >= spec.Box[1] && p.Y < spec.Box[1]+spec.Box[3]
	}
	return p.Distance(cp.Vector{X: spec.Circle[0], Y: spec.Circle[1]}) < spec.Circle[2]
}

func labelCell(spec scene.TargetSpec) (int, int) {
	if spec.Box != nil {
		return int(spec.Box[0]) / cellW, int(spec.Box[1]) / cellH
	}
	return int(spec.Circle[0]-spec.Circle[2]) / cellW, int(spec.Circle[1]+spec.Circle[2]) / cellH
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
