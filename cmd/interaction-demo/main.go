package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
	"github.com/plus3/interact/interaction/debugui"
	debugui_ebiten "github.com/plus3/interact/interaction/debugui/ebiten"
	"github.com/plus3/interact/scene"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	HandSpeed    = 4
)

func main() {
	scenePath := flag.String("scene", "assets/scenes/demo.yaml", "Scene file to load.")
	debug := flag.Bool("debug", true, "Show the ImGui inspector windows.")
	watch := flag.Bool("watch", true, "Reload the scene when the file changes.")
	verbose := flag.Bool("v", false, "Log every state transition.")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	game := &Game{
		scenePath: *scenePath,
		scheduler: interaction.NewScheduler(),
		ids:       interaction.NewIDRegistry(),
		logger:    logger,
		hand:      cp.Vector{X: 560, Y: 240},
	}

	if err := game.load(); err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	if *debug {
		game.backend = debugui_ebiten.NewImguiBackend("Interaction Demo", ScreenWidth, ScreenHeight)
		inspector := debugui.NewInspector(func() []interaction.Interactor { return game.world.Roots })
		stats := debugui.NewSchedulerStats(game.scheduler, 120)
		game.imgui = debugui.NewImguiDriver(game.scheduler,
			debugui.ImguiItem{Render: inspector.Render},
			debugui.ImguiItem{Render: stats.Render},
		)
		game.scheduler.Register(game.imgui)
	} else {
		ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
		ebiten.SetWindowTitle("Interaction Demo")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if *watch {
		watcher, err := scene.NewWatcher(*scenePath)
		if err != nil {
			log.Printf("Scene hot reload disabled: %v", err)
		} else {
			game.watcher = watcher
			defer watcher.Close()
		}
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
