// Package ebiten connects the interaction debug windows to an Ebiten game loop.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/interact/interaction"
)

// ImguiBackend wraps the Ebiten Dear ImGui backend.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The imgui.ini file is disabled.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Tick runs one scheduler tick inside an ImGui frame, so windows deferred by
// debugui.ImguiDriver are built before the frame ends.
func (b *ImguiBackend) Tick(scheduler *interaction.Scheduler) {
	b.BeginFrame()
	scheduler.Once()
	b.EndFrame()
}

// DrawOverlay draws the ImGui frame over screen.
func (b *ImguiBackend) DrawOverlay(screen *ebiten.Image) {
	b.Draw(screen)
}
