// Package debugui provides Dear ImGui windows for inspecting interaction
// drivers. Windows are queued while the scheduler ticks and drawn after every
// driver has run, so they always show the state at the end of the tick.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/interact/interaction"
)

// ImguiItem holds a Dear ImGui render function.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks whether Dear ImGui is consuming input this frame.
// Hosts check it before feeding the pointer to agents.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiDriver is registered with a Scheduler like any other driver. Each tick
// it refreshes InputState and defers every item's Render to the end of the tick.
type ImguiDriver struct {
	Items      []ImguiItem
	InputState ImguiInputState

	scheduler *interaction.Scheduler
}

func NewImguiDriver(scheduler *interaction.Scheduler, items ...ImguiItem) *ImguiDriver {
	return &ImguiDriver{Items: items, scheduler: scheduler}
}

func (d *ImguiDriver) Name() string { return "imgui" }

func (d *ImguiDriver) Update() {
	io := imgui.CurrentIO()
	d.InputState.WantCaptureMouse = io.WantCaptureMouse()
	d.InputState.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, item := range d.Items {
		d.scheduler.Commands().Defer(item.Render)
	}
}
