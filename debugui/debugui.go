// Package debugui draws engine inspector windows with Dear ImGui. Windows
// are registered as Items on an Overlay and rendered once per frame,
// between the backend's BeginFrame and EndFrame.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
)

// Item holds a Dear ImGui render function.
type Item struct {
	Name   string
	Render func()
}

// InputState tracks whether Dear ImGui is consuming mouse or keyboard
// input, so the game can ignore keys typed into a debug window.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Overlay is an ordered set of inspector windows that can be toggled as a
// whole.
type Overlay struct {
	items   []Item
	input   InputState
	visible bool
}

// NewOverlay returns a visible overlay rendering items in order.
func NewOverlay(items ...Item) *Overlay {
	return &Overlay{items: items, visible: true}
}

func (o *Overlay) Add(item Item) { o.items = append(o.items, item) }

// Items lists the registered window names in render order.
func (o *Overlay) Items() []string {
	names := make([]string, len(o.items))
	for i, item := range o.items {
		names[i] = item.Name
	}
	return names
}

func (o *Overlay) Visible() bool { return o.visible }

// Toggle shows or hides every window.
func (o *Overlay) Toggle() { o.visible = !o.visible }

// Input returns the capture state sampled by the last Render.
func (o *Overlay) Input() InputState {
	if !o.visible {
		return InputState{}
	}
	return o.input
}

// Render samples the input capture state and draws every item. It must
// run inside an ImGui frame.
func (o *Overlay) Render() {
	if !o.visible {
		return
	}

	io := imgui.CurrentIO()
	o.input.WantCaptureMouse = io.WantCaptureMouse()
	o.input.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, item := range o.items {
		item.Render()
	}
}
