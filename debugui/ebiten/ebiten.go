// Package ebiten hosts the debugui overlay inside an Ebiten game loop.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/menoback/debugui"
)

// ImguiBackend wraps the Ebiten Dear ImGui backend and renders one
// overlay per frame.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
	Overlay *debugui.Overlay
}

// NewImguiBackend creates the backend window. imgui.ini persistence is
// disabled.
func NewImguiBackend(title string, width, height int, overlay *debugui.Overlay) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend, Overlay: overlay}
}

// Update builds this frame's ImGui draw data. Call it from ebiten.Game
// Update.
func (b *ImguiBackend) Update() {
	b.BeginFrame()
	b.Overlay.Render()
	b.EndFrame()
}

// DrawOver paints the overlay on top of the game screen.
func (b *ImguiBackend) DrawOver(screen *ebiten.Image) {
	if b.Overlay.Visible() {
		b.Draw(screen)
	}
}
