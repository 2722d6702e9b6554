package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/progress"
)

// Controls is the subset of the engine the control window drives.
type Controls interface {
	Start()
	Pause()
	Resume()
	Quit()
	State() game.State
}

// SnapshotWindow lists every field of the latest engine snapshot.
func SnapshotWindow(snapshot func() game.Snapshot) Item {
	return Item{
		Name: "Snapshot",
		Render: func() {
			imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
			imgui.SetNextWindowSizeV(imgui.NewVec2(340, 400), imgui.CondOnce)
			if !imgui.BeginV("Snapshot", nil, imgui.WindowFlagsNone) {
				imgui.End()
				return
			}
			for _, f := range Fields(snapshot()) {
				renderField(f)
			}
			imgui.End()
		},
	}
}

func renderField(f Field) {
	switch {
	case f.Children != nil:
		if imgui.TreeNodeStr(f.Name) {
			for _, c := range f.Children {
				renderField(c)
			}
			imgui.TreePop()
		}
	case strings.Contains(f.Value, "\n"):
		if imgui.TreeNodeStr(f.Name) {
			imgui.Text(f.Value)
			imgui.TreePop()
		}
	default:
		imgui.Text(fmt.Sprintf("%s: %s", f.Name, f.Value))
	}
}

// ControlWindow exposes the lifecycle intents as buttons.
func ControlWindow(c Controls) Item {
	return Item{
		Name: "Controls",
		Render: func() {
			imgui.SetNextWindowPosV(imgui.NewVec2(360, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
			if !imgui.BeginV("Controls", nil, imgui.WindowFlagsNone) {
				imgui.End()
				return
			}

			state := c.State()
			imgui.Text(fmt.Sprintf("State: %s", state))
			switch state {
			case game.Running:
				if imgui.Button("Pause") {
					c.Pause()
				}
			case game.Paused:
				imgui.TextColored(imgui.NewVec4(1.0, 0.8, 0.0, 1.0), "PAUSED")
				if imgui.Button("Resume") {
					c.Resume()
				}
			default:
				if imgui.Button("Start") {
					c.Start()
				}
			}
			imgui.SameLine()
			if imgui.Button("Quit") {
				c.Quit()
			}
			imgui.End()
		},
	}
}

// AchievementRow is one formatted line of the achievements table.
type AchievementRow struct {
	Title    string
	Status   string
	Unlocked bool
}

// AchievementRows formats the catalog for display.
func AchievementRows(list []progress.Achievement) []AchievementRow {
	rows := make([]AchievementRow, len(list))
	for i, a := range list {
		rows[i] = AchievementRow{Title: a.Title, Status: "locked"}
		if a.Unlocked {
			rows[i].Unlocked = true
			rows[i].Status = a.UnlockedAt.Format("2006-01-02 15:04")
		}
	}
	return rows
}

// AchievementsWindow lists the catalog with unlock dates. list is called
// on every frame, so it should be cheap or cached by the caller.
func AchievementsWindow(list func() []progress.Achievement) Item {
	return Item{
		Name: "Achievements",
		Render: func() {
			imgui.SetNextWindowPosV(imgui.NewVec2(360, 120), imgui.CondOnce, imgui.NewVec2(0, 0))
			imgui.SetNextWindowSizeV(imgui.NewVec2(320, 300), imgui.CondOnce)
			if !imgui.BeginV("Achievements", nil, imgui.WindowFlagsNone) {
				imgui.End()
				return
			}

			rows := AchievementRows(list())
			unlocked := 0
			for _, r := range rows {
				if r.Unlocked {
					unlocked++
				}
			}
			imgui.ProgressBarV(float32(unlocked)/float32(max(1, len(rows))), imgui.NewVec2(-1, 0),
				fmt.Sprintf("%d/%d", unlocked, len(rows)))

			const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
			if imgui.BeginTableV("AchievementsTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
				imgui.TableSetupColumn("Achievement")
				imgui.TableSetupColumn("Unlocked")
				imgui.TableHeadersRow()
				for _, r := range rows {
					imgui.TableNextRow()
					imgui.TableNextColumn()
					imgui.Text(r.Title)
					imgui.TableNextColumn()
					if r.Unlocked {
						imgui.TextColored(imgui.NewVec4(0.3, 0.8, 0.3, 1.0), r.Status)
					} else {
						imgui.Text(r.Status)
					}
				}
				imgui.EndTable()
			}
			imgui.End()
		},
	}
}
