package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/menoback/game"
)

// FrameHistory is a fixed ring of frame times in milliseconds.
type FrameHistory struct {
	samples []float32
	index   int
	filled  int
}

// NewFrameHistory keeps the last frames samples.
func NewFrameHistory(frames int) *FrameHistory {
	return &FrameHistory{samples: make([]float32, max(1, frames))}
}

func (h *FrameHistory) Push(ms float32) {
	h.samples[h.index] = ms
	h.index = (h.index + 1) % len(h.samples)
	h.filled = min(h.filled+1, len(h.samples))
}

// Average is the mean over the recorded frames, 0 before the first.
func (h *FrameHistory) Average() float32 {
	if h.filled == 0 {
		return 0
	}
	var sum float32
	for _, s := range h.samples[:h.filled] {
		sum += s
	}
	return sum / float32(h.filled)
}

// Samples exposes the ring for plotting. It is not ordered by age.
func (h *FrameHistory) Samples() []float32 { return h.samples }

// FrameTimer measures the wall time between frames.
type FrameTimer struct {
	now           func() time.Time
	lastFrameTime time.Time
}

// NewFrameTimer starts timing from now.
func NewFrameTimer() *FrameTimer {
	return &FrameTimer{now: time.Now, lastFrameTime: time.Now()}
}

// Delta returns the time since the previous call.
func (ft *FrameTimer) Delta() time.Duration {
	now := ft.now()
	delta := now.Sub(ft.lastFrameTime)
	ft.lastFrameTime = now
	return delta
}

// SystemRow is one formatted line of the pipeline table.
type SystemRow struct {
	Name  string
	Calls int64
	Avg   string
	Max   string
	Last  string
	Share float64
}

// SystemRows formats per-system timings. Share is the percentage of the
// whole pipeline's time spent in the system.
func SystemRows(stats game.PipelineStats) []SystemRow {
	var total time.Duration
	for _, s := range stats.Systems {
		total += s.TotalDuration
	}

	rows := make([]SystemRow, len(stats.Systems))
	for i, s := range stats.Systems {
		rows[i] = SystemRow{
			Name:  s.Name,
			Calls: s.ExecutionCount,
			Avg:   formatMicros(s.AvgDuration),
			Max:   formatMicros(s.MaxDuration),
			Last:  formatMicros(s.LastDuration),
		}
		if total > 0 {
			rows[i].Share = float64(s.TotalDuration) * 100 / float64(total)
		}
	}
	return rows
}

func formatMicros(d time.Duration) string {
	return fmt.Sprintf("%.1fus", float64(d)/float64(time.Microsecond))
}

// PerformanceWindow shows frame times and the descent pipeline timings.
func PerformanceWindow(stats func() game.PipelineStats, timer *FrameTimer, history *FrameHistory) Item {
	return Item{
		Name: "Performance",
		Render: func() {
			history.Push(float32(timer.Delta().Seconds() * 1000))

			imgui.SetNextWindowPosV(imgui.NewVec2(10, 420), imgui.CondOnce, imgui.NewVec2(0, 0))
			imgui.SetNextWindowSizeV(imgui.NewVec2(420, 260), imgui.CondOnce)
			if !imgui.BeginV("Performance", nil, imgui.WindowFlagsNone) {
				imgui.End()
				return
			}

			avg := history.Average()
			if avg > 0 {
				imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
			}
			imgui.PlotLinesFloatPtr("##frametime", &history.Samples()[0], int32(len(history.Samples())))

			s := stats()
			imgui.Separator()
			imgui.Text(fmt.Sprintf("Descent steps: %d", s.TotalExecutions/int64(max(1, s.SystemCount))))

			const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
			if imgui.BeginTableV("PipelineTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
				imgui.TableSetupColumn("System")
				imgui.TableSetupColumn("Calls")
				imgui.TableSetupColumn("Avg")
				imgui.TableSetupColumn("Max")
				imgui.TableSetupColumn("Share")
				imgui.TableHeadersRow()

				for _, row := range SystemRows(s) {
					imgui.TableNextRow()
					imgui.TableNextColumn()
					imgui.Text(row.Name)
					imgui.TableNextColumn()
					imgui.Text(fmt.Sprintf("%d", row.Calls))
					imgui.TableNextColumn()
					imgui.Text(row.Avg)
					imgui.TableNextColumn()
					imgui.Text(row.Max)
					imgui.TableNextColumn()
					imgui.Text(fmt.Sprintf("%.0f%%", row.Share))
				}
				imgui.EndTable()
			}
			imgui.End()
		},
	}
}
