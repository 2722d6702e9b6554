package main

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/config"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/nback"
)

const (
	cellSize = 28
	boardX   = 40
	boardY   = 40
	panelX   = boardX + board.DefaultWidth*cellSize + 40
)

var (
	background     = color.RGBA{30, 30, 36, 255}
	emptyColor     = color.RGBA{128, 128, 128, 255}
	lockedColor    = color.RGBA{90, 90, 110, 255}
	correctColor   = color.RGBA{169, 229, 169, 255}
	incorrectColor = color.RGBA{218, 93, 93, 255}
)

// palette indexed by nback.ColorTag.
var palette = [nback.ColorCount + 1]color.RGBA{
	{},
	{144, 216, 249, 255},
	{253, 253, 150, 255},
	{255, 163, 226, 255},
	{102, 153, 255, 255},
	{255, 203, 148, 255},
	{169, 229, 169, 255},
	{218, 93, 93, 255},
}

// cellColor picks the fill of one display-board cell. The falling piece is
// drawn in its color stimulus; blind mode hides settled blocks.
func cellColor(v int, snap game.Snapshot) color.RGBA {
	switch {
	case v == 0:
		return emptyColor
	case v == board.LockedType:
		if snap.Blind {
			return emptyColor
		}
		return lockedColor
	default:
		return palette[snap.Current.Color]
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	snap := a.engine.Snapshot()

	drawBoard(screen, snap)
	if a.feedback.ticks > 0 {
		c := incorrectColor
		if a.feedback.correct {
			c = correctColor
		}
		w, h := float32(board.DefaultWidth*cellSize), float32(board.DefaultHeight*cellSize)
		vector.StrokeRect(screen, boardX-4, boardY-4, w+8, h+8, 4, c, false)
	}

	ebitenutil.DebugPrintAt(screen, panelText(snap), panelX, boardY)
	if snap.HasNext {
		drawPiece(screen, snap.Next.Piece, palette[snap.Next.Color], panelX, boardY+300, cellSize/2)
	}
	if overlay := a.overlayText(snap); overlay != "" {
		ebitenutil.DebugPrintAt(screen, overlay, boardX+16, boardY+board.DefaultHeight*cellSize/3)
	}

	if a.inspector != nil {
		a.inspector.DrawOver(screen)
	}
}

func drawBoard(screen *ebiten.Image, snap game.Snapshot) {
	for r, row := range snap.Board.Rows() {
		for c, v := range row {
			x := float32(boardX + c*cellSize)
			y := float32(boardY + r*cellSize)
			vector.DrawFilledRect(screen, x+1, y+1, cellSize-2, cellSize-2, cellColor(v, snap), false)
		}
	}
}

func drawPiece(screen *ebiten.Image, p board.Piece, c color.RGBA, x, y, size int) {
	for cell := range p.Cells() {
		vector.DrawFilledRect(screen,
			float32(x+cell.Col*size)+1, float32(y+cell.Row*size)+1,
			float32(size-2), float32(size-2), c, false)
	}
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func panelText(snap game.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SCORE  %d\n", snap.Score)
	fmt.Fprintf(&sb, "BEST   %d\n", snap.HighScore)
	fmt.Fprintf(&sb, "TIME   %s\n", formatClock(snap.TimeRemaining))
	fmt.Fprintf(&sb, "LEVEL  %d-back (max %d)\n", snap.Level, snap.MaxLevel)
	fmt.Fprintf(&sb, "MULT   %s\n", snap.MultiplierText)
	fmt.Fprintf(&sb, "STREAK %d\n", snap.Streak)
	fmt.Fprintf(&sb, "LINES  %d\n\n", snap.Lines)

	for _, t := range snap.Stimuli.Types() {
		stats := snap.Stats(t)
		mark := " "
		if snap.Decisions.Entered(t) {
			mark = "*"
		}
		fmt.Fprintf(&sb, "%s%-6s %s (%d/%d)\n", mark, t, stats.FormatAccuracy(), stats.Correct(), stats.Total())
	}

	switch {
	case snap.Blind:
		sb.WriteString("\nBLIND MODE\n")
	case snap.Dig:
		sb.WriteString("\nDIG MODE\n")
	}
	sb.WriteString("\nNEXT\n")
	return sb.String()
}

func (a *App) overlayText(snap game.Snapshot) string {
	switch snap.State {
	case game.NotStarted:
		return fmt.Sprintf(
			"ENTER  start\n\n%s  %s\n[ ]    duration\n- =    level\nC      color stimulus\nB / G  blind / dig\n\n"+
				"J / F  shape match / no\nK / D  color match / no\nQ      quit",
			config.FormatDuration(snap.Duration), snap.Stimuli)
	case game.Paused:
		return "PAUSED\n\nENTER resume\nQ     quit game"
	case game.GameOver:
		var sb strings.Builder
		if snap.Cause == game.BoardFull {
			sb.WriteString("BOARD FULL\n\n")
		} else {
			sb.WriteString("TIME UP\n\n")
		}
		fmt.Fprintf(&sb, "score    %d\n", snap.Score)
		fmt.Fprintf(&sb, "accuracy %s\n", snap.Overall.FormatAccuracy())
		if snap.NewHighScore {
			sb.WriteString("\nNEW HIGH SCORE\n")
		}
		if snap.LevelUnlocked {
			fmt.Fprintf(&sb, "\n%d-BACK UNLOCKED\n", snap.Level+1)
		}
		for _, ach := range a.lastUnlocked() {
			fmt.Fprintf(&sb, "* %s\n", ach.Title)
		}
		sb.WriteString("\nENTER play again")
		return sb.String()
	}
	return ""
}
