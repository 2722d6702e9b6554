package main

import (
	"context"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/config"
	debugui_ebiten "github.com/plus3/menoback/debugui/ebiten"
	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/progress"
	"go.uber.org/zap"
)

// feedbackTicks is how long a decision's feedback stays on screen.
const feedbackTicks = 18

type feedback struct {
	correct bool
	ticks   int
}

// App is the ebiten.Game that turns keys into engine intents and draws
// the latest snapshot.
type App struct {
	engine   *game.Engine
	settings *config.Settings
	tracker  *progress.Tracker
	logger   *zap.Logger

	inspector *debugui_ebiten.ImguiBackend
	feedback  feedback

	mu       sync.Mutex
	unlocked []progress.Achievement
}

func (a *App) Update() error {
	if a.inspector != nil {
		a.inspector.Update()
	}
	if a.feedback.ticks > 0 {
		a.feedback.ticks--
	}

	if a.inspector != nil && a.inspector.Overlay.Input().WantCaptureKeyboard {
		return nil
	}
	for _, intent := range keyboardIntents() {
		if err := a.apply(intent); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if a.inspector != nil {
		a.inspector.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// apply routes one intent. Play intents go straight to the engine, which
// ignores them outside Running. Settings intents only apply between games.
func (a *App) apply(intent Intent) error {
	e := a.engine
	switch intent {
	case IntentLeft:
		e.MoveLeft()
	case IntentRight:
		e.MoveRight()
	case IntentRotateCW:
		e.Rotate(board.Clockwise)
	case IntentRotateCCW:
		e.Rotate(board.CounterClockwise)
	case IntentSoftDrop:
		e.SoftDrop()
	case IntentDrop:
		e.Drop()
	case IntentShapeMatch:
		a.decided(e.MatchChoice(nback.Shape))
	case IntentShapeNoMatch:
		a.decided(e.NoMatchChoice(nback.Shape))
	case IntentColorMatch:
		a.decided(e.MatchChoice(nback.Color))
	case IntentColorNoMatch:
		a.decided(e.NoMatchChoice(nback.Color))

	case IntentStart:
		switch e.State() {
		case game.Paused:
			e.Resume()
		case game.NotStarted, game.GameOver:
			a.setUnlocked(nil)
			e.Start()
		}
	case IntentPause:
		switch e.State() {
		case game.Running:
			e.Pause()
		case game.Paused:
			e.Resume()
		}
	case IntentQuit:
		if e.State() == game.NotStarted {
			return ebiten.Termination
		}
		e.Quit()

	case IntentToggleInspector:
		if a.inspector != nil {
			a.inspector.Overlay.Toggle()
		}

	default:
		a.editSettings(intent)
	}
	return nil
}

func (a *App) decided(out nback.Outcome, ok bool) {
	if ok {
		a.feedback = feedback{correct: out.Correct, ticks: feedbackTicks}
	}
}

func (a *App) editSettings(intent Intent) {
	switch a.engine.State() {
	case game.Running, game.Paused:
		return
	}

	maxLevel := a.maxLevel()
	hasColor := a.settings.Stimuli().Has(nback.Color)
	err := a.settings.Update(func(c config.Config) config.Config {
		switch intent {
		case IntentLevelUp:
			c.Level = min(c.Level+1, maxLevel)
		case IntentLevelDown:
			c.Level = max(c.Level-1, nback.MinLevel)
		case IntentLongerDuration:
			c = c.LongerDuration()
		case IntentShorterDuration:
			c = c.ShorterDuration()
		case IntentToggleColor:
			c = c.WithStimulus(nback.Color, !hasColor)
		case IntentToggleBlind:
			c = c.WithBlind(!c.Blind)
		case IntentToggleDig:
			c = c.WithDig(!c.Dig)
		}
		return c
	})
	if err != nil {
		a.logger.Warn("settings change rejected", zap.Error(err))
		return
	}

	// a new key may have a lower unlocked level
	a.settings.ClampLevel(a.maxLevel())
	a.engine.Quit()
}

func (a *App) maxLevel() int {
	key := progress.NewKey(a.settings.DurationSeconds(), a.settings.Stimuli())
	return a.tracker.MaxUnlockedLevel(context.Background(), key)
}

// setUnlocked keeps the achievements of the last game for the results
// screen. The engine calls it from its own goroutine.
func (a *App) setUnlocked(list []progress.Achievement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unlocked = list
}

func (a *App) lastUnlocked() []progress.Achievement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unlocked
}
