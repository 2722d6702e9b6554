package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Intent is a player command decoded from the keyboard.
type Intent int

const (
	IntentNone Intent = iota
	IntentLeft
	IntentRight
	IntentRotateCW
	IntentRotateCCW
	IntentSoftDrop
	IntentDrop
	IntentShapeMatch
	IntentShapeNoMatch
	IntentColorMatch
	IntentColorNoMatch
	IntentStart
	IntentPause
	IntentQuit
	IntentLevelUp
	IntentLevelDown
	IntentLongerDuration
	IntentShorterDuration
	IntentToggleColor
	IntentToggleBlind
	IntentToggleDig
	IntentToggleInspector
)

// Held keys repeat after delayTicks, then every repeatTicks, at 60 TPS.
const (
	delayTicks  = 10
	repeatTicks = 3
)

type binding struct {
	key    ebiten.Key
	intent Intent
	repeat bool
}

var bindings = []binding{
	{ebiten.KeyArrowLeft, IntentLeft, true},
	{ebiten.KeyArrowRight, IntentRight, true},
	{ebiten.KeyArrowDown, IntentSoftDrop, true},
	{ebiten.KeyArrowUp, IntentRotateCW, false},
	{ebiten.KeyX, IntentRotateCW, false},
	{ebiten.KeyZ, IntentRotateCCW, false},
	{ebiten.KeySpace, IntentDrop, false},
	{ebiten.KeyJ, IntentShapeMatch, false},
	{ebiten.KeyF, IntentShapeNoMatch, false},
	{ebiten.KeyK, IntentColorMatch, false},
	{ebiten.KeyD, IntentColorNoMatch, false},
	{ebiten.KeyEnter, IntentStart, false},
	{ebiten.KeyP, IntentPause, false},
	{ebiten.KeyEscape, IntentPause, false},
	{ebiten.KeyQ, IntentQuit, false},
	{ebiten.KeyEqual, IntentLevelUp, false},
	{ebiten.KeyMinus, IntentLevelDown, false},
	{ebiten.KeyBracketRight, IntentLongerDuration, false},
	{ebiten.KeyBracketLeft, IntentShorterDuration, false},
	{ebiten.KeyC, IntentToggleColor, false},
	{ebiten.KeyB, IntentToggleBlind, false},
	{ebiten.KeyG, IntentToggleDig, false},
	{ebiten.KeyF1, IntentToggleInspector, false},
}

// fires reports whether a key held for ticks should trigger this frame.
func fires(ticks int, repeat bool) bool {
	switch {
	case ticks == 1:
		return true
	case !repeat || ticks < delayTicks:
		return false
	default:
		return (ticks-delayTicks)%repeatTicks == 0
	}
}

// pollIntents returns the intents triggered this frame in binding order.
func pollIntents(held func(ebiten.Key) int) []Intent {
	var out []Intent
	for _, b := range bindings {
		if fires(held(b.key), b.repeat) {
			out = append(out, b.intent)
		}
	}
	return out
}

func keyboardIntents() []Intent {
	return pollIntents(inpututil.KeyPressDuration)
}
