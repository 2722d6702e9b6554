// Package game runs a session: it owns the board, the falling piece, the
// piece history and the counters, applies player intents and drives the
// descent and countdown loops until the game ends.
package game

// State is the lifecycle state of the engine.
type State int

const (
	NotStarted State = iota
	Running
	Paused
	GameOver
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case GameOver:
		return "game_over"
	}
	return "unknown"
}

// Cause labels why a game ended. Only TimeElapsed can unlock a level.
type Cause int

const (
	CauseNone Cause = iota
	BoardFull
	TimeElapsed
)

func (c Cause) String() string {
	switch c {
	case BoardFull:
		return "board_full"
	case TimeElapsed:
		return "time_elapsed"
	}
	return "none"
}
