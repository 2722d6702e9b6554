package game

import "time"

const (
	InitialSpeed = 1000 * time.Millisecond
	FastestSpeed = 200 * time.Millisecond

	// SpeedUpStreak is the streak interval at which the descent speeds up.
	SpeedUpStreak = 5

	BlindFactor = 1.25
	DigFactor   = 1.5

	// DigRows is how many garbage rows a dig game starts with.
	DigRows = 4
)

var lineScores = [...]int64{20, 100, 300, 500, 1000}

// BaseLineScore is the points for one lock that cleared lines rows. A
// lock that clears nothing still scores.
func BaseLineScore(lines int) int64 {
	switch {
	case lines < 0:
		return 0
	case lines < len(lineScores):
		return lineScores[lines]
	}
	return lineScores[4] * int64(lines) / 4
}

// ComboMultiplier scales a lock's points by the number of consecutive
// line-clearing locks ending with it.
func ComboMultiplier(combo int) float64 {
	switch {
	case combo <= 1:
		return 1
	case combo == 2:
		return 1.25
	case combo == 3:
		return 2
	}
	return float64(combo)
}

// LockScore is the points added by one lock.
func LockScore(lines, combo int, multiplier float64) int64 {
	return int64(float64(BaseLineScore(lines)) * ComboMultiplier(combo) * multiplier)
}

// BaseMultiplier is the n-back multiplier floor for a game with the given
// optional modes. Each mode contributes an independent factor.
func BaseMultiplier(blind, dig bool) float64 {
	m := 1.0
	if blind {
		m *= BlindFactor
	}
	if dig {
		m *= DigFactor
	}
	return m
}

// NextSpeed moves the descent interval a tenth of the way toward
// FastestSpeed.
func NextSpeed(current time.Duration) time.Duration {
	if current <= FastestSpeed {
		return FastestSpeed
	}
	return current - (current-FastestSpeed)/10
}
