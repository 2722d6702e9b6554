package nback

import (
	"fmt"
	"math"
)

// MatchStats counts decision outcomes for one stimulus type (or, summed,
// for a whole game).
type MatchStats struct {
	CorrectMatches    int
	IncorrectMatches  int
	CorrectNonMatches int
	MissedMatches     int
}

func (s MatchStats) Total() int {
	return s.CorrectMatches + s.IncorrectMatches + s.CorrectNonMatches + s.MissedMatches
}

func (s MatchStats) Correct() int { return s.CorrectMatches + s.CorrectNonMatches }

// Accuracy is the percentage of correct decisions, 0 when none were made.
func (s MatchStats) Accuracy() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Correct()) * 100 / float64(total)
}

// FormatAccuracy renders the accuracy truncated to one decimal, e.g. "86.6%".
func (s MatchStats) FormatAccuracy() string {
	return fmt.Sprintf("%.1f%%", math.Floor(s.Accuracy()*10+1e-9)/10)
}

// Add returns the field-wise sum of s and o.
func (s MatchStats) Add(o MatchStats) MatchStats {
	return MatchStats{
		CorrectMatches:    s.CorrectMatches + o.CorrectMatches,
		IncorrectMatches:  s.IncorrectMatches + o.IncorrectMatches,
		CorrectNonMatches: s.CorrectNonMatches + o.CorrectNonMatches,
		MissedMatches:     s.MissedMatches + o.MissedMatches,
	}
}
