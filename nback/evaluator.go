package nback

import (
	"fmt"
	"math"
)

// MultiplierStep is the multiplier gain per correct decision, per level,
// per active stimulus.
const MultiplierStep = 0.2

// Claim is what the player asserted about the current piece.
type Claim int

const (
	ClaimMatch Claim = iota
	ClaimNoMatch
	// ClaimNone is recorded when the piece locked without a decision.
	ClaimNone
)

func (c Claim) String() string {
	switch c {
	case ClaimMatch:
		return "match"
	case ClaimNoMatch:
		return "no-match"
	default:
		return "none"
	}
}

// Outcome is the judged result of one decision.
type Outcome struct {
	Type    StimulusType
	Claim   Claim
	Correct bool
}

// Decisions records which stimulus types already received a decision for
// the current piece.
type Decisions struct {
	Shape bool
	Color bool
}

func (d Decisions) Entered(t StimulusType) bool {
	switch t {
	case Shape:
		return d.Shape
	case Color:
		return d.Color
	}
	return false
}

func (d *Decisions) mark(t StimulusType) {
	switch t {
	case Shape:
		d.Shape = true
	case Color:
		d.Color = true
	}
}

// Evaluator judges decisions against a History and keeps the streak,
// multiplier and per-type MatchStats of one game. It is not safe for
// concurrent use; the game loop serializes access.
type Evaluator struct {
	set        StimulusSet
	base       float64
	multiplier float64
	streak     int
	maxStreak  int
	entered    Decisions
	stats      [stimulusTypeCount]MatchStats
}

// NewEvaluator returns an evaluator for the given stimuli whose multiplier
// starts at, and never drops below, base.
func NewEvaluator(set StimulusSet, base float64) *Evaluator {
	if base <= 0 {
		base = 1
	}
	return &Evaluator{set: set, base: base, multiplier: base}
}

func (e *Evaluator) Set() StimulusSet        { return e.set }
func (e *Evaluator) Multiplier() float64     { return e.multiplier }
func (e *Evaluator) BaseMultiplier() float64 { return e.base }
func (e *Evaluator) Streak() int             { return e.streak }
func (e *Evaluator) MaxStreak() int          { return e.maxStreak }
func (e *Evaluator) Decisions() Decisions    { return e.entered }

// Stats returns the counters of one stimulus type.
func (e *Evaluator) Stats(t StimulusType) MatchStats {
	if t < 0 || t >= stimulusTypeCount {
		return MatchStats{}
	}
	return e.stats[t]
}

// Overall sums the counters of every enabled type.
func (e *Evaluator) Overall() MatchStats {
	var total MatchStats
	for _, t := range e.set.types {
		total = total.Add(e.stats[t])
	}
	return total
}

// Match records a "matches n-back" claim for type t. ok is false, and
// nothing changes, when t is disabled or already decided for this piece.
func (e *Evaluator) Match(h *History, t StimulusType) (Outcome, bool) {
	return e.decide(h, t, ClaimMatch)
}

// NoMatch records a "does not match" claim for type t. With insufficient
// history the claim is vacuously correct.
func (e *Evaluator) NoMatch(h *History, t StimulusType) (Outcome, bool) {
	return e.decide(h, t, ClaimNoMatch)
}

func (e *Evaluator) decide(h *History, t StimulusType, claim Claim) (Outcome, bool) {
	if !e.set.Has(t) || e.entered.Entered(t) {
		return Outcome{}, false
	}
	e.entered.mark(t)

	isMatch := h.IsMatch(e.set.level, t)
	out := Outcome{Type: t, Claim: claim}

	switch {
	case claim == ClaimMatch && isMatch:
		out.Correct = true
		e.stats[t].CorrectMatches++
	case claim == ClaimMatch:
		e.stats[t].IncorrectMatches++
	case !isMatch:
		out.Correct = true
		e.stats[t].CorrectNonMatches++
	default:
		e.stats[t].MissedMatches++
	}

	e.apply(out.Correct)
	return out, true
}

// AutoMiss scores every enabled type still undecided for the current piece
// as a missed match. It is called when the piece locks.
func (e *Evaluator) AutoMiss() []Outcome {
	var outcomes []Outcome
	for _, t := range e.set.types {
		if e.entered.Entered(t) {
			continue
		}
		e.entered.mark(t)
		e.stats[t].MissedMatches++
		e.apply(false)
		outcomes = append(outcomes, Outcome{Type: t, Claim: ClaimNone})
	}
	return outcomes
}

// NextPiece clears the per-piece decision guard.
func (e *Evaluator) NextPiece() { e.entered = Decisions{} }

func (e *Evaluator) apply(correct bool) {
	if correct {
		e.streak++
		e.maxStreak = max(e.maxStreak, e.streak)
		e.multiplier += float64(e.set.level) * MultiplierStep * float64(e.set.Len())
		return
	}
	e.streak = 0
	e.multiplier = max(e.base, e.multiplier/2)
}

// FormatMultiplier renders a multiplier truncated to one decimal, e.g. "1.4x".
func FormatMultiplier(m float64) string {
	return fmt.Sprintf("%.1fx", math.Floor(m*10+1e-9)/10)
}
