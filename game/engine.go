package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/plus3/menoback/board"
	"github.com/plus3/menoback/nback"
	"github.com/plus3/menoback/progress"
	"go.uber.org/zap"
)

// Options wires an Engine to its collaborators. Only Settings is required.
type Options struct {
	Settings  Settings
	Progress  Progress
	Listeners []GameOverListener
	Clock     Clock
	Rand      *rand.Rand
	Logger    *zap.Logger
}

// Engine runs one game at a time. Intents and both loops are serialized
// by a single mutex, so an intent either fully precedes or fully follows a
// descent step. Intents that are invalid in the current state are ignored.
type Engine struct {
	mu sync.Mutex

	settings  Settings
	progress  Progress
	listeners []GameOverListener
	clock     Clock
	rng       *rand.Rand
	logger    *zap.Logger
	pipeline  *Pipeline

	state  State
	s      *session
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
	subs   subscribers
	closed bool
}

// NewEngine creates an engine in NotStarted. Settings is required; other
// unset options default to an in-memory tracker, the real clock, a
// time-seeded generator and a no-op logger.
func NewEngine(opts Options) *Engine {
	if opts.Settings == nil {
		panic("game: engine needs settings")
	}

	e := &Engine{
		settings:  opts.Settings,
		progress:  opts.Progress,
		listeners: opts.Listeners,
		clock:     opts.Clock,
		rng:       opts.Rand,
		logger:    opts.Logger,
		pipeline:  newDescentPipeline(),
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.progress == nil {
		e.progress = progress.NewTracker(nil, nil, e.logger)
	}
	if e.clock == nil {
		e.clock = RealClock()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e.resetLocked()
	return e
}

func (e *Engine) key() progress.Key { return progress.NewKey(e.s.duration, e.s.set) }

// resetLocked installs a fresh, not yet started session.
func (e *Engine) resetLocked() {
	e.s = newSession(e.settings, e.rng)
	e.loadProgressLocked()
	e.state = NotStarted
}

func (e *Engine) loadProgressLocked() {
	ctx := context.Background()
	e.s.highScore = e.progress.HighScore(ctx, e.key()).Score
	e.s.maxLevel = e.progress.MaxUnlockedLevel(ctx, e.key())
}

// Snapshot returns the current observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.snapshot(e.state)
}

// Subscribe returns a channel receiving a snapshot after every change. The
// channel holds at most one pending snapshot; older ones are dropped. The
// returned func unsubscribes and closes the channel.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ch := e.subs.add()
	if e.closed {
		e.subs.remove(id)
		return ch, func() {}
	}
	ch <- e.s.snapshot(e.state)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.subs.remove(id)
		})
	}
}

// PipelineStats reports per-system timings of the descent pipeline.
func (e *Engine) PipelineStats() PipelineStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pipeline.Stats()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) publishLocked() {
	e.subs.publish(e.s.snapshot(e.state))
}

// Start begins a new game from any state but Running, reading the
// settings afresh.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state == Running {
		return
	}

	e.stopLocked()
	e.resetLocked()
	e.s.scheduler.Fill(&e.s.history)
	if !e.s.spawn() {
		panic("game: first piece cannot spawn on a fresh board")
	}

	e.state = Running
	e.launchLocked()
	e.logger.Info("game started",
		zap.String("session_id", e.s.id),
		zap.Stringer("stimuli", e.s.set),
		zap.Int("duration", e.s.duration),
		zap.Bool("blind", e.s.blind),
		zap.Bool("dig", e.s.dig))
	e.publishLocked()
}

// Pause stops both loops keeping all game state.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}

	e.stopLocked()
	e.state = Paused
	e.logger.Debug("game paused", zap.String("session_id", e.s.id))
	e.publishLocked()
}

// Resume relaunches both loops of a paused game.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != Paused {
		return
	}

	e.state = Running
	e.launchLocked()
	e.logger.Debug("game resumed", zap.String("session_id", e.s.id))
	e.publishLocked()
}

// Quit abandons the current game and returns to NotStarted.
func (e *Engine) Quit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quitLocked()
}

func (e *Engine) quitLocked() {
	e.stopLocked()
	if e.state != NotStarted {
		e.logger.Info("game quit", zap.String("session_id", e.s.id), zap.Stringer("state", e.state))
	}
	e.resetLocked()
	e.publishLocked()
}

// Close quits, releases subscribers and waits for both loops to exit. The
// engine ignores every call afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.closed {
		e.quitLocked()
		e.closed = true
		e.subs.closeAll()
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// MoveLeft and MoveRight shift the falling piece one column when it fits.
func (e *Engine) MoveLeft()  { e.shift(-1) }
func (e *Engine) MoveRight() { e.shift(1) }

func (e *Engine) shift(cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}

	s := e.s
	if next := s.pos.Shift(cols); s.fits(s.current.Piece, next) {
		s.pos = next
		e.publishLocked()
	}
}

// Rotate turns the falling piece, trying the wall kick offsets in order
// when it does not fit in place.
func (e *Engine) Rotate(dir board.Rotation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}

	s := e.s
	rotated := s.current.Piece.Rotate(dir)
	if s.fits(rotated, s.pos) {
		s.current.Piece = rotated
		e.publishLocked()
		return
	}
	for _, offset := range board.WallKickOffsets {
		if next := s.pos.Shift(offset); s.fits(rotated, next) {
			s.current.Piece, s.pos = rotated, next
			e.publishLocked()
			return
		}
	}
}

// SoftDrop moves the piece down one row without locking it. It reports
// whether the piece moved.
func (e *Engine) SoftDrop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return false
	}

	s := e.s
	if !s.fits(s.current.Piece, s.pos.Down()) {
		return false
	}
	s.pos = s.pos.Down()
	e.publishLocked()
	return true
}

// Drop moves the piece to the lowest free position and locks it at once.
func (e *Engine) Drop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}
	e.stepLocked(true)
	e.publishLocked()
}

// MatchChoice claims the current piece matches its n-back reference on t.
// ok is false when the claim was ignored.
func (e *Engine) MatchChoice(t nback.StimulusType) (nback.Outcome, bool) {
	return e.decide(t, (*nback.Evaluator).Match)
}

// NoMatchChoice claims the current piece does not match on t.
func (e *Engine) NoMatchChoice(t nback.StimulusType) (nback.Outcome, bool) {
	return e.decide(t, (*nback.Evaluator).NoMatch)
}

func (e *Engine) decide(t nback.StimulusType, claim func(*nback.Evaluator, *nback.History, nback.StimulusType) (nback.Outcome, bool)) (nback.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return nback.Outcome{}, false
	}

	s := e.s
	prev := s.eval.Streak()
	out, ok := claim(s.eval, &s.history, t)
	if !ok {
		return out, false
	}

	if streak := s.eval.Streak(); streak > prev && streak%SpeedUpStreak == 0 {
		s.speed = NextSpeed(s.speed)
		e.logger.Debug("speed up", zap.String("session_id", s.id), zap.Int("streak", streak), zap.Duration("speed", s.speed))
	}
	e.publishLocked()
	return out, true
}

// stepLocked runs one descent step and ends the game if the next piece
// cannot spawn.
func (e *Engine) stepLocked(hardDrop bool) {
	frame := &Frame{s: e.s, HardDrop: hardDrop}
	e.pipeline.Execute(frame)

	if len(frame.Missed) > 0 {
		e.logger.Debug("undecided stimuli scored as missed",
			zap.String("session_id", e.s.id), zap.Int("missed", len(frame.Missed)))
	}
	if frame.BoardFull {
		e.gameOverLocked(BoardFull)
	}
}

// secondElapsedLocked counts the timer down and ends the game at zero.
func (e *Engine) secondElapsedLocked() {
	e.s.remaining -= time.Second
	if e.s.remaining <= 0 {
		e.s.remaining = 0
		e.gameOverLocked(TimeElapsed)
	}
}

// gameOverLocked records the high score, evaluates progression on the
// time-elapsed path, notifies listeners, stops the loops and enters
// GameOver, in that order.
func (e *Engine) gameOverLocked(cause Cause) {
	ctx := context.Background()
	s := e.s
	s.cause = cause

	s.newHigh = e.progress.RecordHighScore(ctx, e.key(), s.score, s.set.Level())
	if cause == TimeElapsed {
		s.unlocked = e.progress.CheckLevelProgression(ctx, progress.Session{
			Key:   e.key(),
			Set:   s.set,
			Stats: s.eval.Overall(),
			Score: s.score,
		})
		if s.unlocked {
			s.maxLevel = max(s.maxLevel, s.set.Level()+1)
		}
	}

	result := Result{
		SessionID:     s.id,
		Cause:         cause,
		Stimuli:       s.set,
		Duration:      s.duration,
		Score:         s.score,
		HighScore:     max(s.highScore, s.score),
		NewHighScore:  s.newHigh,
		LevelUnlocked: s.unlocked,
		Stats:         s.eval.Overall(),
		Shape:         s.eval.Stats(nback.Shape),
		Color:         s.eval.Stats(nback.Color),
		MaxStreak:     s.eval.MaxStreak(),
		Lines:         s.lines,
		Pieces:        s.pieces,
		FinishedAt:    e.clock.Now(),
	}
	for _, l := range e.listeners {
		l.OnGameOver(result)
	}

	e.stopLocked()
	e.state = GameOver
	e.logger.Info("game over",
		zap.String("session_id", s.id),
		zap.Stringer("cause", cause),
		zap.Int64("score", s.score),
		zap.Int("level", s.set.Level()),
		zap.String("accuracy", result.Stats.FormatAccuracy()),
		zap.Bool("new_high_score", s.newHigh),
		zap.Bool("level_unlocked", s.unlocked))
}

// launchLocked starts the descent and countdown loops under a fresh
// generation. Both share one cancel func so they always stop together.
func (e *Engine) launchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.gen++
	gen := e.gen

	e.wg.Add(2)
	go e.descentLoop(ctx, gen)
	go e.countdownLoop(ctx, gen)
}

// stopLocked cancels both loops. It is a no-op when they are not running.
func (e *Engine) stopLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
}

// live reports whether a loop of generation gen may still act.
func (e *Engine) live(gen uint64) bool {
	return e.gen == gen && e.state == Running
}

func (e *Engine) descentLoop(ctx context.Context, gen uint64) {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		if !e.live(gen) {
			e.mu.Unlock()
			return
		}
		interval := e.s.speed
		e.mu.Unlock()

		if !e.sleep(ctx, interval) {
			return
		}

		e.mu.Lock()
		if e.live(gen) {
			e.stepLocked(false)
			e.publishLocked()
		}
		e.mu.Unlock()
	}
}

// countdownLoop ticks once per second measured from its own start, so
// scheduling delays do not accumulate.
func (e *Engine) countdownLoop(ctx context.Context, gen uint64) {
	defer e.wg.Done()

	start := e.clock.Now()
	for {
		elapsed := e.clock.Now().Sub(start)
		if !e.sleep(ctx, time.Second-elapsed%time.Second) {
			return
		}

		e.mu.Lock()
		if !e.live(gen) {
			e.mu.Unlock()
			return
		}
		e.secondElapsedLocked()
		e.publishLocked()
		e.mu.Unlock()
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	t := e.clock.NewTimer(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return false
	case <-t.C():
		return true
	}
}
