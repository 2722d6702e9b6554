package game

import (
	"reflect"
	"time"
)

// System is one stage of a descent step. Systems run in registration order
// over a shared Frame; a system that has nothing to do returns early.
type System interface {
	Execute(frame *Frame)
}

// PipelineStats summarizes every system of a pipeline.
type PipelineStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats holds the timings of one system. MinDuration is zero until
// the system has run.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// stage is a registered system and its running timings.
type stage struct {
	system System
	name   string
	calls  int64
	last   time.Duration
	total  time.Duration
	fast   time.Duration
	slow   time.Duration
}

func (st *stage) record(d time.Duration) {
	if st.calls == 0 || d < st.fast {
		st.fast = d
	}
	st.slow = max(st.slow, d)
	st.last = d
	st.total += d
	st.calls++
}

func (st *stage) stats() SystemStats {
	out := SystemStats{
		Name:           st.name,
		ExecutionCount: st.calls,
		MinDuration:    st.fast,
		MaxDuration:    st.slow,
		LastDuration:   st.last,
		TotalDuration:  st.total,
	}
	if st.calls > 0 {
		out.AvgDuration = st.total / time.Duration(st.calls)
	}
	return out
}

// Pipeline executes systems in order and records how long each takes.
// It is driven under the engine lock and is not safe for concurrent use.
type Pipeline struct {
	stages []*stage
}

// NewPipeline returns a pipeline running systems in the given order.
func NewPipeline(systems ...System) *Pipeline {
	p := &Pipeline{}
	for _, s := range systems {
		p.Register(s)
	}
	return p
}

// Register appends a system, named after its type for the stats.
func (p *Pipeline) Register(system System) {
	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	p.stages = append(p.stages, &stage{system: system, name: t.Name()})
}

// Execute runs every system once over frame. A system may set frame.Halt
// to skip the rest of the pipeline for this step.
func (p *Pipeline) Execute(frame *Frame) {
	for _, st := range p.stages {
		if frame.Halt {
			return
		}
		start := time.Now()
		st.system.Execute(frame)
		st.record(time.Since(start))
	}
}

// Stats snapshots the timings of every system in registration order.
func (p *Pipeline) Stats() PipelineStats {
	out := PipelineStats{
		SystemCount: len(p.stages),
		Systems:     make([]SystemStats, len(p.stages)),
	}
	for i, st := range p.stages {
		out.Systems[i] = st.stats()
		out.TotalExecutions += st.calls
	}
	return out
}
