// SPDX-License-Identifier: MIT
package spectrum

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"specmon/internal/capture"
	applog "specmon/internal/log"
)

// State is the lifecycle phase of an Analyzer.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const (
	// DefaultStopWarnAfter is how long Stop waits before it starts logging
	// that the capture goroutine has not exited yet.
	DefaultStopWarnAfter = 250 * time.Millisecond

	// Every readErrorWarnEvery-th read failure is logged at warn level.
	readErrorWarnEvery = 100
)

// Stats are running counters of the capture goroutine.
type Stats struct {
	Hops       uint64 // Hops analysed and published.
	ReadErrors uint64 // Reads that failed and were skipped.
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSampleRate sets the rate sources are opened at and bands are laid out for.
func WithSampleRate(rate float64) Option {
	return func(a *Analyzer) {
		if rate > 0 {
			a.sampleRate = rate
		}
	}
}

// WithStopWarnAfter sets the interval between "still waiting" warnings in Stop.
func WithStopWarnAfter(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.stopWarnAfter = d
		}
	}
}

// Analyzer owns one capture goroutine at a time and publishes a Snapshot per
// hop. Start and Stop are meant for a single controlling owner; they are
// serialized internally so overlapping calls cannot leave two goroutines.
type Analyzer struct {
	open          capture.OpenFunc
	sampleRate    float64
	stopWarnAfter time.Duration

	lifecycle sync.Mutex // Serializes Start and Stop.
	cancel    context.CancelFunc
	done      chan struct{} // Closed when the current goroutine has exited.
	stopFlag  atomic.Bool
	state     atomic.Int32

	mu       sync.Mutex // Guards snapshot and source; held only for copies.
	snapshot Snapshot
	source   string

	hops       atomic.Uint64
	readErrors atomic.Uint64
}

// New creates a stopped Analyzer that attaches to sources through open.
func New(open capture.OpenFunc, opts ...Option) *Analyzer {
	a := &Analyzer{
		open:          open,
		sampleRate:    DefaultSampleRate,
		stopWarnAfter: DefaultStopWarnAfter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start stops any previous run, then starts capturing from source. It returns
// before the source is opened; an open failure shows up as Data().Running
// turning false.
func (a *Analyzer) Start(source string) {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.stopLocked()

	a.state.Store(int32(Starting))
	a.stopFlag.Store(false)

	a.mu.Lock()
	a.source = source
	a.snapshot.Running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	applog.Infof("Analyzer: starting on %q (%.0f Hz)", source, a.sampleRate)
	go a.run(ctx, source, done)
}

// Stop halts capture and returns only after the capture goroutine has exited.
func (a *Analyzer) Stop() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.stopLocked()
}

func (a *Analyzer) stopLocked() {
	if a.done == nil {
		return
	}

	a.state.Store(int32(Stopping))
	a.stopFlag.Store(true)
	a.cancel()
	a.setRunning(false)

	warn := time.NewTicker(a.stopWarnAfter)
	defer warn.Stop()

	start := time.Now()
	for waiting := true; waiting; {
		select {
		case <-a.done:
			waiting = false
		case <-warn.C:
			applog.Warnf("Analyzer: still waiting for capture to exit (%s)", time.Since(start).Round(time.Millisecond))
		}
	}

	a.cancel = nil
	a.done = nil
	a.state.Store(int32(Stopped))
	applog.Debugf("Analyzer: stopped after %s", time.Since(start))
}

// Data returns a copy of the latest Snapshot.
func (a *Analyzer) Data() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// State returns the current lifecycle phase.
func (a *Analyzer) State() State {
	return State(a.state.Load())
}

// Source returns the identifier passed to the most recent Start.
func (a *Analyzer) Source() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// SampleRate returns the configured capture rate.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// Stats returns the hop and read-error counters since New.
func (a *Analyzer) Stats() Stats {
	return Stats{
		Hops:       a.hops.Load(),
		ReadErrors: a.readErrors.Load(),
	}
}

func (a *Analyzer) setRunning(running bool) {
	a.mu.Lock()
	a.snapshot.Running = running
	a.mu.Unlock()
}

// publish replaces the band data while keeping the current Running flag, so a
// hop finishing after Stop cannot mark the analyzer running again.
func (a *Analyzer) publish(next *Snapshot) {
	a.mu.Lock()
	next.Running = a.snapshot.Running
	a.snapshot = *next
	a.mu.Unlock()
}

func (a *Analyzer) run(ctx context.Context, source string, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			applog.Errorf("Analyzer: capture goroutine panicked: %v", r)
			a.setRunning(false)
			a.state.CompareAndSwap(int32(Running), int32(Stopped))
			a.state.CompareAndSwap(int32(Starting), int32(Stopped))
		}
	}()

	format := capture.Format{SampleRate: a.sampleRate, FramesPerRead: HopSize}
	src, err := a.open(ctx, source, format)
	if err != nil {
		applog.Errorf("Analyzer: failed to open %q: %v", source, err)
		a.setRunning(false)
		a.state.CompareAndSwap(int32(Starting), int32(Stopped))
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			applog.Warnf("Analyzer: error closing %q: %v", source, err)
		}
	}()

	a.state.CompareAndSwap(int32(Starting), int32(Running))

	p := newPipeline(a.sampleRate)
	frames := make([]float32, format.Samples())
	var next Snapshot

	for !a.stopFlag.Load() {
		if err := src.Read(ctx, frames); err != nil {
			if ctx.Err() != nil {
				break
			}
			if n := a.readErrors.Add(1); n == 1 || n%readErrorWarnEvery == 0 {
				applog.Warnf("Analyzer: read failed (%d so far): %v", n, err)
			} else {
				applog.Debugf("Analyzer: read failed: %v", err)
			}
			continue
		}

		p.process(frames, &next)
		a.publish(&next)
		a.hops.Add(1)
	}
}

// pipeline is the per-run DSP state. Everything is allocated up front so
// process does not allocate.
type pipeline struct {
	ring        RingBuffer
	transformer *Transformer
	mapper      *BandMapper
	peaks       [2]PeakTracker
	samples     []float64
}

func newPipeline(sampleRate float64) *pipeline {
	return &pipeline{
		transformer: NewTransformer(),
		mapper:      NewBandMapper(sampleRate),
		samples:     make([]float64, FFTSize),
	}
}

// process consumes one hop of interleaved stereo frames and writes the band
// and peak fields of out.
func (p *pipeline) process(frames []float32, out *Snapshot) {
	p.ring.PushInterleaved(frames)

	p.ring.Window(Left, p.samples)
	p.mapper.Map(p.transformer.Transform(p.samples), &out.Bands)
	out.Peaks = p.peaks[Left].Update(&out.Bands)

	p.ring.Window(Right, p.samples)
	p.mapper.Map(p.transformer.Transform(p.samples), &out.BandsRight)
	out.PeaksRight = p.peaks[Right].Update(&out.BandsRight)
}
