// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "specmon/internal/log"
)

// DefaultInterval is used when a Publisher is created with a non-positive
// interval (~60Hz).
const DefaultInterval = 16 * time.Millisecond

// Publisher periodically fetches the latest snapshot, wraps it in a Frame and
// sends it through a Transport. It runs in a separate goroutine managed by
// Start and Stop.
type Publisher struct {
	name      string
	transport Transport
	source    SnapshotProvider
	interval  time.Duration

	ticker   *time.Ticker   // Nil while stopped.
	doneChan chan struct{}  // Closed to signal the goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing, owned by the goroutine.
}

// NewPublisher creates a Publisher named name (used in logs). An invalid
// interval (<= 0) defaults to DefaultInterval.
func NewPublisher(name string, interval time.Duration, t Transport, source SnapshotProvider) (*Publisher, error) {
	if t == nil {
		return nil, fmt.Errorf("%s publisher: transport cannot be nil", name)
	}
	if source == nil {
		return nil, fmt.Errorf("%s publisher: snapshot source cannot be nil", name)
	}

	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("%s publisher: invalid interval, defaulting to %s", name, interval)
	}

	applog.Infof("%s publisher: initializing (interval: %s)", name, interval)
	return &Publisher{
		name:      name,
		transport: t,
		source:    source,
		interval:  interval,
	}, nil
}

// Start begins the periodic publishing process. Calling Start on a running
// Publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("%s publisher: Start called but already running", p.name)
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies so the goroutine never reads the fields Stop resets.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("%s publisher: goroutine started", p.name)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				applog.Debugf("%s publisher: goroutine received stop signal", p.name)
				return
			}
		}
	}()
}

// Stop signals the goroutine to terminate and waits for it to exit. It is
// safe to call Stop multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("%s publisher: stopped after %d frames", p.name, p.sequenceNum)
	return nil
}

// Close stops the publisher and closes its transport.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.transport.Close()
}

func (p *Publisher) publish() {
	p.sequenceNum++
	frame := Frame{
		Sequence:  p.sequenceNum,
		Timestamp: time.Now().UnixNano(),
		Snapshot:  p.source.Data(),
	}

	if err := p.transport.Send(frame); err != nil {
		applog.Debugf("%s publisher: frame %d not sent: %v", p.name, frame.Sequence, err)
	}
}

var _ interface{ Close() error } = (*Publisher)(nil)
