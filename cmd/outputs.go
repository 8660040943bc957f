// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"time"

	"specmon/internal/config"
	"specmon/internal/spectrum"
	"specmon/internal/storage"
	"specmon/internal/transport"
	"specmon/internal/transport/udp"
)

// debugLogInterval paces the logging transport in verbose mode.
const debugLogInterval = time.Second

// outputs are the consumers fed from the analyzer besides the live view.
type outputs struct {
	publishers []*transport.Publisher
	store      *storage.Store
}

// startOutputs creates and starts one publisher per enabled transport and,
// when history is enabled, a recorder writing a new session.
func startOutputs(cfg *config.Config, a *spectrum.Analyzer, s *sourceSetup) (_ *outputs, err error) {
	out := &outputs{}
	defer func() {
		if err != nil {
			out.Close()
		}
	}()

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		if err := out.add("udp", cfg.Transport.UDPSendInterval, sender, a); err != nil {
			return nil, err
		}
	}

	if cfg.Transport.WebSocketEnabled {
		wst := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err := wst.Start(); err != nil {
			wst.Close()
			return nil, err
		}
		if err := out.add("websocket", cfg.Transport.WebSocketSendInterval, wst, a); err != nil {
			return nil, err
		}
	}

	if cfg.History.Enabled {
		store, err := storage.New(cfg.History.DBPath)
		if err != nil {
			return nil, err
		}
		out.store = store

		rec, err := storage.NewRecorder(store, s.name, s.sampleRate, cfg)
		if err != nil {
			return nil, err
		}
		if err := out.add("history", cfg.History.Interval, rec, a); err != nil {
			return nil, err
		}
	}

	if cfg.Debug {
		if err := out.add("log", debugLogInterval, transport.NewLoggingTransport(), a); err != nil {
			return nil, err
		}
	}

	for _, p := range out.publishers {
		p.Start()
	}
	return out, nil
}

func (o *outputs) add(name string, interval time.Duration, t transport.Transport, a *spectrum.Analyzer) error {
	p, err := transport.NewPublisher(name, interval, t, a)
	if err != nil {
		t.Close()
		return err
	}
	o.publishers = append(o.publishers, p)
	return nil
}

// Close stops every publisher, which closes its transport, then the store.
func (o *outputs) Close() error {
	var errs []error
	for _, p := range o.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	o.publishers = nil

	if o.store != nil {
		if err := o.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing history: %w", err))
		}
		o.store = nil
	}
	return errors.Join(errs...)
}
