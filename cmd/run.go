// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"specmon/internal/capture"
	"specmon/internal/heatmap"
	applog "specmon/internal/log"
	"specmon/internal/tui"
	"specmon/pkg/build"
)

// statusInterval paces the progress line of the headless server.
const statusInterval = 30 * time.Second

// runTUI is the root command: the live view over the configured source.
func runTUI(o *options) error {
	cfg := o.cfg

	s, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer s.cleanup()

	if o.pick {
		if !s.devices {
			return errors.New("--pick needs a capture device; drop --input-file and --tone")
		}
		sel, ok, err := tui.PickDevice(capture.Devices)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.name = sel.Device.Name
		s.sampleRate = sel.SampleRate
	}

	a := s.newAnalyzer(cfg)
	out, err := startOutputs(cfg, a, s)
	if err != nil {
		return err
	}
	defer out.Close()

	applog.Infof("TUI: monitoring %s", s)
	a.Start(s.name)

	return tui.Run(a, tui.Options{
		FPS:       cfg.Display.FPS,
		Stereo:    cfg.Display.Stereo,
		Waterfall: cfg.Display.Waterfall,
		Labels:    cfg.Display.Labels,
		Title:     build.GetBuildFlags().Name,
		Sources:   s.sources,
	})
}

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Analyze without the live view and stream snapshots until interrupted",
		Long: "Runs the analyzer headless and feeds the transports and history enabled in the\n" +
			"configuration (UDP, WebSocket, SQLite) until SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, o)
		},
	}
}

func serve(ctx context.Context, o *options) error {
	cfg := o.cfg
	if !cfg.Transport.UDPEnabled && !cfg.Transport.WebSocketEnabled && !cfg.History.Enabled {
		applog.Warnf("Serve: no transport or history enabled; snapshots are only logged with --verbose")
	}

	s, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer s.cleanup()

	a := s.newAnalyzer(cfg)
	out, err := startOutputs(cfg, a, s)
	if err != nil {
		return err
	}

	started := time.Now()
	applog.Infof("Serve: monitoring %s, press Ctrl+C to stop", s)
	a.Start(s.name)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			stats := a.Stats()
			applog.Infof("Serve: %s at %s, %s hops, %d read errors, up %s",
				a.State(), heatmap.HumanHz(a.SampleRate()), humanize.Comma(int64(stats.Hops)), stats.ReadErrors, time.Since(started).Round(time.Second))
		}
	}

	applog.Infof("Serve: shutting down")
	a.Stop()
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing outputs: %w", err)
	}

	stats := a.Stats()
	fmt.Printf("Analyzed %s hops in %s (%d read errors)\n",
		humanize.Comma(int64(stats.Hops)), time.Since(started).Round(time.Second), stats.ReadErrors)
	return nil
}
