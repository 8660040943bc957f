// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"specmon/internal/config"
	"specmon/internal/storage"
)

func runArgs(t *testing.T, args ...string) (*options, error) {
	t.Helper()
	opts := &options{}
	t.Cleanup(opts.close)

	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(&strings.Builder{})
	return opts, root.Execute()
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specmon.yaml")
	yaml := "log_level: warn\naudio:\n  sample_rate: 48000\n  tone_hz: 220\nhistory:\n  db_path: " + filepath.Join(dir, "h.db") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := runArgs(t, "bands", "--config", path, "--tone", "1000", "-v")
	if err != nil {
		t.Fatalf("bands: %v", err)
	}
	cfg := opts.cfg
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample rate from file lost: %v", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ToneHz != 1000 {
		t.Errorf("--tone not applied: %v", cfg.Audio.ToneHz)
	}
	if !cfg.Debug {
		t.Error("-v should enable debug")
	}
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specmon.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  sample_rate: 96000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := runArgs(t, "bands", "--config", path)
	if err != nil {
		t.Fatalf("bands: %v", err)
	}
	if opts.cfg.Audio.SampleRate != 96000 {
		t.Errorf("flag default overrode the file: %v", opts.cfg.Audio.SampleRate)
	}
}

func TestInvalidFlagCombination(t *testing.T) {
	_, err := runArgs(t, "bands", "--tone", "440", "--input-file", "x.wav")
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("expected a validation error, got %v", err)
	}

	_, err = runArgs(t, "bands", "--sample-rate", "100")
	if err == nil {
		t.Error("expected an out of range sample rate to fail")
	}
}

func TestHistoryCommandsWithoutDatabase(t *testing.T) {
	t.Setenv("ENV_HISTORY_DB", filepath.Join(t.TempDir(), "missing.db"))

	for _, cmd := range []string{"sessions", "export"} {
		_, err := runArgs(t, cmd)
		if err == nil || !strings.Contains(err.Error(), "no history") {
			t.Errorf("%s: expected a missing history error, got %v", cmd, err)
		}
	}
}

func toneConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Audio.ToneHz = 1000
	cfg.History.Enabled = true
	cfg.History.DBPath = filepath.Join(t.TempDir(), "history.db")
	cfg.History.Interval = 5 * time.Millisecond
	cfg.Transport.WebSocketEnabled = true
	cfg.Transport.WebSocketAddress = "127.0.0.1:0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestToneRunRecordsHistory(t *testing.T) {
	cfg := toneConfig(t)

	s, err := openSource(cfg)
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}
	defer s.cleanup()
	if s.devices || !strings.HasPrefix(s.name, "tone ") {
		t.Fatalf("unexpected source %s", s)
	}

	a := s.newAnalyzer(cfg)
	out, err := startOutputs(cfg, a, s)
	if err != nil {
		t.Fatalf("startOutputs: %v", err)
	}
	if len(out.publishers) != 2 {
		t.Fatalf("publishers: got %d, want websocket and history", len(out.publishers))
	}

	a.Start(s.name)
	deadline := time.Now().Add(5 * time.Second)
	for !a.Data().Running || a.Stats().Hops < 20 {
		if time.Now().After(deadline) {
			t.Fatal("analyzer produced no data")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	a.Stop()
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err := storage.New(cfg.History.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess, err := pickSession(store, nil)
	if err != nil {
		t.Fatalf("latest session: %v", err)
	}
	if sess.Source != s.name || sess.EndTime == nil || sess.Snapshots == 0 {
		t.Errorf("session not recorded properly: %+v", sess)
	}

	if _, err := pickSession(store, []string{"999"}); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("unknown id: got %v", err)
	}
	if _, err := pickSession(store, []string{"abc"}); err == nil {
		t.Error("expected an invalid id error")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := toneConfig(t)
	cfg.Transport.WebSocketEnabled = false

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, &options{cfg: cfg}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	store, err := storage.New(cfg.History.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	sessions, err := store.Sessions()
	if err != nil || len(sessions) != 1 {
		t.Fatalf("sessions: %v %v", sessions, err)
	}
}
