// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"specmon/internal/heatmap"
	applog "specmon/internal/log"
	"specmon/internal/storage"
)

// openHistory opens the configured history database for reading. A missing
// file is reported instead of being created.
func openHistory(o *options) (*storage.Store, error) {
	path := o.cfg.History.DBPath
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no history at %s; enable history.enabled and run the monitor first", path)
		}
		return nil, err
	}
	return storage.New(path)
}

func newSessionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions stored in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(o)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.Sessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions recorded.")
				return nil
			}

			t := newTable("ID", "Started", "Duration", "Source", "Rate", "Snapshots")
			for _, s := range sessions {
				duration := "open"
				if s.EndTime != nil {
					duration = s.Duration().Round(time.Second).String()
				}
				t.Row(
					strconv.FormatInt(s.ID, 10),
					humanize.Time(s.StartTime),
					duration,
					s.Source,
					heatmap.HumanHz(s.SampleRate),
					humanize.Comma(s.Snapshots),
				)
			}
			fmt.Println(t)
			return nil
		},
	}
}

func newExportCmd(o *options) *cobra.Command {
	var (
		file     string
		maxRows  int
		cellSize int
	)

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Render a stored session as a PNG heatmap (default: the latest session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(o)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := pickSession(store, args)
			if err != nil {
				return err
			}

			it, err := store.Records(cmd.Context(), sess.ID)
			if err != nil {
				return err
			}
			records, err := it.All(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading session %d: %w", sess.ID, err)
			}

			h, err := heatmap.FromRecords(sess, records)
			if err != nil {
				return fmt.Errorf("session %d: %w", sess.ID, err)
			}

			if file == "" {
				file = fmt.Sprintf("session-%d.png", sess.ID)
			}
			opts := heatmap.DefaultOptions()
			opts.MaxRows = maxRows
			opts.CellWidth = cellSize
			if err := writeHeatmap(file, h, opts); err != nil {
				return err
			}

			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			applog.Debugf("Export: session %d rendered from %d snapshots", sess.ID, h.Snapshots)
			fmt.Printf("Wrote %s (%s, %s snapshots over %s)\n",
				file, humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(h.Snapshots)), h.End.Sub(h.Start).Round(time.Second))
			return nil
		},
	}

	defaults := heatmap.DefaultOptions()
	cmd.Flags().StringVarP(&file, "file", "f", "", "PNG path (default session-<id>.png)")
	cmd.Flags().IntVar(&maxRows, "max-rows", defaults.MaxRows, "Average snapshots together beyond this many image rows")
	cmd.Flags().IntVar(&cellSize, "cell-width", defaults.CellWidth, "Pixels per band")
	return cmd
}

func pickSession(store *storage.Store, args []string) (*storage.Session, error) {
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid session id %q", args[0])
		}
		return store.Session(id)
	}

	sessions, err := store.Sessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, storage.ErrSessionNotFound
	}
	return &sessions[len(sessions)-1], nil
}

func writeHeatmap(path string, h *heatmap.Heatmap, opts heatmap.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return heatmap.WritePNG(f, h, opts)
}
