// SPDX-License-Identifier: MIT
/*
Package cmd is the command line: the root command runs the live spectrum
view, subcommands list devices and bands, stream snapshots headless and work
with stored history.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"specmon/internal/config"
	applog "specmon/internal/log"
	"specmon/pkg/build"
)

// options holds the global flags and the configuration they resolve to.
type options struct {
	configPath string
	source     string
	inputFile  string
	toneHz     float64
	sampleRate float64
	verbose    bool
	record     bool
	output     string
	pick       bool

	cfg     *config.Config
	logFile *os.File
}

// Execute parses os.Args and runs the selected command.
func Execute() error {
	opts := &options{}
	defer opts.close()

	rootCmd := newRootCmd(opts)
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

func newRootCmd(opts *options) *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The live view owns the terminal, so it only logs to a file.
			return opts.load(cmd, cmd != cmd.Root())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to a YAML config file (default: ./config.yaml or ./specmon.yaml if present)")

	// Source Configuration
	flags.StringVarP(&opts.source, "source", "s", config.DefaultSource,
		"Output to monitor, or a capture device name. Use 'list' to see devices")
	flags.StringVarP(&opts.inputFile, "input-file", "i", "",
		"Replay a WAV file instead of capturing a device")
	flags.Float64Var(&opts.toneHz, "tone", 0,
		"Analyze a generated sine tone of this frequency (Hz) instead of capturing a device")
	flags.Float64Var(&opts.sampleRate, "sample-rate", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")

	// Recording Configuration
	flags.BoolVarP(&opts.record, "record", "r", false,
		"Record the analyzed audio to a WAV file")
	flags.StringVarP(&opts.output, "output", "o", config.DefaultRecordingFile,
		"Recording file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Debug Configuration
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.Flags().BoolVar(&opts.pick, "pick", false,
		"Choose the capture device and sample rate interactively before starting")

	rootCmd.AddCommand(
		newListCmd(opts),
		newBandsCmd(opts),
		newServeCmd(opts),
		newSessionsCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

// load reads the config file, applies the flags the user set explicitly and
// configures logging.
func (o *options) load(cmd *cobra.Command, console bool) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Audio.Source = o.source
	}
	if flags.Changed("input-file") {
		cfg.Audio.InputFile = o.inputFile
	}
	if flags.Changed("tone") {
		cfg.Audio.ToneHz = o.toneHz
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = o.sampleRate
	}
	if flags.Changed("record") {
		cfg.Recording.Enabled = o.record
	}
	if flags.Changed("output") {
		cfg.Recording.OutputFile = o.output
	}
	if o.verbose {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg

	return o.setupLogging(console)
}

func (o *options) setupLogging(console bool) error {
	level, ok := applog.ParseLevel(o.cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", o.cfg.LogLevel)
	}
	if o.cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	if o.cfg.LogFile != "" {
		f, err := applog.OpenFile(o.cfg.LogFile)
		if err != nil {
			return err
		}
		o.logFile = f
		writers = append(writers, f)
	}

	switch len(writers) {
	case 0:
		applog.SetOutput(io.Discard)
	case 1:
		applog.SetOutput(writers[0])
	default:
		applog.SetOutputs(writers...)
	}
	return nil
}

func (o *options) close() {
	if o.logFile != nil {
		applog.SetOutput(os.Stderr)
		o.logFile.Close()
		o.logFile = nil
	}
}
