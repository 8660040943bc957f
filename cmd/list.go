// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"specmon/internal/capture"
	"specmon/internal/heatmap"
	"specmon/internal/spectrum"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := capture.Initialize(); err != nil {
				return err
			}
			defer capture.Terminate()

			devices, err := capture.Devices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No capture devices found.")
				return nil
			}

			t := newTable("ID", "Name", "Channels", "Default rate", "")
			for _, d := range devices {
				marker := ""
				if d.Default {
					marker = "default"
				}
				t.Row(strconv.Itoa(d.ID), d.Name, strconv.Itoa(d.MaxInputChannels), heatmap.HumanHz(d.DefaultSampleRate), marker)
			}
			fmt.Println(t)
			fmt.Printf("The default output is monitored through %q.\n", spectrum.MonitorName(o.cfg.Audio.Source))
			return nil
		},
	}
}

func newBandsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bands",
		Short: "Show the frequency bands and the FFT bins they cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mapper := spectrum.NewBandMapper(o.cfg.Audio.SampleRate)
			sampleRate := mapper.SampleRate()

			t := newTable("Band", "Low", "High", "Centre", "Note", "Bins")
			for band := range spectrum.NumBands {
				low, high := spectrum.BandRange(band)
				centre := spectrum.BandCenterFrequency(band)
				binLow, binHigh := mapper.Bins(band)
				t.Row(
					strconv.Itoa(band),
					heatmap.HumanHz(low),
					heatmap.HumanHz(high),
					heatmap.HumanHz(centre),
					spectrum.FrequencyToNoteName(centre),
					fmt.Sprintf("%d-%d", binLow, binHigh),
				)
			}
			fmt.Println(t)
			fmt.Printf("%d-point FFT at %s: %s per bin, hop %d samples.\n",
				spectrum.FFTSize, heatmap.HumanHz(sampleRate), heatmap.HumanHz(sampleRate/spectrum.FFTSize), spectrum.HopSize)
			return nil
		},
	}
}
