package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audionav/govorun/internal/device"
	"github.com/audionav/govorun/internal/menu"
	"github.com/audionav/govorun/internal/speech"
)

var pregenCmd = &cobra.Command{
	Use:   "pregen",
	Short: "Render every menu phrase into the audio cache",
	Long: "Walks the menu tree and renders all static labels plus the labels\n" +
		"of currently attached storage devices, so first navigation after boot\n" +
		"never waits on synthesis. Already cached phrases are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		watchDir := a.cfg.WatchDir
		if watchDir == "" {
			watchDir = device.DefaultWatchDir
		}
		watcher := device.NewWatcher(watchDir, &device.LsblkProber{}, a.logger)

		root := buildMenu(watcher, a.sets, a.logger)
		if err := menu.Finalize(root); err != nil {
			return err
		}

		labels := menu.SpeechTexts(root)
		labels = append(labels, errorCueLabel)
		for _, d := range watcher.Devices() {
			labels = append(labels, d.SpokenLabel())
		}

		rendered, err := a.store.Pregenerate(cmd.Context(), labels,
			a.sets.Voice(), a.sets.Engine(), speech.FormatWAV)
		fmt.Fprintf(cmd.OutOrStdout(), "phrases: %d, rendered: %d, cached: %d\n",
			len(labels), rendered, len(labels)-rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(pregenCmd)
}
