package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or change persisted settings",
	Long: "With no arguments prints every persisted setting. With a key and a\n" +
		"value changes it: voice, engine or player. Changes take effect on the\n" +
		"next start.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			all := a.sets.All()
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, all[k])
			}
			return nil
		}
		if len(args) == 1 {
			return fmt.Errorf("config %s needs a value", args[0])
		}

		key, value := args[0], args[1]
		switch key {
		case "voice":
			err = a.sets.SetVoice(value)
		case "engine":
			err = a.sets.SetEngine(value)
		case "player":
			err = a.sets.SetPlayer(value)
		default:
			err = fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
