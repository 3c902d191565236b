package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eneq/misc/cmd/events"
	"github.com/eneq/misc/cmd/store"
	"github.com/eneq/misc/lib/config"
)

const Version = "0.1.0"

var (
	// RootCmd represents the base command when called without any subcommands.
	RootCmd = &cobra.Command{
		Use:   "misc",
		Short: "concurrent data structure playground",
		Long: fmt.Sprintf(`misc (v%s)

A small collection of concurrent, in-memory building blocks: a
radix-trie store with per-key expiry and a multi-worker event
dispatch engine.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("misc v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(config.InitEnv)

	RootCmd.AddCommand(store.StoreCmd)
	RootCmd.AddCommand(events.EventsCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen
// once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
