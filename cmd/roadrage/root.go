package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set via -ldflags.
	Version = "dev"

	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   "roadrage",
		Short: "Multiplayer motorbike racing and combat server",
		Long: `roadrage runs the authoritative game server for a real-time motorbike
racing and combat game. Clients connect over a WebSocket, join rooms, and
race once the room's host starts the countdown.`,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "roadrage", Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
