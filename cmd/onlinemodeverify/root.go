package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the onlinemodeverify CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onlinemodeverify",
		Short: "onlinemodeverify - admit only premium Minecraft accounts",
		Long: `onlinemodeverify decides for every login attempt whether the account is a
premium Minecraft account or an offline identity, asking the Mojang session
server when it has not seen the account recently. Offline identities are
rejected without any remote lookup.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/onlinemodeverify/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
