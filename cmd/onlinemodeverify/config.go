// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcsunnyside/onlinemodeverify/internal/config"
	"github.com/mcsunnyside/onlinemodeverify/internal/xdg"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Long: `Write the commented default configuration to path, or to the default
location (XDG_CONFIG_HOME/onlinemodeverify/config.yaml) when no path is given.
An existing file is only replaced with --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if path == "" {
		var err error
		path, err = xdg.ConfigFile()
		if err != nil {
			return fmt.Errorf("failed to locate config file: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, config.DefaultYAML(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cmd.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration that serve would use, after applying the
defaults and the config file. Messages are shown with colour codes
translated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, config.ResolvePath)
		},
	}
}

func runConfigShow(cmd *cobra.Command, resolve func(string) (string, error)) error {
	path, err := resolve(configFile)
	if err != nil {
		return fmt.Errorf("failed to locate config file: %w", err)
	}
	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out, err := yaml.Marshal(cfg.Map())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	w := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(w, "# built-in defaults (no config file found)")
	} else {
		fmt.Fprintf(w, "# %s\n", path)
	}
	_, err = w.Write(out)
	return err
}
