package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/jdtbridge/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write editor settings",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

func settingsFile() (string, error) {
	mgr, err := config.NewManager(flagConfig)
	if err != nil {
		return "", err
	}
	path := mgr.Config().SettingsFile
	if path == "" {
		return "", fmt.Errorf("no settings file configured; set settingsFile in %s", mgr.ConfigPath())
	}
	return path, nil
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a settings value (e.g. java.home)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsFile()
			if err != nil {
				return err
			}
			value, err := config.ReadSetting(path, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings value (e.g. java.home /opt/jdk-21)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsFile()
			if err != nil {
				return err
			}
			return config.WriteSetting(path, args[0], args[1])
		},
	}
}
