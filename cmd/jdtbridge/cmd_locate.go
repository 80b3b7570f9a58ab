package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/jdtbridge/internal/app"
)

func newLocateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Run JDK discovery and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{
				ConfigPath: flagConfig,
				LogLevel:   flagLogLevel,
			})
			if err != nil {
				return err
			}
			defer application.Shutdown()

			rt, probes, err := application.Locator().Discover(cmd.Context())

			if verbose {
				for _, probe := range probes {
					status := "ok"
					if !probe.Result.Valid {
						status = probe.Result.Reason
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s: %s\n", probe.Source, probe.Root, status)
				}
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Java %d: %s\n", rt.Version, rt.JavaPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every probed candidate and its rejection reason")
	return cmd
}
