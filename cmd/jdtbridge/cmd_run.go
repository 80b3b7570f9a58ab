package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/jdtbridge/internal/app"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the language server and bridge it to the editor on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{
				ConfigPath: flagConfig,
				LogLevel:   flagLogLevel,
			})
			if err != nil {
				return err
			}
			defer application.Shutdown()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-signals
				cancel()
			}()

			err = application.Run(ctx, stdio{})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// stdio presents the process's stdin/stdout as one stream for the
// editor side of the bridge. Closing is a no-op: the streams belong
// to the host.
type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdio) Close() error {
	return nil
}
