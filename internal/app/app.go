package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.lsp.dev/protocol"

	"github.com/dshills/jdtbridge/internal/config"
	"github.com/dshills/jdtbridge/internal/jdk"
	"github.com/dshills/jdtbridge/internal/platform"
	"github.com/dshills/jdtbridge/internal/server"
)

// Options configures the application.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// LogOutput is where host logs go. Defaults to stderr.
	LogOutput io.Writer

	// DiagOutput is the diagnostic surface receiving subordinate
	// process logs. Defaults to stderr.
	DiagOutput io.Writer
}

// App wires configuration, runtime discovery, and supervision together
// and owns their lifecycles.
type App struct {
	cfg      *config.Manager
	log      *Logger
	notifier Notifier
	limited  *RateLimited
	sup      *server.Supervisor
	bridge   *server.Bridge
	watcher  *config.Watcher
	diag     io.Writer

	unsubscribe func()
}

// transportErrKey buckets transport notifications for rate limiting.
const transportErrKey = "transport"

// surfacedTransportErrors caps how many transport failures are shown
// to the user per supervisor generation.
const surfacedTransportErrors = 3

// New creates the application.
func New(opts Options) (*App, error) {
	mgr, err := config.NewManager(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	cfg := mgr.Config()
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	diagOut := opts.DiagOutput
	if diagOut == nil {
		diagOut = os.Stderr
	}

	log := NewLogger(logOut, ParseLogLevel(level))
	notifier := NewLogNotifier(log)

	a := &App{
		cfg:      mgr,
		log:      log,
		notifier: notifier,
		limited:  NewRateLimited(notifier, log, surfacedTransportErrors),
		diag:     diagOut,
	}

	a.bridge = server.NewBridge(a.observeServerMessage)
	a.sup = server.New(
		a.locate,
		a.assets(),
		server.WithHandler(a.bridge.ServerHandler()),
		server.WithDiagWriter(diagOut),
	)

	return a, nil
}

// Logger returns the host logger.
func (a *App) Logger() *Logger {
	return a.log
}

// Config returns the current effective configuration.
func (a *App) Config() config.Config {
	return a.cfg.Config()
}

// Locator builds a runtime locator reflecting the current
// configuration. It is rebuilt per discovery so a changed override
// takes effect on the next locate.
func (a *App) Locator() *jdk.Locator {
	cfg := a.cfg.Config()
	opts := []jdk.Option{}
	if cfg.JavaHome != "" {
		opts = append(opts, jdk.WithOverride(cfg.JavaHome))
	}
	return jdk.NewLocator(platform.Native{}, opts...)
}

func (a *App) locate(ctx context.Context) (*jdk.Runtime, error) {
	return a.Locator().Locate(ctx)
}

func (a *App) assets() server.Assets {
	cfg := a.cfg.Config()
	return server.Assets{
		ServerJar: cfg.ServerJarPath(),
		ConfigDir: cfg.ServerConfigDir(),
		DataDir:   cfg.DataDir,
	}
}

// Activate locates a runtime and starts the subordinate process,
// translating failures into user-facing notifications with their
// remediation actions.
func (a *App) Activate(ctx context.Context) error {
	rt, err := a.locate(ctx)
	if err != nil {
		a.reportDiscoveryFailure(err)
		return err
	}

	a.log.Info("using Java %d at %s", rt.Version, rt.JavaPath)

	if err := a.sup.Start(ctx, rt.JavaPath); err != nil {
		a.notifier.Error(err.Error())
		return err
	}

	if tr := a.sup.Transport(); tr != nil {
		a.bridge.BindServer(tr.Conn())
	}
	return nil
}

func (a *App) reportDiscoveryFailure(err error) {
	var overrideErr *jdk.OverrideError
	switch {
	case errors.As(err, &overrideErr):
		a.notifier.Error(overrideErr.Error(), ActionOpenConfig, ActionDismiss)
	case errors.Is(err, jdk.ErrNoRuntime):
		a.notifier.Error(err.Error(), ActionDownloadJDK, ActionOpenConfig, ActionDismiss)
	default:
		a.notifier.Error(err.Error())
	}
}

// Run activates the server, bridges the editor's stdio to it, watches
// the configuration for java.home edits, and blocks until the editor
// disconnects or ctx is cancelled. A failed activation does not end
// the session: the host stays resident watching the configuration, so
// fixing java.home brings the server up without respawning the host.
// The bridge holds editor traffic until a server is bound.
func (a *App) Run(ctx context.Context, editor io.ReadWriteCloser) error {
	if err := a.Activate(ctx); err != nil {
		a.log.Warn("activation failed, waiting for a configuration fix: %v", err)
	}

	a.unsubscribe = a.cfg.Subscribe(func(old, new config.Config) {
		if old.JavaHome == new.JavaHome {
			return
		}
		a.log.Info("java.home changed, restarting language server")
		a.restart(ctx)
	})

	watcher, err := config.NewWatcher(a.cfg, config.WithErrorHandler(func(err error) {
		a.log.Warn("config reload: %v", err)
	}))
	if err != nil {
		a.log.Warn("config watching disabled: %v", err)
	} else {
		a.watcher = watcher
		watcher.Start(ctx)
	}

	go a.handleEvents(ctx)

	err = a.bridge.Run(ctx, editor)
	a.Shutdown()
	return err
}

// Restart stops the server, re-runs discovery from scratch, and starts
// fresh. Exposed for an explicit host-initiated restart.
func (a *App) Restart(ctx context.Context) error {
	return a.restart(ctx)
}

func (a *App) restart(ctx context.Context) error {
	a.limited.Reset(transportErrKey)

	if err := a.sup.Restart(ctx); err != nil {
		a.reportDiscoveryFailure(err)
		return err
	}

	if tr := a.sup.Transport(); tr != nil {
		a.bridge.BindServer(tr.Conn())
	}
	a.notifier.Info("language server restarted")
	return nil
}

// handleEvents surfaces supervisor lifecycle events to the user. No
// event triggers an automatic restart.
func (a *App) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.sup.Events():
			switch ev.Type {
			case server.EventStarted:
				a.log.Info("language server started (pid %d)", ev.PID)
			case server.EventStopped:
				a.log.Debug("language server stopped")
			case server.EventTransportError:
				a.limited.Notify(transportErrKey, "error",
					fmt.Sprintf("language server connection failed: %v; use restart to recover", ev.Err))
			case server.EventUnexpectedExit:
				a.limited.Notify(transportErrKey, "warn",
					fmt.Sprintf("%v; use restart to recover", ev.Err))
			}
		}
	}
}

// observeServerMessage mirrors the server's window/logMessage and
// window/showMessage traffic onto the host surfaces. All other
// traffic passes through unobserved.
func (a *App) observeServerMessage(method string, params *json.RawMessage) {
	if params == nil {
		return
	}

	switch method {
	case protocol.MethodWindowLogMessage:
		var p protocol.LogMessageParams
		if err := json.Unmarshal(*params, &p); err != nil {
			return
		}
		fmt.Fprintf(a.diag, "[server] %s\n", p.Message)

	case protocol.MethodWindowShowMessage:
		var p protocol.ShowMessageParams
		if err := json.Unmarshal(*params, &p); err != nil {
			return
		}
		switch p.Type {
		case protocol.MessageTypeError:
			a.notifier.Error(p.Message)
		case protocol.MessageTypeWarning:
			a.notifier.Warn(p.Message)
		default:
			a.notifier.Info(p.Message)
		}
	}
}

// Shutdown stops everything. Safe to call more than once.
func (a *App) Shutdown() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
		a.watcher = nil
	}
	_ = a.sup.Stop(context.Background())
}
