package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/habitpulse/internal/config"
	"github.com/roach88/habitpulse/internal/metrics"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MetricsAddr string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily rollover and reminders in the foreground",
		Long: `Run the HabitPulse background loop until interrupted.

The loop applies the daily rollover shortly after midnight, sends the
daily reminder at the configured time and warns about streaks at risk in
the evening. Changes to the config file are picked up without a restart.

Example:
  habitpulse run
  habitpulse run --metrics-addr 127.0.0.1:9464 --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default from config)")

	return cmd
}

func runLoop(cmd *cobra.Command, opts *RunOptions) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.close()

	eng := a.engine()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	if config.File(a.v) != "" {
		w, err := config.NewWatcher(a.v, func(cfg config.Config) {
			a.logging.SetVerbose(cfg.Verbose || opts.Verbose)
			eng.UpdateSettings(cfg.Reminders)
		}, a.logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		if err := w.Start(); err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		defer w.Stop()
		a.logger.Info("watching config", "file", w.Path())
	}

	addr := opts.MetricsAddr
	if addr == "" {
		addr = a.cfg.MetricsAddr
	}
	if addr != "" {
		srv, err := serveMetrics(addr)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to serve metrics", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", "addr", srv.Addr)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "HabitPulse running. Press Ctrl-C to stop.")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	a.logger.Info("engine stopped gracefully")
	return nil
}

// serveMetrics starts the /metrics endpoint. The listener is bound before
// returning so address errors are reported immediately.
func serveMetrics(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	return srv, nil
}
