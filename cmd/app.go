package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/stockctl/internal/activity"
	"github.com/maxkimambo/stockctl/internal/config"
	"github.com/maxkimambo/stockctl/internal/inventory"
	"github.com/maxkimambo/stockctl/internal/logger"
	"github.com/maxkimambo/stockctl/internal/metrics"
	"github.com/maxkimambo/stockctl/internal/progress"
	"github.com/maxkimambo/stockctl/internal/transport"
)

// app is the per-invocation runtime shared by all subcommands. One
// coordinator serves the whole process; the overlay and metrics observe it.
type app struct {
	flags globalFlags

	cfg     *config.Config
	coord   *activity.Coordinator
	client  inventory.API
	metrics *metrics.Metrics
	overlay *progress.Overlay

	cleanup []func()
}

// run wraps a command body with runtime setup and teardown.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.start(cmd); err != nil {
			return err
		}
		defer a.stop()
		return fn(cmd, args)
	}
}

func (a *app) start(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.Op.WithFields(map[string]interface{}{
		"api":      cfg.API.URL,
		"debounce": cfg.Activity.Debounce,
		"overlay":  cfg.Activity.Overlay,
	}).Debug("Configuration loaded")

	a.coord = activity.New(
		activity.WithDebounce(cfg.Activity.Debounce),
		activity.WithLogger(logger.Op.Entry()),
	)

	httpClient := &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: transport.New(a.coord, logger.Op.Entry()),
	}
	client, err := inventory.NewClient(cfg.API.URL, httpClient, cfg.API.Token)
	if err != nil {
		return err
	}
	a.client = client

	if cfg.Activity.Overlay {
		a.overlay = progress.NewOverlay(cmd.ErrOrStderr())
		a.cleanup = append(a.cleanup, a.overlay.Attach(a.coord))
	}

	a.metrics = metrics.New(nil)
	a.cleanup = append(a.cleanup, a.metrics.Attach(a.coord))
	if cfg.Metrics.Addr != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		a.cleanup = append(a.cleanup, cancel)
		go func() {
			if err := a.metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Op.Warnf("Metrics server stopped: %v", err)
			}
		}()
	}
	return nil
}

func (a *app) stop() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
	if a.coord != nil {
		_ = a.coord.Close()
	}
}

// participation returns ctx with the per-call override requested by the
// --busy / --no-busy flags, if either was given.
func participation(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if f := cmd.Flags().Lookup("busy"); f != nil && f.Changed {
		on, _ := cmd.Flags().GetBool("busy")
		return activity.WithParticipation(ctx, on)
	}
	if f := cmd.Flags().Lookup("no-busy"); f != nil && f.Changed {
		off, _ := cmd.Flags().GetBool("no-busy")
		return activity.WithParticipation(ctx, !off)
	}
	return ctx
}
