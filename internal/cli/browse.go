package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"omnibox/internal/analytics"
	"omnibox/internal/config"
	"omnibox/internal/crud"
	"omnibox/internal/eventbus"
	"omnibox/internal/logging"
	"omnibox/internal/picker"
	"omnibox/internal/search"
	"omnibox/internal/ui"
)

const sinkDrainTimeout = 3 * time.Second

func newBrowseCommand(a *app) *cobra.Command {
	var (
		form        ui.Form
		noAnalytics bool
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the terminal browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if noAnalytics {
				cfg.Analytics.Enabled = false
			}
			logger, err := logging.NewFileLogger(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return browse(cmd.Context(), cfg, form, logger)
		},
	}
	cmd.Flags().StringVar(&form.ContactID, "contact", "", "initial contact id")
	cmd.Flags().StringVar(&form.ListingID, "listing", "", "initial listing id")
	cmd.Flags().BoolVar(&noAnalytics, "no-analytics", false, "do not report picks")
	return cmd
}

func browse(ctx context.Context, cfg *config.Config, form ui.Form, logger *zap.Logger) error {
	logger.Info("starting browser",
		zap.String("search", cfg.Search.Endpoint),
		zap.String("crud", cfg.CRUD.Endpoint),
		zap.Bool("analytics", cfg.Analytics.Enabled),
	)

	bus := eventbus.New(logger)
	defer bus.Close()

	httpClient := &http.Client{}
	searcher, err := search.NewClient(cfg.Search.Endpoint, search.Options{
		HTTPClient:  httpClient,
		BypassCache: cfg.Search.BypassCache,
		CacheSize:   cfg.Search.CacheSize,
		Order:       cfg.KindOrder(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var resolver picker.LabelResolver
	if cfg.CRUD.Endpoint != "" {
		client, err := crud.NewClient(cfg.CRUD.Endpoint, httpClient, logger)
		if err != nil {
			return err
		}
		r, err := crud.NewResolver(client, cfg.CRUD.LabelCacheSize, cfg.CRUD.Timeout.Duration, logger)
		if err != nil {
			return err
		}
		resolver = r
	}

	if cfg.Analytics.Enabled {
		sink, err := analytics.NewSink(analytics.Options{
			Endpoint:   cfg.Analytics.Endpoint,
			HTTPClient: httpClient,
			BufferSize: cfg.Analytics.BufferSize,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		unsubscribe := sink.Subscribe(bus)
		defer closeSink(bus, sink, unsubscribe, logger)
	}

	model := ui.NewModel(ui.Deps{
		Context:  ctx,
		Config:   cfg,
		Searcher: searcher,
		Resolver: resolver,
		Bus:      bus,
		Logger:   logger,
	}, form)
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		logger.Error("program failed", zap.Error(err))
		return fmt.Errorf("run program: %w", err)
	}
	logger.Info("browser exited", zap.String("route", model.Route()))
	return nil
}

// closeSink closes the bus before the sink so picks still queued on the bus
// reach the sink, then gives the sink a bounded drain.
func closeSink(bus eventbus.EventBus, sink *analytics.Sink, unsubscribe func(), logger *zap.Logger) {
	bus.Close()
	unsubscribe()
	drainCtx, cancel := context.WithTimeout(context.Background(), sinkDrainTimeout)
	defer cancel()
	if err := sink.Close(drainCtx); err != nil {
		logger.Warn("analytics sink closed before draining", zap.Error(err))
	}
	sent, dropped, failed := sink.Stats()
	logger.Info("analytics sink closed",
		zap.Int64("sent", sent), zap.Int64("dropped", dropped), zap.Int64("failed", failed))
}
