package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"omnibox/internal/bff"
	"omnibox/internal/logging"
)

func newBFFCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bff",
		Short: "Run the pick analytics backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewConsoleLogger(cfg.Log.Level == "debug")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			srv := bff.NewServer(cfg.BFF.Addr, bff.NewMemoryPickStore(), logger)
			logger.Info("bff listening", zap.String("addr", cfg.BFF.Addr))
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	if err := a.v.BindPFlag("bff-addr", cmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	return cmd
}
