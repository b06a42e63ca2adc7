// Package cli wires the omnibox binary: the terminal browser, the pick
// analytics backend and a stats report.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"omnibox/internal/config"
)

const envPrefix = "OMNIBOX"

// app holds state shared by all subcommands
type app struct {
	v *viper.Viper
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	ctx = withSignalCancel(ctx)
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "omnibox: %s\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. Every persistent flag can also be
// set through an OMNIBOX_* environment variable.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New()})
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "omnibox",
		Short:         "Search contacts, listings and transactions from one box",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: `
  # Browse with a record form preloaded
  omnibox browse --contact c-1042 --listing l-77

  # Run the pick analytics backend
  OMNIBOX_BFF_ADDR=:9000 omnibox bff

  # Most picked listings
  omnibox stats --kind listing --limit 5
`,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default "+config.DefaultPath()+")")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("search-endpoint", "", "search service GraphQL endpoint")
	flags.String("crud-endpoint", "", "CRUD service GraphQL endpoint")
	flags.String("bff-endpoint", "", "analytics backend base URL")
	if err := a.bindFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		newBrowseCommand(a),
		newBFFCommand(a),
		newStatsCommand(a),
	)
	return cmd
}

func (a *app) bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(flag *pflag.Flag) {
		if err != nil {
			return
		}
		if bindErr := a.v.BindPFlag(flag.Name, flag); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", flag.Name, bindErr)
		}
	})
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	return err
}

// loadConfig reads the config file and layers flag and environment overrides
// on top. A missing default file yields the defaults; a missing explicit file
// is an error.
func (a *app) loadConfig() (*config.Config, error) {
	path := strings.TrimSpace(a.v.GetString("config"))
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.NewConfigServiceAt(path).LoadFromPath(path)
	} else {
		cfg, err = config.NewConfigService().Load()
	}
	if err != nil {
		return nil, err
	}

	override := func(key string, dst *string) {
		if a.v.IsSet(key) {
			if s := strings.TrimSpace(a.v.GetString(key)); s != "" {
				*dst = s
			}
		}
	}
	override("search-endpoint", &cfg.Search.Endpoint)
	override("crud-endpoint", &cfg.CRUD.Endpoint)
	override("bff-endpoint", &cfg.Analytics.Endpoint)
	override("bff-addr", &cfg.BFF.Addr)
	override("log-level", &cfg.Log.Level)
	if a.v.GetBool("debug") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
