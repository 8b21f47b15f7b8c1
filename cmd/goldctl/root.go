package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/app"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/logger"
)

// errRunFailed makes the process exit non-zero after the summary is printed.
var errRunFailed = errors.New("one or more pipelines failed")

// cli carries what every subcommand needs. Flags are bound to v so they can
// also be given as GOLDCTL_* environment variables.
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	c.v.SetEnvPrefix("goldctl")
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "goldctl",
		Short:         "Fetch, import and prune gold and FX prices",
		Long:          `goldctl runs the world, VN and daily pipelines against the configured SQLite store, fetches raw VN quotes and applies schema migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	root.PersistentFlags().String("log-level", "", "Override log.level")
	_ = c.v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = c.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		c.migrateCmd(),
		c.updateCmd(),
		c.fetchVnCmd(),
		c.importVnCmd(),
	)
	return root
}

// setup loads configuration and a logger writing to stderr, leaving stdout for JSON output.
func (c *cli) setup() error {
	if path := c.v.GetString("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if lvl := c.v.GetString("log_level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	cfg.Log.OutputPaths = []string{"stderr"}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	c.cfg = cfg
	c.logger = zl
	return nil
}

// withApp opens the application for the duration of fn. SIGINT and SIGTERM cancel ctx.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Error("failed to close application", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
