package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/app"
	"github.com/vkquanghd/gold-ai-advisor/internal/cafef"
	"github.com/vkquanghd/gold-ai-advisor/internal/database"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.Open(c.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := database.Migrate(ctx, db, c.logger); err != nil {
				return err
			}
			current, latest, err := database.SchemaVersion(ctx, db)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"database": c.cfg.Database.Path,
				"current":  current,
				"latest":   latest,
			})
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "update world|vn|daily",
		Short:     "Run a pipeline and print its run summary",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{model.PipelineWorld, model.PipelineVN, model.PipelineDaily},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.runOptions(cmd)
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Pipeline.Run(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return c.report(cmd, summary)
			})
		},
	}
	c.runFlags(cmd)
	return cmd
}

func (c *cli) importVnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-vn",
		Short: "Import a raw VN quote file without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.runOptions(cmd)
			path := c.v.GetString("file")
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Pipeline.ImportVN(ctx, path, opts)
				if err != nil {
					return err
				}
				return c.report(cmd, summary)
			})
		},
	}
	cmd.Flags().String("file", "", "Raw JSON file written by fetch-vn")
	_ = cmd.MarkFlagRequired("file")
	_ = c.v.BindPFlag("file", cmd.Flags().Lookup("file"))
	c.runFlags(cmd)
	return cmd
}

func (c *cli) fetchVnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch-vn",
		Short: "Fetch VN retail quotes into a raw JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.NewVnClient(c.cfg, c.logger)
			if err != nil {
				return err
			}

			opts := cafef.FetchOptions{
				OutDir:    c.v.GetString("outdir"),
				Basename:  c.v.GetString("basename"),
				Days:      c.v.GetInt("days"),
				KeepFiles: c.cfg.Storage.KeepRawFiles,
			}
			if opts.OutDir == "" {
				opts.OutDir = filepath.Join(c.cfg.Storage.DataDir, "raw")
			}
			if opts.Basename == "" {
				opts.Basename = c.cfg.Storage.RawBasename
			}
			if opts.Days < 1 {
				opts.Days = c.cfg.VN.Days
			}

			res, err := client.Fetch(cmd.Context(), opts)
			if err != nil {
				return err
			}
			c.logger.Info("fetched vn quotes",
				zap.String("path", res.Path),
				zap.Int("records", res.Records),
				zap.Int("endpoints_ok", res.Succeeded),
			)
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("outdir", "", "Directory for raw files (default <data_dir>/raw)")
	cmd.Flags().String("basename", "", "Raw file basename (default storage.raw_basename)")
	cmd.Flags().Int("days", 0, "Days of history to request (default vn.days)")
	_ = c.v.BindPFlag("outdir", cmd.Flags().Lookup("outdir"))
	_ = c.v.BindPFlag("basename", cmd.Flags().Lookup("basename"))
	_ = c.v.BindPFlag("days", cmd.Flags().Lookup("days"))
	return cmd
}

// runFlags adds the options shared by update and import-vn.
func (c *cli) runFlags(cmd *cobra.Command) {
	cmd.Flags().Int("retention-days", 0, "Retention window in days (default retention.days)")
	cmd.Flags().Bool("forward-fill", false, "Carry the last value into missing days")
}

func (c *cli) runOptions(cmd *cobra.Command) model.RunOptions {
	opts := model.RunOptions{Trigger: model.TriggerCLI}
	//nolint:errcheck // Flag is registered by runFlags
	opts.RetentionDays, _ = cmd.Flags().GetInt("retention-days")
	if cmd.Flags().Changed("forward-fill") {
		//nolint:errcheck // Flag is registered by runFlags
		ff, _ := cmd.Flags().GetBool("forward-fill")
		opts.ForwardFill = &ff
	}
	return opts
}

// report prints the summary and turns a failed run into errRunFailed.
func (c *cli) report(cmd *cobra.Command, summary model.RunSummary) error {
	if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if !summary.Success {
		return errRunFailed
	}
	return nil
}
