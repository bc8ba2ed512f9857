package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/snake/internal/batch"
	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Segment many images in parallel",
	Long: `Segment every image found under the given files and directories.

Contour and edge settings come from the configuration file and SNAKE_*
environment variables. Images are processed by a pool of workers and the
results are written in input order as text, JSON, YAML or CSV.

Examples:
  snake batch images/
  snake batch images/ --recursive --include "*.png" --workers 4
  snake batch a.png b.png --format csv --output contours.csv
  snake batch images/ --overlay-dir overlays/ --stats`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	pl, err := pipeline.NewBuilder().WithConfig(cfg.ToPipelineConfig()).WithLogger(slog.Default()).Build()
	if err != nil {
		return err
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	overlayDir, _ := cmd.Flags().GetString("overlay-dir")

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := batch.ProcessBatch(ctx, pl, args, batch.Config{
		Workers:         cfg.Batch.Workers,
		Recursive:       cfg.Batch.Recursive,
		FailFast:        cfg.Batch.FailFast,
		IncludePatterns: include,
		ExcludePatterns: exclude,
		OverlayDir:      overlayDir,
		Style:           cfg.OverlayStyle(),
		Logger:          slog.Default(),
	})
	if err != nil {
		return err
	}

	out, err := res.FormatResults(format)
	if err != nil {
		return err
	}
	if file, _ := cmd.Flags().GetString("output"); file != "" {
		if err := os.WriteFile(file, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		res.PrintStats(cmd.ErrOrStderr())
	}

	if stats := res.Stats(); stats.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", stats.Failed, stats.Total)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = one per CPU)")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first failing image")
	batchCmd.Flags().StringSlice("include", nil, "only process files matching these glob patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	batchCmd.Flags().String("overlay-dir", "", "write <name>_overlay.png for each image into this directory")
	batchCmd.Flags().StringP("format", "f", "", "output format (text, json, yaml, csv; default from config)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().Bool("stats", false, "print processing statistics to stderr")

	bindBatchFlags()
}

func bindBatchFlags() {
	bindFlags(batchCmd, map[string]string{
		"batch.workers":   "workers",
		"batch.recursive": "recursive",
		"batch.fail_fast": "fail-fast",
	})
}
