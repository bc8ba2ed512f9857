package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
	"github.com/spf13/cobra"
)

// segmentCmd represents the segment command.
var segmentCmd = &cobra.Command{
	Use:   "segment <image>",
	Short: "Fit an active contour to an image",
	Long: `Run edge detection on an image and fit an active contour to it.

The contour starts as a circle around the image centre unless --points gives
an explicit polygon as "row,col;row,col;...". Results are printed as text,
JSON or YAML; --overlay additionally writes a PNG with the contour drawn on
the input.

Supported formats: JPEG, PNG, BMP

Examples:
  snake segment cell.png
  snake segment cell.png --rounds 40 --insert-threshold 6 --max-points 128
  snake segment cell.png --points "20,20;20,60;60,60;60,20" --shrink --format json
  snake segment cell.png --edge-method none --to-low --overlay contour.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSegment,
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	if s, _ := cmd.Flags().GetString("points"); s != "" {
		pts, err := snake.ParsePositions(s)
		if err != nil {
			return err
		}
		cfg.Contour.Points = pts
	}

	path := args[0]
	if !utils.IsSupportedImage(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}
	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return err
	}
	slog.Debug("Loaded image", "path", path, "width", meta.Width, "height", meta.Height, "format", meta.Format)

	pl, err := pipeline.NewBuilder().WithConfig(cfg.ToPipelineConfig()).WithLogger(slog.Default()).Build()
	if err != nil {
		return err
	}

	var progress pipeline.ProgressCallback
	if show, _ := cmd.Flags().GetBool("progress"); show {
		progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "")
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pl.Segment(ctx, img, progress)
	if err != nil {
		if errors.Is(err, snake.ErrOutOfBounds) {
			return fmt.Errorf("%w (try --clamp both or --pad)", err)
		}
		return err
	}

	out, err := pipeline.Format(res, cfg.Output.Format)
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

	if overlay, _ := cmd.Flags().GetString("overlay"); overlay != "" {
		style := cfg.OverlayStyle()
		style.DrawInitial, _ = cmd.Flags().GetBool("overlay-initial")
		if err := utils.SavePNG(overlay, pipeline.RenderOverlay(img, res, style)); err != nil {
			return err
		}
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func addSegmentFlags(cmd *cobra.Command) {
	defaults := pipeline.DefaultContourConfig()

	cmd.Flags().Int("rounds", defaults.Rounds, "number of contour iterations")
	cmd.Flags().Float64("insert-threshold", 0, "insert midpoints when the average spacing exceeds this (0 = never)")
	cmd.Flags().Int("max-points", 0, "upper bound on contour points after insertion (0 = unbounded)")
	cmd.Flags().Bool("shrink", false, "reward short edges so the contour contracts")
	cmd.Flags().Bool("to-low", false, "seek dark pixels instead of bright edges")
	cmd.Flags().String("clamp", "both", "gradient window clamp policy: upper or both")
	cmd.Flags().Bool("stop-when-still", false, "stop early once a round moves no point")

	cmd.Flags().String("points", "", `explicit initial contour "row,col;row,col;..."`)
	cmd.Flags().Int("init-points", defaults.InitPoints, "points on the initial circle")
	cmd.Flags().Float64("radius", 0, "initial circle radius (0 = quarter of the shorter side)")
	cmd.Flags().Int("center-row", -1, "initial circle centre row (-1 = image centre)")
	cmd.Flags().Int("center-col", -1, "initial circle centre column (-1 = image centre)")

	cmd.Flags().String("edge-method", "canny", "edge detector: canny, sobel or none")
	cmd.Flags().Float64("edge-low", 30, "canny low hysteresis threshold")
	cmd.Flags().Float64("edge-high", 150, "canny high hysteresis threshold")
	cmd.Flags().Float64("edge-sigma", 1.4, "gaussian blur before canny (0 = none)")

	cmd.Flags().Int("pad", 0, "pad the edge map by this many pixels")
	cmd.Flags().Float64("pad-value", 255, "value of padded pixels")

	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("overlay", "", "write a PNG overlay of the final contour to this path")
	cmd.Flags().Bool("overlay-initial", false, "also draw the initial contour on the overlay")
	cmd.Flags().Bool("progress", false, "print per-round progress to stderr")
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	addSegmentFlags(segmentCmd)
	bindSegmentFlags()
}

func bindSegmentFlags() {
	bindFlags(segmentCmd, map[string]string{
		"contour.rounds":           "rounds",
		"contour.insert_threshold": "insert-threshold",
		"contour.max_points":       "max-points",
		"contour.shrink":           "shrink",
		"contour.to_low":           "to-low",
		"contour.clamp":            "clamp",
		"contour.stop_when_still":  "stop-when-still",
		"contour.init_points":      "init-points",
		"contour.init_radius":      "radius",
		"contour.center_row":       "center-row",
		"contour.center_col":       "center-col",
		"edges.method":             "edge-method",
		"edges.low":                "edge-low",
		"edges.high":               "edge-high",
		"edges.sigma":              "edge-sigma",
		"padding.margin":           "pad",
		"padding.value":            "pad-value",
		"output.format":            "format",
	})
}

// GetSegmentCommand returns the segment command for testing purposes.
func GetSegmentCommand() *cobra.Command {
	return segmentCmd
}
