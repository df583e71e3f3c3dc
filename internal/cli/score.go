package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/container"
	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/pkg/models"
	"github.com/anime-shed/image-quality-go/pkg/validation"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type scoreOptions struct {
	json        bool
	detailed    bool
	concurrency int
	minQuality  int
}

func newScoreCommand() *cobra.Command {
	opts := scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score <path|url>...",
		Short: "Score one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as a JSON array")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include the underlying statistics")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "images scored in parallel")
	cmd.Flags().IntVar(&opts.minQuality, "min-quality", -1, "reject images below this quality (overrides MIN_QUALITY)")
	return cmd
}

func runScore(cmd *cobra.Command, args []string, opts scoreOptions) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.AllowLocalFiles = true
	if opts.minQuality >= 0 {
		cfg.Thresholds.MinQuality = opts.minQuality
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be >= 1 (got %d)", opts.concurrency)
	}

	// Keep stdout for results.
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.LogLevel)

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	svc := c.Service()

	items := make([]models.BatchItem, len(args))
	var g errgroup.Group
	g.SetLimit(opts.concurrency)
	for i, arg := range args {
		i, arg := i, arg
		g.Go(func() error {
			items[i].URL = arg
			resp, err := svc.Analyze(cmd.Context(), models.AnalyzeRequest{URL: arg, Detailed: opts.detailed})
			if err != nil {
				appErr := apperrors.FromAnalysisError(err)
				items[i].Error = &models.ErrorResponse{Error: string(appErr.Type), Message: appErr.Error()}
				return nil
			}
			items[i].Result = resp
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return err
		}
	} else {
		for _, item := range items {
			printItem(out, item, opts.detailed)
		}
	}

	var failed, rejected int
	for _, item := range items {
		switch {
		case item.Error != nil:
			failed++
		case !item.Result.Accepted:
			rejected++
		}
	}
	if failed > 0 || rejected > 0 {
		return fmt.Errorf("%d of %d images failed, %d rejected", failed, len(items), rejected)
	}
	return nil
}

func printItem(w io.Writer, item models.BatchItem, detailed bool) {
	if item.Error != nil {
		printf(w, "%s\tERROR\t%s\n", item.URL, item.Error.Message)
		return
	}

	r := item.Result
	b := r.Breakdown
	status := "ok"
	if !r.Accepted {
		status = "REJECTED"
	}
	printf(w, "%s\t%d\t%s\tresolution=%d sharpness=%d exposure=%d colorDepth=%d",
		item.URL, r.Quality, status, b.Resolution, b.Sharpness, b.Exposure, b.ColorDepth)
	if len(b.Tags) > 0 {
		printf(w, "\t%s", strings.Join(b.Tags, " "))
	}
	if len(b.Warnings) > 0 {
		printf(w, "\twarnings: %s", strings.Join(b.Warnings, "; "))
	}
	printf(w, "\n")

	for _, msg := range validation.ConvertIssuesToMessages(r.Issues) {
		printf(w, "  - %s\n", msg)
	}
	if detailed && r.Diagnostics != nil {
		d := r.Diagnostics
		printf(w, "  original=%dx%d working=%dx%d mp=%.2f avgLuminance=%.2f stdDev=%.2f black=%.4f white=%.4f avgEdge=%.3f\n",
			d.Original.Width, d.Original.Height, d.Working.Width, d.Working.Height, d.Megapixels,
			d.AvgLuminance, d.StdDev, d.BlackClipRatio, d.WhiteClipRatio, d.AvgEdge)
	}
}
