package quality

import (
	"context"
	"time"

	"github.com/anime-shed/image-quality-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// Engine scores images. It holds no per-call state, so one Engine can
// serve concurrent calls.
type Engine struct {
	decoder *Decoder
}

// NewEngine creates an Engine from opts.
func NewEngine(opts Options) *Engine {
	return &Engine{decoder: NewDecoder(opts)}
}

// Analyze scores in and waits for the result.
func (e *Engine) Analyze(ctx context.Context, in Input) (QualityResult, error) {
	return e.AnalyzeAsync(ctx, in).Wait(ctx)
}

// AnalyzeDetailed is Analyze plus the underlying statistics.
func (e *Engine) AnalyzeDetailed(ctx context.Context, in Input) (Report, error) {
	return e.AnalyzeAsync(ctx, in).Report(ctx)
}

// AnalyzeAsync starts scoring in and returns its Task. Cancelling ctx does
// not stop the task; it only detaches the caller.
func (e *Engine) AnalyzeAsync(ctx context.Context, in Input) *Task {
	t := newTask()
	if in.IsPlaceholder() {
		t.complete(Report{Result: PlaceholderResult()}, nil)
		return t
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		report, err := e.run(ctx, in)
		t.complete(report, err)
	}()
	return t
}

func (e *Engine) run(ctx context.Context, in Input) (report Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = Report{}, &ScoringError{Value: r}
		}
	}()

	start := time.Now()
	src, err := e.decoder.acquire(ctx, in)
	if err != nil {
		return Report{}, err
	}
	defer src.release()

	buf, original, err := e.decoder.decode(in.String(), src)
	if err != nil {
		return Report{}, err
	}

	logger.WithFields(logrus.Fields{
		"source":         in.String(),
		"original_size":  original,
		"working_width":  buf.Width,
		"working_height": buf.Height,
	}).Debug("Decoded image")

	report = Score(buf, original)
	logger.WithFields(logrus.Fields{
		"source":  in.String(),
		"quality": report.Result.Quality,
		"elapsed": time.Since(start),
	}).Debug("Scored image")
	return report, nil
}

// Score runs every scorer over buf. original sizes the resolution score;
// all pixel statistics come from buf.
func Score(buf *PixelBuffer, original Dimensions) Report {
	stats := AnalyzeLuminance(buf)
	avgEdge := AverageEdge(buf)
	stdDev := LuminanceStdDev(stats)

	scores := Scores{
		Resolution: ResolutionScore(original),
		Sharpness:  sharpnessFromEdge(avgEdge),
		Exposure:   ExposureScore(stats),
		ColorDepth: contrastFromStdDev(stdDev),
	}

	return Report{
		Result: Aggregate(scores),
		Diagnostics: &Diagnostics{
			Original:       original,
			Working:        Dimensions{Width: buf.Width, Height: buf.Height},
			Megapixels:     original.Megapixels(),
			AvgLuminance:   stats.AvgLuminance,
			StdDev:         stdDev,
			BlackClipRatio: stats.BlackClipRatio,
			WhiteClipRatio: stats.WhiteClipRatio,
			AvgEdge:        avgEdge,
		},
	}
}
