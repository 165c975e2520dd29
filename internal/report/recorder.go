package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// Stats are running training counters.
type Stats struct {
	Steps    int
	Episodes int
	// MeanCost is the mean per-agent cost over every recorded step.
	MeanCost float64
	// WindowMeanCost is the mean over the most recent complete window.
	WindowMeanCost float64
	Score          [2]int
	Captures       [2]int
}

type bucket struct {
	endStep  int
	meanCost float64
	episodes int
	captures int
}

// Recorder aggregates per-step mean cost into fixed windows of steps and
// counts episode boundaries per window.
type Recorder struct {
	mu     sync.Mutex
	window int

	buckets []bucket

	// Current, incomplete window.
	sum      float64
	n        int
	episodes int
	captures int

	stats       Stats
	totalCost   float64
	lastEpisode int
	lastCapture int
}

// NewRecorder returns a recorder averaging over window steps. A window
// below 1 is treated as 1.
func NewRecorder(window int) *Recorder {
	if window < 1 {
		window = 1
	}
	return &Recorder{window: window}
}

// Record adds one step. gs may be nil when the environment is not a game;
// only costs are recorded then.
func (r *Recorder) Record(result qlearning.StepResult, gs *game.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Steps++
	r.totalCost += result.MeanCost
	r.stats.MeanCost = r.totalCost / float64(r.stats.Steps)

	if gs != nil {
		if gs.Episode > r.lastEpisode {
			r.episodes += gs.Episode - r.lastEpisode
			r.lastEpisode = gs.Episode
		}
		captures := gs.Captures[0] + gs.Captures[1]
		if captures > r.lastCapture {
			r.captures += captures - r.lastCapture
			r.lastCapture = captures
		}
		r.stats.Episodes = gs.Episode
		r.stats.Score = gs.Score
		r.stats.Captures = gs.Captures
	}

	r.sum += result.MeanCost
	r.n++
	if r.n == r.window {
		b := bucket{
			endStep:  r.stats.Steps,
			meanCost: r.sum / float64(r.n),
			episodes: r.episodes,
			captures: r.captures,
		}
		r.buckets = append(r.buckets, b)
		r.stats.WindowMeanCost = b.meanCost
		r.sum, r.n, r.episodes, r.captures = 0, 0, 0, 0
	}
}

// Hook returns a step hook that records every committed step.
func (r *Recorder) Hook() qlearning.StepHook {
	return func(state qlearning.Environment, result qlearning.StepResult) {
		gs, _ := state.(*game.GameState)
		r.Record(result, gs)
	}
}

// Stats returns a copy of the running counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Windows returns the number of completed windows.
func (r *Recorder) Windows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

// Render writes an HTML page with the cost and episode charts.
func (r *Recorder) Render(w io.Writer) error {
	r.mu.Lock()
	buckets := append([]bucket(nil), r.buckets...)
	window := r.window
	r.mu.Unlock()

	steps := make([]string, 0, len(buckets))
	costs := make([]opts.LineData, 0, len(buckets))
	episodes := make([]opts.LineData, 0, len(buckets))
	captures := make([]opts.LineData, 0, len(buckets))
	for _, b := range buckets {
		steps = append(steps, fmt.Sprintf("%d", b.endStep))
		costs = append(costs, opts.LineData{Value: b.meanCost})
		episodes = append(episodes, opts.LineData{Value: b.episodes})
		captures = append(captures, opts.LineData{Value: b.captures})
	}

	costChart := charts.NewLine()
	costChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean cost",
			Subtitle: fmt.Sprintf("per-agent cost averaged over %d steps", window),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cost"}),
	)
	costChart.SetXAxis(steps).AddSeries("mean cost", costs)

	eventChart := charts.NewLine()
	eventChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Episodes and captures",
			Subtitle: fmt.Sprintf("counts per %d steps", window),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
	)
	eventChart.SetXAxis(steps).
		AddSeries("episodes", episodes).
		AddSeries("captures", captures)

	page := components.NewPage()
	page.AddCharts(costChart, eventChart)
	return page.Render(w)
}

// WriteFile renders the page to path, creating parent directories.
func (r *Recorder) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	return f.Close()
}
