package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/report"
)

// StatsSource provides running training counters.
type StatsSource interface {
	Stats() report.Stats
}

// ProgressMonitor periodically logs training throughput and warns when the
// training loop stops making progress.
type ProgressMonitor struct {
	mu            sync.RWMutex
	source        StatsSource
	logger        zerolog.Logger
	checkInterval time.Duration
	alertCooldown time.Duration

	lastSteps int
	lastCheck time.Time
	lastAlert time.Time
	metrics   ProgressMetrics

	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// ProgressMetrics is the most recent progress measurement.
type ProgressMetrics struct {
	Steps          int     `json:"steps"`
	Episodes       int     `json:"episodes"`
	StepsPerSecond float64 `json:"steps_per_second"`
	MeanCost       float64 `json:"mean_cost"`
	WindowMeanCost float64 `json:"window_mean_cost"`
	Goroutines     int     `json:"goroutines"`
	Stalled        bool    `json:"stalled"`
}

// NewProgressMonitor creates a monitor that checks source every interval.
func NewProgressMonitor(source StatsSource, interval time.Duration, logger zerolog.Logger) *ProgressMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ProgressMonitor{
		source:        source,
		logger:        logger.With().Str("component", "progress_monitor").Logger(),
		checkInterval: interval,
		alertCooldown: 5 * time.Minute,
		stopChan:      make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins monitoring in a new goroutine.
func (pm *ProgressMonitor) Start() {
	pm.mu.Lock()
	pm.lastCheck = pm.now()
	pm.mu.Unlock()

	go pm.monitor()
	pm.logger.Info().
		Dur("interval", pm.checkInterval).
		Msg("Started progress monitoring")
}

// Stop stops the monitor. It is safe to call more than once.
func (pm *ProgressMonitor) Stop() {
	pm.stopOnce.Do(func() { close(pm.stopChan) })
}

func (pm *ProgressMonitor) monitor() {
	ticker := time.NewTicker(pm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pm.Check()
		case <-pm.stopChan:
			return
		}
	}
}

// Check takes one measurement and logs it.
func (pm *ProgressMonitor) Check() ProgressMetrics {
	stats := pm.source.Stats()
	now := pm.now()

	pm.mu.Lock()
	elapsed := now.Sub(pm.lastCheck).Seconds()
	delta := stats.Steps - pm.lastSteps
	m := ProgressMetrics{
		Steps:          stats.Steps,
		Episodes:       stats.Episodes,
		MeanCost:       stats.MeanCost,
		WindowMeanCost: stats.WindowMeanCost,
		Goroutines:     runtime.NumGoroutine(),
		Stalled:        delta == 0,
	}
	if elapsed > 0 {
		m.StepsPerSecond = float64(delta) / elapsed
	}

	shouldAlert := m.Stalled && now.Sub(pm.lastAlert) > pm.alertCooldown
	if shouldAlert {
		pm.lastAlert = now
	}
	pm.lastSteps = stats.Steps
	pm.lastCheck = now
	pm.metrics = m
	pm.mu.Unlock()

	pm.logger.Info().
		Int("steps", m.Steps).
		Int("episodes", m.Episodes).
		Float64("steps_per_second", m.StepsPerSecond).
		Float64("mean_cost", m.MeanCost).
		Float64("window_mean_cost", m.WindowMeanCost).
		Ints("score", stats.Score[:]).
		Int("goroutines", m.Goroutines).
		Msg("Training progress")

	if shouldAlert {
		pm.logger.Warn().
			Int("steps", m.Steps).
			Dur("interval", pm.checkInterval).
			Msg("No training progress since last check")
	}
	return m
}

// GetMetrics returns the most recent measurement.
func (pm *ProgressMonitor) GetMetrics() ProgressMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.metrics
}
