package db

import (
	"context"
	"sync"
	"time"

	"github.com/stellar-data/lightcurve.report/internal/monitoring"
)

// DetectController manages the state and execution of the detection
// worker. It provides thread-safe control over whether the worker runs
// and supports manual triggering from the API.
type DetectController struct {
	worker        *DetectWorker
	interval      time.Duration
	enabled       bool
	mu            sync.RWMutex
	manualTrigger chan struct{}
	done          chan struct{}

	lastRunAt    time.Time
	lastRunError error
	runCount     int64
	currentRun   *DetectRunInfo
	lastRun      *DetectRunInfo
}

// DetectRunInfo captures details about a single worker run.
type DetectRunInfo struct {
	Trigger         string    `json:"trigger,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at,omitempty"`
	DurationMs      int64     `json:"duration_ms,omitempty"`
	CurvesProcessed int       `json:"curves_processed"`
	Error           string    `json:"error,omitempty"`
}

// DetectStatus represents the current state of the detection worker.
type DetectStatus struct {
	Enabled      bool           `json:"enabled"`
	ModelVersion string         `json:"model_version"`
	LastRunAt    time.Time      `json:"last_run_at"`
	LastRunError string         `json:"last_run_error,omitempty"`
	RunCount     int64          `json:"run_count"`
	IsHealthy    bool           `json:"is_healthy"`
	CurrentRun   *DetectRunInfo `json:"current_run,omitempty"`
	LastRun      *DetectRunInfo `json:"last_run,omitempty"`
}

// NewDetectController creates a controller for the worker. Call Start to
// begin the periodic loop.
func NewDetectController(worker *DetectWorker, interval time.Duration, enabled bool) *DetectController {
	return &DetectController{
		worker:        worker,
		interval:      interval,
		enabled:       enabled,
		manualTrigger: make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start runs the periodic loop in a goroutine. The loop honours the
// enabled flag on each tick; manual triggers run regardless.
func (c *DetectController) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := c.worker.Clock.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				if c.Enabled() {
					c.runOnce(ctx, "schedule")
				}
			case <-c.manualTrigger:
				c.runOnce(ctx, "manual")
			case <-c.worker.StopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the loop has exited.
func (c *DetectController) Wait() { <-c.done }

// Enabled reports whether scheduled runs are active.
func (c *DetectController) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled turns scheduled runs on or off.
func (c *DetectController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Trigger requests an immediate run. Returns false if a trigger is
// already pending.
func (c *DetectController) Trigger() bool {
	select {
	case c.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the worker state. Run info is copied so
// callers never share a pointer the run loop is still writing to.
func (c *DetectController) Status() DetectStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := DetectStatus{
		Enabled:      c.enabled,
		ModelVersion: c.worker.ModelVersion,
		LastRunAt:    c.lastRunAt,
		LastRunError: errString(c.lastRunError),
		RunCount:     c.runCount,
		IsHealthy:    c.lastRunError == nil,
	}
	if c.currentRun != nil {
		run := *c.currentRun
		st.CurrentRun = &run
	}
	if c.lastRun != nil {
		run := *c.lastRun
		st.LastRun = &run
	}
	return st
}

func (c *DetectController) runOnce(ctx context.Context, trigger string) {
	started := c.worker.Clock.Now()
	info := &DetectRunInfo{Trigger: trigger, StartedAt: started}

	c.mu.Lock()
	c.currentRun = info
	c.mu.Unlock()

	processed, err := c.worker.RunOnce(ctx)
	if err != nil {
		monitoring.Logf("detect worker run error: %v", err)
	}

	// info is published via currentRun, so its fields may only change
	// while the lock is held.
	finished := c.worker.Clock.Now()
	c.mu.Lock()
	info.FinishedAt = finished
	info.DurationMs = finished.Sub(started).Milliseconds()
	info.CurvesProcessed = processed
	info.Error = errString(err)
	c.currentRun = nil
	c.lastRun = info
	c.lastRunAt = finished
	c.lastRunError = err
	c.runCount++
	c.mu.Unlock()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
