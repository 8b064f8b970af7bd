package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
	"github.com/stellar-data/lightcurve.report/internal/timeutil"
)

// DetectWorker periodically scans stored light curves that have no
// detection pass recorded for the current model version, runs the
// pipeline over them, and upserts the resulting transit events. A model
// version names one combination of detector tuning and pipeline toggles,
// so retuning naturally schedules a re-scan of every curve.
type DetectWorker struct {
	DB           *DB
	Detector     lightcurve.Detector
	Options      lightcurve.Options
	ModelVersion string
	Clock        timeutil.Clock
	StopChan     chan struct{}
}

// NewDetectWorker creates a worker with the given pipeline settings.
func NewDetectWorker(db *DB, det lightcurve.Detector, opts lightcurve.Options, modelVersion string) *DetectWorker {
	return &DetectWorker{
		DB:           db,
		Detector:     det,
		Options:      opts,
		ModelVersion: modelVersion,
		Clock:        timeutil.RealClock{},
		StopChan:     make(chan struct{}),
	}
}

// ModelVersionFor derives a stable model version string from the
// detector tuning and pipeline toggles.
func ModelVersionFor(det lightcurve.Detector, opts lightcurve.Options) string {
	return fmt.Sprintf("mad%g-w%d-n%t-d%t", det.Sigma, det.DepthSpan, opts.Normalize, opts.Detrend)
}

// RunOnce processes every curve missing a pass for this model version.
// Per-curve pipeline failures are logged and skipped so one bad curve
// cannot stall the backlog; only storage errors abort the run.
func (w *DetectWorker) RunOnce(ctx context.Context) (processed int, err error) {
	refs, err := w.DB.CurvesMissingEvents(ctx, w.ModelVersion)
	if err != nil {
		return 0, fmt.Errorf("scan for unprocessed curves: %w", err)
	}

	for _, ref := range refs {
		lc, err := w.DB.GetLightCurve(ctx, ref.TargetID, ref.Mission)
		if err != nil {
			return processed, fmt.Errorf("load curve %s/%s: %w", ref.TargetID, ref.Mission, err)
		}

		_, events, err := lightcurve.Process(w.Detector, lc, w.Options)
		if err != nil {
			if errors.Is(err, lightcurve.ErrEmptyInput) || errors.Is(err, lightcurve.ErrDegenerateInput) {
				monitoring.Logf("detect worker: skipping %s/%s: %v", ref.TargetID, ref.Mission, err)
				// Record an empty pass so the curve is not retried
				// every tick; the data will not get better on its own.
				if err := w.DB.SaveTransitEvents(ctx, ref, w.ModelVersion, nil); err != nil {
					return processed, fmt.Errorf("record skipped curve %s/%s: %w", ref.TargetID, ref.Mission, err)
				}
				continue
			}
			return processed, fmt.Errorf("process curve %s/%s: %w", ref.TargetID, ref.Mission, err)
		}

		if err := w.DB.SaveTransitEvents(ctx, ref, w.ModelVersion, events); err != nil {
			return processed, fmt.Errorf("save events for %s/%s: %w", ref.TargetID, ref.Mission, err)
		}
		processed++
		if len(events) > 0 {
			monitoring.Logf("detect worker: %s/%s: %d transit events", ref.TargetID, ref.Mission, len(events))
		}
	}

	return processed, nil
}

// Stop requests the worker loop to exit.
func (w *DetectWorker) Stop() {
	close(w.StopChan)
}
