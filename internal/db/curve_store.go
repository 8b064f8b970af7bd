package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
)

// ErrNotFound is returned when a requested curve or target is not in the store.
var ErrNotFound = errors.New("db: not found")

// CurveRef identifies one stored light curve.
type CurveRef struct {
	TargetID string `json:"target_id"`
	Mission  string `json:"mission"`
}

// SaveLightCurve stores the curve, replacing any previous samples for the
// same target/mission pair. Invalid (NaN) flux values are stored as NULL
// so the slot survives the round trip.
func (db *DB) SaveLightCurve(ctx context.Context, lc lightcurve.LightCurve, source, cadence string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			monitoring.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lightcurves (target_id, mission, source, cadence)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (target_id, mission)
		DO UPDATE SET source = excluded.source, cadence = excluded.cadence,
		              fetched_at = CURRENT_TIMESTAMP`,
		lc.TargetID, lc.Mission, source, cadence)
	if err != nil {
		return fmt.Errorf("upsert lightcurve row: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lightcurve_samples WHERE target_id = ? AND mission = ?`,
		lc.TargetID, lc.Mission); err != nil {
		return fmt.Errorf("clear old samples: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lightcurve_samples (target_id, mission, idx, time, flux, flux_err)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range lc.Samples {
		flux := sql.NullFloat64{Float64: s.Flux, Valid: s.Valid()}
		var fluxErr sql.NullFloat64
		if s.FluxErr != nil {
			fluxErr = sql.NullFloat64{Float64: *s.FluxErr, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, lc.TargetID, lc.Mission, i, s.Time, flux, fluxErr); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetLightCurve loads a stored curve. NULL flux reads back as NaN,
// keeping the sample's slot in the sequence.
func (db *DB) GetLightCurve(ctx context.Context, targetID, mission string) (lightcurve.LightCurve, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lightcurves WHERE target_id = ? AND mission = ?`,
		targetID, mission).Scan(&exists)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	if exists == 0 {
		return lightcurve.LightCurve{}, ErrNotFound
	}

	rows, err := db.QueryContext(ctx, `
		SELECT time, flux, flux_err
		FROM lightcurve_samples
		WHERE target_id = ? AND mission = ?
		ORDER BY idx`,
		targetID, mission)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	defer rows.Close()

	lc := lightcurve.LightCurve{TargetID: targetID, Mission: mission}
	for rows.Next() {
		var t float64
		var flux, fluxErr sql.NullFloat64
		if err := rows.Scan(&t, &flux, &fluxErr); err != nil {
			return lightcurve.LightCurve{}, err
		}
		s := lightcurve.Sample{Time: t, Flux: math.NaN()}
		if flux.Valid {
			s.Flux = flux.Float64
		}
		if fluxErr.Valid {
			e := fluxErr.Float64
			s.FluxErr = &e
		}
		lc.Samples = append(lc.Samples, s)
	}
	return lc, rows.Err()
}

// ListCurves returns references to every stored curve.
func (db *DB) ListCurves(ctx context.Context) ([]CurveRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT target_id, mission FROM lightcurves ORDER BY target_id, mission`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []CurveRef
	for rows.Next() {
		var ref CurveRef
		if err := rows.Scan(&ref.TargetID, &ref.Mission); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SaveTransitEvents replaces the stored events for one curve and model
// version. Delete-then-insert keeps re-runs idempotent, matching how the
// detection worker reprocesses curves after a tuning change.
func (db *DB) SaveTransitEvents(ctx context.Context, ref CurveRef, modelVersion string, events []lightcurve.TransitEvent) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			monitoring.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM transit_events
		WHERE target_id = ? AND mission = ? AND model_version = ?`,
		ref.TargetID, ref.Mission, modelVersion); err != nil {
		return fmt.Errorf("delete stale events: %w", err)
	}

	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transit_events (target_id, mission, model_version, start_time, end_time, depth)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ref.TargetID, ref.Mission, modelVersion, ev.Start, ev.End, ev.Depth); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	// Record the pass itself so zero-event curves are not rescanned on
	// every worker tick.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO detection_runs (target_id, mission, model_version, event_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (target_id, mission, model_version)
		DO UPDATE SET event_count = excluded.event_count, ran_at = CURRENT_TIMESTAMP`,
		ref.TargetID, ref.Mission, modelVersion, len(events)); err != nil {
		return fmt.Errorf("record detection run: %w", err)
	}

	return tx.Commit()
}

// GetTransitEvents returns the stored events for one curve and model version.
func (db *DB) GetTransitEvents(ctx context.Context, ref CurveRef, modelVersion string) ([]lightcurve.TransitEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT start_time, end_time, depth
		FROM transit_events
		WHERE target_id = ? AND mission = ? AND model_version = ?
		ORDER BY start_time`,
		ref.TargetID, ref.Mission, modelVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []lightcurve.TransitEvent{}
	for rows.Next() {
		var ev lightcurve.TransitEvent
		if err := rows.Scan(&ev.Start, &ev.End, &ev.Depth); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CurvesMissingEvents returns stored curves with no detection pass
// recorded for the given model version. Used by the worker and the
// backfill tool to find work.
func (db *DB) CurvesMissingEvents(ctx context.Context, modelVersion string) ([]CurveRef, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT lc.target_id, lc.mission
		FROM lightcurves lc
		WHERE NOT EXISTS (
			SELECT 1 FROM detection_runs dr
			WHERE dr.target_id = lc.target_id
			  AND dr.mission = lc.mission
			  AND dr.model_version = ?
		)
		ORDER BY lc.target_id`,
		modelVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []CurveRef
	for rows.Next() {
		var ref CurveRef
		if err := rows.Scan(&ref.TargetID, &ref.Mission); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
