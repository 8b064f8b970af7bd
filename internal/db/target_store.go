package db

import (
	"context"
	"database/sql"
)

// Target is one catalog entry cached from the archive.
type Target struct {
	TargetID      string   `json:"id"`
	Mission       string   `json:"mission"`
	Name          string   `json:"name"`
	RA            *float64 `json:"ra"`
	Dec           *float64 `json:"dec"`
	Magnitude     *float64 `json:"magnitude"`
	HasLightcurve bool     `json:"has_lightcurve"`
}

// UpsertTarget inserts or refreshes one catalog entry.
func (db *DB) UpsertTarget(ctx context.Context, t Target) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO targets (target_id, mission, name, ra, dec, magnitude, has_lightcurve)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (target_id, mission)
		DO UPDATE SET name = excluded.name, ra = excluded.ra, dec = excluded.dec,
		              magnitude = excluded.magnitude,
		              has_lightcurve = excluded.has_lightcurve,
		              fetched_at = CURRENT_TIMESTAMP`,
		t.TargetID, t.Mission, t.Name, nullFloat(t.RA), nullFloat(t.Dec),
		nullFloat(t.Magnitude), t.HasLightcurve)
	return err
}

// SearchTargets returns cached targets whose id or name contains the
// query, optionally restricted to one mission.
func (db *DB) SearchTargets(ctx context.Context, query, mission string, limit int) ([]Target, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `
		SELECT target_id, mission, name, ra, dec, magnitude, has_lightcurve
		FROM targets
		WHERE (target_id LIKE ? OR name LIKE ?)`
	args := []interface{}{"%" + query + "%", "%" + query + "%"}
	if mission != "" {
		q += ` AND mission = ?`
		args = append(args, mission)
	}
	q += ` ORDER BY target_id LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		var ra, dec, mag sql.NullFloat64
		if err := rows.Scan(&t.TargetID, &t.Mission, &t.Name, &ra, &dec, &mag, &t.HasLightcurve); err != nil {
			return nil, err
		}
		t.RA = floatPtr(ra)
		t.Dec = floatPtr(dec)
		t.Magnitude = floatPtr(mag)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SaveClassification records one classifier verdict for later review.
func (db *DB) SaveClassification(ctx context.Context, id, label string, confidence float64, featuresJSON string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO classifications (id, label, confidence, features)
		VALUES (?, ?, ?, ?)`,
		id, label, confidence, featuresJSON)
	return err
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
