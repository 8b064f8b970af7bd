package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/mast"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
	"github.com/stellar-data/lightcurve.report/internal/units"
)

// transitEventAPI is the wire form of a detected transit. Depth is
// converted to the requested units; the stored value is relative flux.
type transitEventAPI struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Depth         float64 `json:"depth"`
	DurationHours float64 `json:"duration_hours"`
}

type lightCurveResponse struct {
	TargetID   string              `json:"target_id"`
	Mission    string              `json:"mission"`
	Normalize  bool                `json:"normalize"`
	Detrend    bool                `json:"detrend"`
	DepthUnits string              `json:"depth_units"`
	Summary    lightcurve.Summary  `json:"summary"`
	Events     []transitEventAPI   `json:"events"`
	Samples    []lightcurve.Sample `json:"samples"`
}

func eventsToAPI(events []lightcurve.TransitEvent, depthUnits string) []transitEventAPI {
	out := make([]transitEventAPI, len(events))
	for i, e := range events {
		out[i] = transitEventAPI{
			Start:         e.Start,
			End:           e.End,
			Depth:         units.ConvertDepth(e.Depth, depthUnits),
			DurationHours: units.DaysToHours(e.End - e.Start),
		}
	}
	return out
}

// ensureCurve returns the stored curve for a target, fetching and
// persisting it on first access.
func (s *Server) ensureCurve(r *http.Request, targetID, mission string) (lightcurve.LightCurve, error) {
	ctx := r.Context()
	lc, err := s.db.GetLightCurve(ctx, targetID, mission)
	if err == nil {
		return lc, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return lightcurve.LightCurve{}, err
	}

	lc, source, err := s.mast.FetchOrSynthesize(ctx, targetID, mission)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	if err := s.db.SaveLightCurve(ctx, lc, source, mast.Cadence(lc)); err != nil {
		return lightcurve.LightCurve{}, err
	}
	return lc, nil
}

func (s *Server) depthUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("depth_units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid depth_units %q, valid values: %s", u, units.GetValidUnitsString())
	}
	return u, nil
}

func missionParam(r *http.Request) string {
	if m := r.URL.Query().Get("mission"); m != "" {
		return m
	}
	return "TESS"
}

func (s *Server) showLightCurve(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	mission := missionParam(r)

	opts, err := s.pipelineOptions(r)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid pipeline option: %v", err))
		return
	}
	depthUnits, err := s.depthUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	lc, err := s.ensureCurve(r, target, mission)
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("failed to load light curve: %v", err))
		return
	}

	processed, events, err := lightcurve.Process(s.detector(), lc, opts)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cannot process light curve: %v", err))
		return
	}

	httputil.WriteJSONOK(w, lightCurveResponse{
		TargetID:   lc.TargetID,
		Mission:    lc.Mission,
		Normalize:  opts.Normalize,
		Detrend:    opts.Detrend,
		DepthUnits: depthUnits,
		Summary:    lightcurve.Summarize(processed, events),
		Events:     eventsToAPI(events, depthUnits),
		Samples:    processed.Samples,
	})
}

// downloadFilename builds the export filename in the
// lightcurve.report_{target}_{mission}_lightcurve.csv format. Spaces in
// target ids become hyphens so the filename survives download managers.
func downloadFilename(targetID, mission string) string {
	clean := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
	}
	return fmt.Sprintf("lightcurve.report_%s_%s_lightcurve.csv", clean(targetID), clean(mission))
}

func (s *Server) downloadLightCurve(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	mission := missionParam(r)

	opts, err := s.pipelineOptions(r)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid pipeline option: %v", err))
		return
	}

	lc, err := s.ensureCurve(r, target, mission)
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("failed to load light curve: %v", err))
		return
	}

	processed, _, err := lightcurve.Process(s.detector(), lc, opts)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cannot process light curve: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", downloadFilename(target, mission)))
	if err := lightcurve.WriteCSV(w, processed); err != nil {
		monitoring.Logf("csv export for %s/%s failed mid-stream: %v", target, mission, err)
	}
}
