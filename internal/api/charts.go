package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
)

// chartLightCurve renders an interactive flux/time chart for quick
// inspection without the frontend. Detected transits show up as a
// second series overlaying the in-transit samples.
func (s *Server) chartLightCurve(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	mission := missionParam(r)

	opt, err := s.pipelineOptions(r)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid pipeline option: %v", err))
		return
	}

	lc, err := s.ensureCurve(r, target, mission)
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("failed to load light curve: %v", err))
		return
	}

	processed, events, err := lightcurve.Process(s.detector(), lc, opt)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cannot process light curve: %v", err))
		return
	}

	x := make([]string, 0, processed.Len())
	flux := make([]opts.LineData, 0, processed.Len())
	transitFlux := make([]opts.LineData, 0, processed.Len())
	for _, sample := range processed.Samples {
		if !sample.Valid() {
			continue
		}
		x = append(x, strconv.FormatFloat(sample.Time, 'f', 3, 64))
		flux = append(flux, opts.LineData{Value: sample.Flux})
		if inTransit(events, sample.Time) {
			transitFlux = append(transitFlux, opts.LineData{Value: sample.Flux})
		} else {
			transitFlux = append(transitFlux, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s (%s)", target, mission),
			Width:     "1200px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s / %s", target, mission),
			Subtitle: fmt.Sprintf("samples=%d transits=%d normalize=%t detrend=%t", processed.Len(), len(events), opt.Normalize, opt.Detrend),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (days)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "relative flux"}),
	)
	line.SetXAxis(x).
		AddSeries("flux", flux).
		AddSeries("in transit", transitFlux,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// inTransit reports whether t falls inside any detected event.
func inTransit(events []lightcurve.TransitEvent, t float64) bool {
	for _, e := range events {
		if t >= e.Start && t <= e.End {
			return true
		}
	}
	return false
}
