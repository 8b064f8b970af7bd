package api

import (
	"fmt"
	"image/color"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
)

// plotLightCurve renders a static PNG of the processed curve, suitable
// for embedding in reports. Detected transits are drawn as a red
// overlay on top of the flux line.
func (s *Server) plotLightCurve(w http.ResponseWriter, r *http.Request) {
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

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s / %s", target, mission)
	p.X.Label.Text = "time (days)"
	p.Y.Label.Text = "relative flux"

	fluxPts := make(plotter.XYs, 0, processed.Len())
	transitPts := make(plotter.XYs, 0, processed.Len())
	for _, sample := range processed.Samples {
		if !sample.Valid() {
			continue
		}
		pt := plotter.XY{X: sample.Time, Y: sample.Flux}
		fluxPts = append(fluxPts, pt)
		if inTransit(events, sample.Time) {
			transitPts = append(transitPts, pt)
		}
	}

	fluxLine, err := plotter.NewLine(fluxPts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to build plot: %v", err))
		return
	}
	fluxLine.Width = vg.Points(1)
	p.Add(fluxLine)
	p.Legend.Add("flux", fluxLine)

	if len(transitPts) > 0 {
		transitScatter, err := plotter.NewScatter(transitPts)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to build plot: %v", err))
			return
		}
		transitScatter.GlyphStyle.Color = color.RGBA{R: 255, G: 82, B: 82, A: 255}
		transitScatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(transitScatter)
		p.Legend.Add("in transit", transitScatter)
	}

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		monitoring.Logf("png export for %s/%s failed mid-stream: %v", target, mission, err)
	}
}
