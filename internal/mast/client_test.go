package mast

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
)

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient("https://mast.example/api/v0.1", hc)
}

func TestFetchLightCurve(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://mast\.example/api/v0\.1/timeseries`,
		httpmock.NewStringResponder(200, `{
			"target_id": "TIC 1",
			"mission": "TESS",
			"data": {
				"time": [0.0, 0.5, 1.0],
				"flux": [1.001, null, 0.999],
				"flux_err": [0.002, null, 0.002]
			}
		}`))

	lc, err := c.FetchLightCurve(context.Background(), "TIC 1", "TESS")
	if err != nil {
		t.Fatalf("FetchLightCurve() error = %v", err)
	}
	if lc.TargetID != "TIC 1" || lc.Mission != "TESS" || lc.Len() != 3 {
		t.Fatalf("curve = %s/%s with %d samples", lc.TargetID, lc.Mission, lc.Len())
	}
	if lc.Samples[0].Flux != 1.001 || lc.Samples[0].FluxErr == nil {
		t.Errorf("sample 0 = %+v", lc.Samples[0])
	}
	// Null flux keeps its slot as NaN.
	if !math.IsNaN(lc.Samples[1].Flux) || lc.Samples[1].FluxErr != nil {
		t.Errorf("sample 1 = %+v, want NaN flux and nil error", lc.Samples[1])
	}

	info := httpmock.GetCallCountInfo()
	if total := httpmock.GetTotalCallCount(); total != 1 {
		t.Errorf("made %d calls (%v), want 1", total, info)
	}
}

func TestFetchLightCurveErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"server error", "upstream timeout", 502},
		{"not found", "no data", 404},
		{"bad json", "<html></html>", 200},
		{"length mismatch", `{"data": {"time": [0, 1], "flux": [1.0]}}`, 200},
		{"empty payload", `{"data": {"time": [], "flux": []}}`, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder("GET", `=~^https://mast\.example/api/v0\.1/timeseries`,
				httpmock.NewStringResponder(tt.code, tt.body))
			if _, err := c.FetchLightCurve(context.Background(), "TIC 1", "TESS"); err == nil {
				t.Error("FetchLightCurve() succeeded, want error")
			}
		})
	}
}

func TestFetchOrSynthesizeFallsBack(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://mast\.example/api/v0\.1/timeseries`,
		httpmock.NewStringResponder(404, "no data"))

	lc, source, err := c.FetchOrSynthesize(context.Background(), "TIC 42", "TESS")
	if err != nil {
		t.Fatalf("FetchOrSynthesize() error = %v", err)
	}
	if source != "synthetic" {
		t.Errorf("source = %q, want synthetic", source)
	}
	if lc.Len() != 2000 {
		t.Errorf("synthetic TESS curve has %d samples, want 2000", lc.Len())
	}
}

func TestFetchOrSynthesizeUsesArchiveWhenAvailable(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://mast\.example/api/v0\.1/timeseries`,
		httpmock.NewStringResponder(200, `{"data": {"time": [0, 1, 2], "flux": [1.0, 1.0, 1.0]}}`))

	lc, source, err := c.FetchOrSynthesize(context.Background(), "TIC 42", "TESS")
	if err != nil {
		t.Fatalf("FetchOrSynthesize() error = %v", err)
	}
	if source != "mast" || lc.Len() != 3 {
		t.Errorf("source = %q with %d samples, want mast with 3", source, lc.Len())
	}
}

func TestCadence(t *testing.T) {
	short := lightcurve.LightCurve{}
	for i := 0; i < 10; i++ {
		short.Samples = append(short.Samples, lightcurve.Sample{Time: float64(i) * 0.01, Flux: 1})
	}
	long := lightcurve.LightCurve{}
	for i := 0; i < 10; i++ {
		long.Samples = append(long.Samples, lightcurve.Sample{Time: float64(i) * 0.5, Flux: 1})
	}

	if got := Cadence(short); got != "short" {
		t.Errorf("Cadence(short) = %q", got)
	}
	if got := Cadence(long); got != "long" {
		t.Errorf("Cadence(long) = %q", got)
	}
	if got := Cadence(lightcurve.LightCurve{Samples: short.Samples[:1]}); got != "unknown" {
		t.Errorf("Cadence(single sample) = %q", got)
	}
}
