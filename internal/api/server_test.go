package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/stellar-data/lightcurve.report/internal/catalog"
	"github.com/stellar-data/lightcurve.report/internal/config"
	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/mast"
	"github.com/stellar-data/lightcurve.report/internal/testutil"
	"github.com/stellar-data/lightcurve.report/internal/units"
)

type testEnv struct {
	server      *Server
	mux         *http.ServeMux
	db          *db.DB
	catalogMock *httputil.MockHTTPClient
}

// newTestEnv builds a server over a scratch database. The MAST transport
// is mocked with no responders, so curve fetches fall back to synthetic
// data unless a test registers one.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	d, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })

	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	catalogMock := httputil.NewMockHTTPClient()
	tuning := config.EmptyTuningConfig()

	det := lightcurve.NewDetector()
	worker := db.NewDetectWorker(d, det, lightcurve.Options{}, db.ModelVersionFor(det, lightcurve.Options{}))
	ctrl := db.NewDetectController(worker, time.Hour, false)

	srv := NewServer(d,
		mast.NewClient("https://mast.example/api/v0.1", hc),
		catalog.NewClient("https://archive.example/TAP", catalogMock, time.Minute),
		tuning, ctrl, units.Relative)

	return &testEnv{server: srv, mux: srv.ServeMux(), db: d, catalogMock: catalogMock}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := testutil.NewTestRecorder()
	e.mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, path, nil))
	return w
}

func (e *testEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := testutil.NewTestRecorder()
	req := testutil.NewTestRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.mux.ServeHTTP(w, req)
	return w
}

func TestShowLightCurve(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/lightcurves/TIC%20300?mission=TESS")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var resp lightCurveResponse
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if resp.TargetID != "TIC 300" || resp.Mission != "TESS" {
		t.Errorf("curve identity = %s/%s", resp.TargetID, resp.Mission)
	}
	if len(resp.Samples) != 2000 {
		t.Errorf("got %d samples, want 2000 synthetic TESS samples", len(resp.Samples))
	}
	if !resp.Normalize || resp.Detrend {
		t.Errorf("toggles = normalize:%t detrend:%t, want defaults true/false", resp.Normalize, resp.Detrend)
	}
	if resp.DepthUnits != units.Relative {
		t.Errorf("depth units = %q", resp.DepthUnits)
	}
	if resp.Summary.SampleCount != 2000 {
		t.Errorf("summary sample count = %d", resp.Summary.SampleCount)
	}

	// The fetched curve is persisted for next time.
	if _, err := env.db.GetLightCurve(t.Context(), "TIC 300", "TESS"); err != nil {
		t.Errorf("curve was not persisted: %v", err)
	}
}

func TestShowLightCurveUsesArchivePayload(t *testing.T) {
	env := newTestEnv(t)
	httpmock.RegisterResponder("GET", `=~^https://mast\.example/api/v0\.1/timeseries`,
		httpmock.NewStringResponder(200, `{"data": {"time": [0, 1, 2], "flux": [2.0, 2.0, 2.0]}}`))

	w := env.get(t, "/api/lightcurves/TIC%20301?normalize=true&detrend=false")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var resp lightCurveResponse
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if len(resp.Samples) != 3 {
		t.Fatalf("got %d samples, want the 3 archive samples", len(resp.Samples))
	}
	// Normalisation divides by the median, so constant flux becomes 1.
	if resp.Samples[0].Flux != 1.0 {
		t.Errorf("normalized flux = %v, want 1.0", resp.Samples[0].Flux)
	}
}

func TestShowLightCurveParamValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/lightcurves/TIC%20300?normalize=banana")
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)

	w = env.get(t, "/api/lightcurves/TIC%20300?depth_units=furlongs")
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
	if !strings.Contains(w.Body.String(), units.GetValidUnitsString()) {
		t.Errorf("error body %q does not list valid units", w.Body.String())
	}
}

func TestDownloadLightCurve(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/lightcurves/TIC%20300/download")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	wantDisposition := `attachment; filename="lightcurve.report_TIC-300_TESS_lightcurve.csv"`
	if cd := w.Header().Get("Content-Disposition"); cd != wantDisposition {
		t.Errorf("Content-Disposition = %q, want %q", cd, wantDisposition)
	}
	if !strings.HasPrefix(w.Body.String(), "time,flux,flux_err\n") {
		t.Errorf("csv body starts with %q", w.Body.String()[:40])
	}
}

func TestChartLightCurve(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/lightcurves/TIC%20300/chart")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "echarts") {
		t.Error("chart body does not reference echarts")
	}
}

func TestPlotLightCurve(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/lightcurves/TIC%20300/plot.png")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := w.Body.Bytes(); len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Error("body is not a PNG")
	}
}

func TestSearchTargets(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/targets/search")
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)

	w = env.get(t, "/api/targets/search?q=TOI-700")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var resp targetSearchResponse
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if resp.Count != 1 || resp.Targets[0].Name != "TOI-700" {
		t.Fatalf("response = %+v, want single TOI-700 placeholder", resp)
	}
	if resp.Targets[0].TargetID != "TIC 123457489" {
		t.Errorf("target id = %q", resp.Targets[0].TargetID)
	}

	// The placeholder is cached, so the next search comes from storage.
	w = env.get(t, "/api/targets/search?q=TOI-700")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	var second targetSearchResponse
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&second))
	if second.Count != 1 || second.Targets[0].TargetID != resp.Targets[0].TargetID {
		t.Errorf("second search = %+v, want the cached target", second)
	}
}

func TestSearchPlanets(t *testing.T) {
	env := newTestEnv(t)
	env.catalogMock.AddResponse(200, `[
		{"pl_name": "TOI-700 d", "hostname": "TOI-700", "pl_orbper": 37.4, "pl_rade": 1.19,
		 "discoverymethod": "Transit", "disc_year": 2020,
		 "disc_facility": "Transiting Exoplanet Survey Satellite (TESS)"}
	]`)

	w := env.get(t, "/api/planets?mission=tess&min_period=1")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var page catalog.PlanetPage
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&page))
	if page.Total != 1 || page.Planets[0].Name != "TOI-700 d" {
		t.Errorf("page = %+v", page)
	}

	w = env.get(t, "/api/planets?min_period=abc")
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}

func TestSearchPlanetsArchiveDown(t *testing.T) {
	env := newTestEnv(t)
	env.catalogMock.AddResponse(503, "archive down")

	w := env.get(t, "/api/planets")
	testutil.AssertStatusCode(t, w, http.StatusBadGateway)
}

func TestListMissionsAndStatistics(t *testing.T) {
	env := newTestEnv(t)
	env.catalogMock.AddResponse(200, `[{"disc_facility": "Kepler"}]`)
	env.catalogMock.AddResponse(200, `[{"pl_name": "a", "discoverymethod": "Transit", "disc_year": 2011, "disc_facility": "Kepler"}]`)

	w := env.get(t, "/api/missions")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Kepler") {
		t.Errorf("missions body = %s", w.Body.String())
	}

	w = env.get(t, "/api/statistics")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	var stats catalog.Statistics
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&stats))
	if stats.Total != 1 || stats.ByMission["Kepler"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClassifyCandidate(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/ml/classify", `{"features": {"period": 12, "radius": 1.1}}`)
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var resp classifyResponse
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if resp.Prediction != "CONFIRMED" || resp.ID == "" {
		t.Errorf("response = %+v", resp)
	}

	// The verdict lands in the classification log.
	var label string
	row := env.db.QueryRow(`SELECT label FROM classifications WHERE id = ?`, resp.ID)
	testutil.AssertNoError(t, row.Scan(&label))
	if label != "CONFIRMED" {
		t.Errorf("stored label = %q", label)
	}

	w = env.post(t, "/api/ml/classify", `{not json`)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)

	w = env.post(t, "/api/ml/classify", `{"features": {}}`)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}

func TestClassifyBatch(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/ml/classify/batch",
		`[{"features": {"period": 12, "radius": 1.1}}, {"features": {"period": 400, "radius": 1}}]`)
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var resp struct {
		JobID          string `json:"job_id"`
		TotalProcessed int    `json:"total_processed"`
		Summary        struct {
			Confirmed      int `json:"confirmed"`
			FalsePositives int `json:"false_positives"`
		} `json:"summary"`
	}
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if resp.TotalProcessed != 2 || resp.JobID == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Summary.Confirmed != 1 || resp.Summary.FalsePositives != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}

	w = env.post(t, "/api/ml/classify/batch", `[]`)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/api/ml/models")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "random_forest") {
		t.Errorf("models body = %s", w.Body.String())
	}

	w = env.get(t, "/api/ml/feature_importance?model_type=neural_network")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "transit_depth") {
		t.Errorf("importance body = %s", w.Body.String())
	}
}

func TestTransitWorkerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/transits/status")
	testutil.AssertStatusCode(t, w, http.StatusOK)
	var status db.DetectStatus
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&status))
	if status.Enabled {
		t.Error("worker should start disabled in tests")
	}

	w = env.post(t, "/api/transits/enable", `{"enabled": true}`)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&status))
	if !status.Enabled {
		t.Error("enable did not stick")
	}

	w = env.post(t, "/api/transits/enable", `{}`)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)

	// The controller is not started, so the first trigger parks in the
	// queue and the second reports a pending run.
	w = env.post(t, "/api/transits/trigger", "")
	testutil.AssertStatusCode(t, w, http.StatusAccepted)
	w = env.post(t, "/api/transits/trigger", "")
	testutil.AssertStatusCode(t, w, http.StatusConflict)
}

func TestShowConfig(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/api/config")
	testutil.AssertStatusCode(t, w, http.StatusOK)

	var cfg map[string]interface{}
	testutil.AssertNoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	if cfg["detection_sigma"] != 3.0 {
		t.Errorf("detection_sigma = %v", cfg["detection_sigma"])
	}
	if cfg["depth_units"] != units.Relative {
		t.Errorf("depth_units = %v", cfg["depth_units"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/api/ml/classify")
	testutil.AssertStatusCode(t, w, http.StatusMethodNotAllowed)

	w = env.post(t, "/api/config", "")
	testutil.AssertStatusCode(t, w, http.StatusMethodNotAllowed)
}
