package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/stellar-data/lightcurve.report/internal/catalog"
	"github.com/stellar-data/lightcurve.report/internal/config"
	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/mast"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
	"github.com/stellar-data/lightcurve.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server wires the HTTP API to storage, the archive clients, and the
// detection worker.
type Server struct {
	db      *db.DB
	mast    *mast.Client
	catalog *catalog.Client
	tuning  *config.TuningConfig
	detect  *db.DetectController
	units   string
}

func NewServer(d *db.DB, mastClient *mast.Client, catalogClient *catalog.Client,
	tuning *config.TuningConfig, detect *db.DetectController, units string) *Server {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Server{
		db:      d,
		mast:    mastClient,
		catalog: catalogClient,
		tuning:  tuning,
		detect:  detect,
		units:   units,
	}
}

// detector builds the transit detector from the current tuning.
func (s *Server) detector() lightcurve.Detector {
	return lightcurve.Detector{
		Sigma:      s.tuning.GetDetectionSigma(),
		MinSamples: s.tuning.GetDetectionMinSamples(),
		DepthSpan:  s.tuning.GetDepthWindowSamples(),
	}
}

// pipelineOptions resolves the normalize/detrend toggles for a request,
// falling back to the tuning defaults when a parameter is absent.
func (s *Server) pipelineOptions(r *http.Request) (lightcurve.Options, error) {
	opts := lightcurve.Options{
		Normalize: s.tuning.GetNormalizeDefault(),
		Detrend:   s.tuning.GetDetrendDefault(),
	}
	if q := r.URL.Query().Get("normalize"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return opts, err
		}
		opts.Normalize = v
	}
	if q := r.URL.Query().Get("detrend"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return opts, err
		}
		opts.Detrend = v
	}
	return opts, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lightcurves/{target}", s.showLightCurve)
	mux.HandleFunc("GET /api/lightcurves/{target}/download", s.downloadLightCurve)
	mux.HandleFunc("GET /api/lightcurves/{target}/chart", s.chartLightCurve)
	mux.HandleFunc("GET /api/lightcurves/{target}/plot.png", s.plotLightCurve)
	mux.HandleFunc("GET /api/targets/search", s.searchTargets)
	mux.HandleFunc("GET /api/planets", s.searchPlanets)
	mux.HandleFunc("GET /api/missions", s.listMissions)
	mux.HandleFunc("GET /api/statistics", s.showStatistics)
	mux.HandleFunc("POST /api/ml/classify", s.classifyCandidate)
	mux.HandleFunc("POST /api/ml/classify/batch", s.classifyBatch)
	mux.HandleFunc("GET /api/ml/models", s.listModels)
	mux.HandleFunc("GET /api/ml/feature_importance", s.showFeatureImportance)
	mux.HandleFunc("GET /api/transits/status", s.transitStatus)
	mux.HandleFunc("POST /api/transits/trigger", s.triggerTransitScan)
	mux.HandleFunc("POST /api/transits/enable", s.setTransitScanEnabled)
	mux.HandleFunc("GET /api/config", s.showConfig)
	return mux
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	cfg := map[string]interface{}{
		"detection_sigma":       s.tuning.GetDetectionSigma(),
		"detection_min_samples": s.tuning.GetDetectionMinSamples(),
		"depth_window_samples":  s.tuning.GetDepthWindowSamples(),
		"normalize_default":     s.tuning.GetNormalizeDefault(),
		"detrend_default":       s.tuning.GetDetrendDefault(),
		"worker_interval":       s.tuning.GetWorkerInterval().String(),
		"worker_enabled":        s.tuning.GetWorkerEnabled(),
		"catalog_cache_ttl":     s.tuning.GetCatalogCacheTTL().String(),
		"archive_base_url":      s.tuning.GetArchiveBaseURL(),
		"mast_base_url":         s.tuning.GetMASTBaseURL(),
		"depth_units":           s.units,
		"version":               version.Version,
	}
	httputil.WriteJSONOK(w, cfg)
}
