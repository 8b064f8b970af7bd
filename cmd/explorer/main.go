// Command explorer runs the light-curve API server: it serves curves,
// transit detections, catalog searches, and candidate classification
// over HTTP, with a background worker scanning stored curves for
// transits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stellar-data/lightcurve.report/internal/api"
	"github.com/stellar-data/lightcurve.report/internal/catalog"
	"github.com/stellar-data/lightcurve.report/internal/config"
	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/mast"
	"github.com/stellar-data/lightcurve.report/internal/units"
	"github.com/stellar-data/lightcurve.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "lightcurves.db", "Path to the SQLite database")
	configPath  = flag.String("config", "", "Path to a tuning config JSON file (defaults apply when empty)")
	depthUnits  = flag.String("units", units.Relative, "Depth units for API responses (rel, ppm, percent)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lightcurve.report explorer %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*depthUnits) {
		log.Fatalf("invalid units %q, valid values: %s", *depthUnits, units.GetValidUnitsString())
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded tuning config from %s", *configPath)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	mastClient := mast.NewClient(tuning.GetMASTBaseURL(), nil)
	catalogClient := catalog.NewClient(tuning.GetArchiveBaseURL(), nil, tuning.GetCatalogCacheTTL())

	detector := lightcurve.Detector{
		Sigma:      tuning.GetDetectionSigma(),
		MinSamples: tuning.GetDetectionMinSamples(),
		DepthSpan:  tuning.GetDepthWindowSamples(),
	}
	opts := lightcurve.Options{
		Normalize: tuning.GetNormalizeDefault(),
		Detrend:   tuning.GetDetrendDefault(),
	}
	worker := db.NewDetectWorker(database, detector, opts, db.ModelVersionFor(detector, opts))
	controller := db.NewDetectController(worker, tuning.GetWorkerInterval(), tuning.GetWorkerEnabled())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller.Start(ctx)
	log.Printf("detection worker started (model %s, interval %s, enabled %t)",
		worker.ModelVersion, tuning.GetWorkerInterval(), tuning.GetWorkerEnabled())

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (database browser and backup)
		database.AttachAdminRoutes(mux)

		apiServer := api.NewServer(database, mastClient, catalogClient, tuning, controller, *depthUnits)
		mux.Handle("/api/", api.LoggingMiddleware(apiServer.ServeMux()))

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Stop the worker loop once the signal context is cancelled.
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		worker.Stop()
		controller.Wait()
		log.Printf("detection worker stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
