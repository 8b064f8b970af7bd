// Command scan-transits runs one detection pass over every stored light
// curve that has no recorded result for the current model version. The
// explorer daemon does this on a schedule; this tool does it on demand,
// for backfills after retuning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/stellar-data/lightcurve.report/internal/config"
	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
)

func main() {
	var dbPath string
	var configPath string
	var dryRun bool

	flag.StringVar(&dbPath, "db", "lightcurves.db", "path to sqlite db")
	flag.StringVar(&configPath, "config", "", "tuning config JSON (defaults apply when empty)")
	flag.BoolVar(&dryRun, "dry-run", false, "only report unscanned curves, don't run detection")
	flag.Parse()

	tuning := config.EmptyTuningConfig()
	if configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(configPath)
		if err != nil {
			log.Fatalf("load tuning config: %v", err)
		}
	}

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	detector := lightcurve.Detector{
		Sigma:      tuning.GetDetectionSigma(),
		MinSamples: tuning.GetDetectionMinSamples(),
		DepthSpan:  tuning.GetDepthWindowSamples(),
	}
	opts := lightcurve.Options{
		Normalize: tuning.GetNormalizeDefault(),
		Detrend:   tuning.GetDetrendDefault(),
	}
	modelVersion := db.ModelVersionFor(detector, opts)

	ctx := context.Background()
	missing, err := dbConn.CurvesMissingEvents(ctx, modelVersion)
	if err != nil {
		log.Fatalf("scan for unscanned curves: %v", err)
	}

	if len(missing) == 0 {
		fmt.Printf("✓ No unscanned curves for model %s\n", modelVersion)
		return
	}

	fmt.Printf("Found %d curves with no detection pass for model %s:\n", len(missing), modelVersion)
	for _, ref := range missing {
		fmt.Printf("  %s (%s)\n", ref.TargetID, ref.Mission)
	}

	if dryRun {
		fmt.Println("\nDry run mode - no detection performed")
		return
	}

	worker := db.NewDetectWorker(dbConn, detector, opts, modelVersion)
	processed, err := worker.RunOnce(ctx)
	if err != nil {
		log.Fatalf("detection pass failed after %d curves: %v", processed, err)
	}
	fmt.Printf("\n✓ Detection complete: %d curves processed\n", processed)
}
