// Command gen-lightcurve writes a deterministic synthetic light curve
// for a target, either as CSV or straight into a database. Useful for
// seeding development databases and producing test fixtures.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/stellar-data/lightcurve.report/internal/db"
	"github.com/stellar-data/lightcurve.report/internal/lightcurve"
	"github.com/stellar-data/lightcurve.report/internal/mast"
)

func main() {
	var target string
	var mission string
	var outPath string
	var dbPath string

	flag.StringVar(&target, "target", "", "target id (e.g. \"TIC 123456789\" or \"TOI-700\")")
	flag.StringVar(&mission, "mission", "TESS", "mission name (TESS, Kepler, K2)")
	flag.StringVar(&outPath, "out", "", "write CSV to this path instead of stdout")
	flag.StringVar(&dbPath, "db", "", "also store the curve in this sqlite db")
	flag.Parse()

	if target == "" {
		log.Fatal("target is required")
	}

	lc := mast.Synthesize(target, mission)
	fmt.Fprintf(os.Stderr, "generated %d samples over %.1f days for %s/%s\n",
		lc.Len(), lc.Samples[lc.Len()-1].Time-lc.Samples[0].Time, lc.TargetID, lc.Mission)

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := lightcurve.WriteCSV(out, lc); err != nil {
		log.Fatalf("write csv: %v", err)
	}

	if dbPath != "" {
		dbConn, err := db.NewDB(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer dbConn.Close()

		if err := dbConn.SaveLightCurve(context.Background(), lc, "synthetic", mast.Cadence(lc)); err != nil {
			log.Fatalf("store curve: %v", err)
		}
		fmt.Fprintf(os.Stderr, "✓ stored %s/%s in %s\n", lc.TargetID, lc.Mission, dbPath)
	}
}
