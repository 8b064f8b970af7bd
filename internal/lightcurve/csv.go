package lightcurve

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the exact header expected by downstream consumers of
// exported curves. Column order matters; flux_err is rendered empty when
// the sample has no error value.
var csvHeader = []string{"time", "flux", "flux_err"}

// WriteCSV writes the curve in the time,flux,flux_err export format.
func WriteCSV(w io.Writer, lc LightCurve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range lc.Samples {
		row := []string{
			strconv.FormatFloat(s.Time, 'g', -1, 64),
			strconv.FormatFloat(s.Flux, 'g', -1, 64),
			"",
		}
		if s.FluxErr != nil {
			row[2] = strconv.FormatFloat(*s.FluxErr, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a curve previously written by WriteCSV. An empty
// flux_err field maps back to a nil FluxErr.
func ReadCSV(r io.Reader, targetID, mission string) (LightCurve, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if err != nil {
		return LightCurve{}, fmt.Errorf("read csv header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return LightCurve{}, fmt.Errorf("unexpected csv header %v, want %v", header, csvHeader)
		}
	}

	lc := LightCurve{TargetID: targetID, Mission: mission}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return LightCurve{}, fmt.Errorf("read csv row: %w", err)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return LightCurve{}, fmt.Errorf("line %d: bad time %q: %w", line, rec[0], err)
		}
		f, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return LightCurve{}, fmt.Errorf("line %d: bad flux %q: %w", line, rec[1], err)
		}
		s := Sample{Time: t, Flux: f}
		if rec[2] != "" {
			e, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return LightCurve{}, fmt.Errorf("line %d: bad flux_err %q: %w", line, rec[2], err)
			}
			s.FluxErr = &e
		}
		lc.Samples = append(lc.Samples, s)
	}
	return lc, nil
}
