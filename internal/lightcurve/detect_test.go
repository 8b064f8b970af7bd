package lightcurve

import (
	"errors"
	"math"
	"testing"
)

// flatCurve returns n samples of flux 1.0 at times 0..n-1.
func flatCurve(n int) LightCurve {
	lc := LightCurve{TargetID: "TIC 1", Mission: "TESS"}
	for i := 0; i < n; i++ {
		lc.Samples = append(lc.Samples, Sample{Time: float64(i), Flux: 1.0})
	}
	return lc
}

func TestDetectSingleTransit(t *testing.T) {
	lc := flatCurve(200)
	for i := 90; i <= 110; i++ {
		lc.Samples[i].Flux = 0.5
	}

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Detect() returned %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Start != 90.0 {
		t.Errorf("event start = %v, want 90.0", ev.Start)
	}
	if ev.End != 110.0 {
		t.Errorf("event end = %v, want 110.0", ev.End)
	}
	if math.Abs(ev.Depth-0.5) > floatTol {
		t.Errorf("event depth = %v, want 0.5", ev.Depth)
	}
}

func TestDetectShortCurveReturnsEmpty(t *testing.T) {
	lc := flatCurve(99)
	lc.Samples[50].Flux = 0.1

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Detect() on %d samples returned %d events, want 0", lc.Len(), len(events))
	}
}

func TestDetectTrailingOpenRunDropped(t *testing.T) {
	lc := flatCurve(200)
	for i := 190; i < 200; i++ {
		lc.Samples[i].Flux = 0.5
	}

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("trailing open run produced %d events, want 0", len(events))
	}
}

func TestDetectThresholdBoundaryInclusive(t *testing.T) {
	// With MAD = 0 the threshold equals the median, and a sample exactly
	// at the threshold must not open a run.
	lc := flatCurve(200)
	lc.Samples[100].Flux = 1.0 // explicit: exactly median - 3*MAD

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("boundary-value sample produced %d events, want 0", len(events))
	}
}

func TestDetectConsecutiveRunsNotMerged(t *testing.T) {
	lc := flatCurve(200)
	for i := 50; i <= 55; i++ {
		lc.Samples[i].Flux = 0.5
	}
	// One in-threshold sample at 56, then a second dip.
	for i := 57; i <= 62; i++ {
		lc.Samples[i].Flux = 0.5
	}

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Detect() returned %d events, want 2 distinct runs", len(events))
	}
	if events[0].Start != 50 || events[0].End != 55 {
		t.Errorf("first event = [%v, %v], want [50, 55]", events[0].Start, events[0].End)
	}
	if events[1].Start != 57 || events[1].End != 62 {
		t.Errorf("second event = [%v, %v], want [57, 62]", events[1].Start, events[1].End)
	}
}

func TestDetectMADZeroIsNotAnError(t *testing.T) {
	lc := flatCurve(150)
	lc.Samples[70].Flux = 0.9
	lc.Samples[72].Flux = 1.1 // above threshold, never registers

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Detect() returned %d events, want 1", len(events))
	}
	if events[0].Start != 70 || events[0].End != 70 {
		t.Errorf("event = [%v, %v], want single-sample run [70, 70]", events[0].Start, events[0].End)
	}
}

func TestDetectInvalidSamplesLeaveStateUnchanged(t *testing.T) {
	lc := flatCurve(200)
	for i := 90; i <= 110; i++ {
		lc.Samples[i].Flux = 0.5
	}
	// NaN inside the dip neither closes nor extends the run on its own.
	lc.Samples[100].Flux = math.NaN()

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Detect() returned %d events, want 1", len(events))
	}
	if events[0].Start != 90 || events[0].End != 110 {
		t.Errorf("event = [%v, %v], want [90, 110]", events[0].Start, events[0].End)
	}
}

func TestDetectSigmaConfigurable(t *testing.T) {
	// Flux alternates 1.0 / 0.98, so median = 1.0 and MAD = 0.02. A dip
	// to 0.95 sits above the sigma=3 threshold (0.94) but below the
	// sigma=2 threshold (0.96).
	lc := LightCurve{}
	for i := 0; i < 200; i++ {
		f := 1.0
		if i%2 == 1 {
			f = 0.98
		}
		lc.Samples = append(lc.Samples, Sample{Time: float64(i), Flux: f})
	}
	lc.Samples[121].Flux = 0.95

	strict := NewDetector()
	events, err := strict.Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("sigma=3 returned %d events, want 0", len(events))
	}

	loose := NewDetector()
	loose.Sigma = 2
	events, err = loose.Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("sigma=2 returned %d events, want 1", len(events))
	}
}

func TestDetectEmptyInput(t *testing.T) {
	lc := LightCurve{}
	for i := 0; i < 150; i++ {
		lc.Samples = append(lc.Samples, Sample{Time: float64(i), Flux: math.NaN()})
	}
	if _, err := NewDetector().Detect(lc); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Detect() error = %v, want ErrEmptyInput", err)
	}
}

func TestDetectDepthUsesWindowAroundExit(t *testing.T) {
	lc := flatCurve(200)
	// V-shaped dip: deepest point inside the +-10 window of the exit.
	lc.Samples[100].Flux = 0.8
	lc.Samples[101].Flux = 0.4
	lc.Samples[102].Flux = 0.8

	events, err := NewDetector().Detect(lc)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Detect() returned %d events, want 1", len(events))
	}
	if math.Abs(events[0].Depth-0.6) > floatTol {
		t.Errorf("depth = %v, want 0.6 (median 1.0 - window min 0.4)", events[0].Depth)
	}
}
