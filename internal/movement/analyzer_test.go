package movement

import (
	"math"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// offsetNorth returns a latitude roughly km kilometres north of lat.
func offsetNorth(lat, km float64) float64 {
	return lat + km/earthRadiusKm*180/math.Pi
}

func approx(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestAnalyzeNotEnoughSamples(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())

	for _, samples := range [][]Sample{nil, {{Timestamp: base, Latitude: 43.2, Longitude: 76.9}}} {
		summary := analyzer.Analyze(samples, time.Time{})
		if summary.TotalDistanceKm != 0 || summary.TotalDrivingTimeMinutes != 0 {
			t.Fatalf("expected zero totals, got %+v", summary)
		}
		if summary.Destinations == nil || len(summary.Destinations) != 0 {
			t.Fatalf("expected empty destinations, got %+v", summary.Destinations)
		}
		if summary.Message == "" {
			t.Fatalf("expected explanatory message")
		}
	}
}

func TestAnalyzeDistanceAndDrivingTime(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(2 * time.Minute), Latitude: offsetNorth(43.2, 0.2), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if !approx(summary.TotalDistanceKm, 0.2, 0.001) {
		t.Fatalf("expected ~0.2 km, got %f", summary.TotalDistanceKm)
	}
	if !approx(summary.TotalDrivingTimeMinutes, 2, 1e-9) {
		t.Fatalf("expected 2 minutes driving, got %f", summary.TotalDrivingTimeMinutes)
	}
}

func TestAnalyzeJitterFloor(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	near := offsetNorth(43.2, 0.005)
	if raw := HaversineKm(43.2, 76.9, near, 76.9); raw <= 0 {
		t.Fatalf("expected non-zero raw distance")
	}
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(time.Minute), Latitude: near, Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if summary.TotalDistanceKm != 0 {
		t.Fatalf("expected jitter to be ignored, got %f", summary.TotalDistanceKm)
	}
	if !approx(summary.TotalDrivingTimeMinutes, 1, 1e-9) {
		t.Fatalf("expected elapsed time to count, got %f", summary.TotalDrivingTimeMinutes)
	}
}

func TestAnalyzeGapCeiling(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(5 * time.Minute), Latitude: offsetNorth(43.2, 1), Longitude: 76.9},
		{Timestamp: base.Add(3 * time.Hour), Latitude: offsetNorth(43.2, 2), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if !approx(summary.TotalDrivingTimeMinutes, 5, 1e-9) {
		t.Fatalf("expected offline gap to be excluded, got %f", summary.TotalDrivingTimeMinutes)
	}
	if !approx(summary.TotalDistanceKm, 2, 0.01) {
		t.Fatalf("expected distance across the gap to count, got %f", summary.TotalDistanceKm)
	}
}

func TestAnalyzeSingleStop(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	var samples []Sample
	for i := 0; i <= 5; i++ {
		samples = append(samples, Sample{
			Timestamp: base.Add(time.Duration(i*3) * time.Minute),
			Latitude:  offsetNorth(43.2, 0.01*float64(i%3)),
			Longitude: 76.9,
		})
	}
	samples = append(samples, Sample{
		Timestamp: base.Add(20 * time.Minute),
		Latitude:  offsetNorth(43.2, 1),
		Longitude: 76.9,
	})

	summary := analyzer.Analyze(samples, time.Time{})
	if len(summary.Destinations) != 1 {
		t.Fatalf("expected exactly one destination, got %d", len(summary.Destinations))
	}
	stop := summary.Destinations[0]
	if !approx(stop.DurationMinutes, 15, 1e-9) {
		t.Fatalf("expected 15 minute stop, got %f", stop.DurationMinutes)
	}
	if stop.IsTripEnd {
		t.Fatalf("expected spatial stop not to be flagged as trip end")
	}
	if !stop.StartTime.Equal(base) || !stop.EndTime.Equal(base.Add(15*time.Minute)) {
		t.Fatalf("unexpected stop window %s - %s", stop.StartTime, stop.EndTime)
	}
}

func TestAnalyzeShortStopDropped(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(4 * time.Minute), Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(6 * time.Minute), Latitude: offsetNorth(43.2, 2), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if len(summary.Destinations) != 0 {
		t.Fatalf("expected short stops to be dropped, got %+v", summary.Destinations)
	}
}

func TestAnalyzeTripEndAlwaysEmitted(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{
			Timestamp: base.Add(3 * time.Minute),
			Latitude:  offsetNorth(43.2, 5),
			Longitude: 76.9,
			Metadata:  map[string]interface{}{TripEventKey: "end", "tripId": "t-1"},
		},
		{Timestamp: base.Add(10 * time.Minute), Latitude: offsetNorth(43.2, 9), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if len(summary.Destinations) != 1 {
		t.Fatalf("expected one trip end destination, got %d", len(summary.Destinations))
	}
	stop := summary.Destinations[0]
	if !stop.IsTripEnd {
		t.Fatalf("expected trip end flag")
	}
	if stop.DurationMinutes >= 10 {
		t.Fatalf("expected short trip stop, got %f", stop.DurationMinutes)
	}
	if stop.TripMetadata["tripId"] != "t-1" {
		t.Fatalf("expected trip metadata to be attached, got %v", stop.TripMetadata)
	}
}

func TestAnalyzeClockSkew(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base.Add(30 * time.Minute), Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(12 * time.Minute), Latitude: 43.2, Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if len(summary.Destinations) != 1 {
		t.Fatalf("expected skewed stop to be kept, got %d", len(summary.Destinations))
	}
	if !approx(summary.Destinations[0].DurationMinutes, 18, 1e-9) {
		t.Fatalf("expected absolute duration, got %f", summary.Destinations[0].DurationMinutes)
	}
	if summary.TotalDrivingTimeMinutes != 0 {
		t.Fatalf("expected backwards hop not to count as driving, got %f", summary.TotalDrivingTimeMinutes)
	}
}

func TestAnalyzeWindowStart(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base.Add(-time.Hour), Latitude: offsetNorth(43.2, 10), Longitude: 76.9},
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(time.Minute), Latitude: offsetNorth(43.2, 0.5), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, base)
	if summary.SampleCount != 2 {
		t.Fatalf("expected samples before the window to be ignored, got %d", summary.SampleCount)
	}
	if !approx(summary.TotalDistanceKm, 0.5, 0.001) {
		t.Fatalf("expected ~0.5 km, got %f", summary.TotalDistanceKm)
	}
}

func TestAnalyzeSkipsInvalidCoordinates(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	samples := []Sample{
		{Timestamp: base, Latitude: 43.2, Longitude: 76.9},
		{Timestamp: base.Add(time.Minute), Latitude: 191, Longitude: 76.9},
		{Timestamp: base.Add(2 * time.Minute), Latitude: math.NaN(), Longitude: 76.9},
	}

	summary := analyzer.Analyze(samples, time.Time{})
	if summary.SampleCount != 1 || summary.Message == "" {
		t.Fatalf("expected invalid fixes to be dropped, got %+v", summary)
	}
}

func TestIsTripEnd(t *testing.T) {
	cases := []struct {
		metadata map[string]interface{}
		expect   bool
	}{
		{nil, false},
		{map[string]interface{}{TripEventKey: "end"}, true},
		{map[string]interface{}{TripEventKey: "END "}, true},
		{map[string]interface{}{TripEventKey: "start"}, false},
		{map[string]interface{}{TripEventKey: true}, true},
		{map[string]interface{}{TripEventKey: 1}, false},
	}
	for _, tc := range cases {
		if got := (Sample{Metadata: tc.metadata}).IsTripEnd(); got != tc.expect {
			t.Fatalf("metadata %v: expected %v, got %v", tc.metadata, tc.expect, got)
		}
	}
}

func TestHaversineKm(t *testing.T) {
	// Almaty to Astana is roughly 970 km.
	d := HaversineKm(43.2389, 76.8897, 51.1694, 71.4491)
	if d < 950 || d > 990 {
		t.Fatalf("unexpected distance %f", d)
	}
	if HaversineKm(10, 10, 10, 10) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}
