package movement

import (
	"math"
	"strings"
	"time"
)

// TripEventKey is the metadata key carrying trip lifecycle markers.
const TripEventKey = "tripEvent"

const tripEventEnd = "end"

type Sample struct {
	Timestamp time.Time              `json:"timestamp"`
	Latitude  float64                `json:"latitude"`
	Longitude float64                `json:"longitude"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IsTripEnd reports whether the sample marks the end of a logged trip.
func (s Sample) IsTripEnd() bool {
	if s.Metadata == nil {
		return false
	}
	switch v := s.Metadata[TripEventKey].(type) {
	case string:
		return strings.EqualFold(strings.TrimSpace(v), tripEventEnd)
	case bool:
		return v
	}
	return false
}

type Destination struct {
	StartTime       time.Time              `json:"start_time"`
	EndTime         time.Time              `json:"end_time"`
	DurationMinutes float64                `json:"duration_minutes"`
	Latitude        float64                `json:"latitude"`
	Longitude       float64                `json:"longitude"`
	IsTripEnd       bool                   `json:"is_trip_end"`
	TripMetadata    map[string]interface{} `json:"trip_metadata,omitempty"`
}

type Summary struct {
	TotalDistanceKm         float64       `json:"total_distance_km"`
	TotalDrivingTimeMinutes float64       `json:"total_driving_time_minutes"`
	SampleCount             int           `json:"sample_count"`
	Destinations            []Destination `json:"destinations"`
	Message                 string        `json:"message,omitempty"`
}

type Thresholds struct {
	// JitterFloorKm is the smallest hop counted towards total distance.
	JitterFloorKm float64
	// GapCeiling is the longest hop counted towards driving time.
	GapCeiling time.Duration
	// StopRadiusKm clusters samples around a stop anchor.
	StopRadiusKm float64
	// MinStop is the shortest stop reported as a destination.
	MinStop time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		JitterFloorKm: 0.01,
		GapCeiling:    60 * time.Minute,
		StopRadiusKm:  0.1,
		MinStop:       10 * time.Minute,
	}
}

type Analyzer struct {
	thresholds Thresholds
}

func NewAnalyzer(thresholds Thresholds) *Analyzer {
	defaults := DefaultThresholds()
	if thresholds.JitterFloorKm <= 0 {
		thresholds.JitterFloorKm = defaults.JitterFloorKm
	}
	if thresholds.GapCeiling <= 0 {
		thresholds.GapCeiling = defaults.GapCeiling
	}
	if thresholds.StopRadiusKm <= 0 {
		thresholds.StopRadiusKm = defaults.StopRadiusKm
	}
	if thresholds.MinStop <= 0 {
		thresholds.MinStop = defaults.MinStop
	}
	return &Analyzer{thresholds: thresholds}
}

// Analyze computes distance, driving time and stops for the samples at or
// after windowStart. Samples must be ordered by timestamp; a zero windowStart
// keeps every sample.
func (a *Analyzer) Analyze(samples []Sample, windowStart time.Time) Summary {
	points := prepare(samples, windowStart)
	if len(points) < 2 {
		return Summary{
			SampleCount:  len(points),
			Destinations: []Destination{},
			Message:      "not enough location data in the selected window to analyse movement",
		}
	}

	distance, driving := a.totals(points)
	return Summary{
		TotalDistanceKm:         distance,
		TotalDrivingTimeMinutes: driving,
		SampleCount:             len(points),
		Destinations:            a.destinations(points),
	}
}

func prepare(samples []Sample, windowStart time.Time) []Sample {
	points := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp.IsZero() || !validCoordinate(s.Latitude, s.Longitude) {
			continue
		}
		if !windowStart.IsZero() && s.Timestamp.Before(windowStart) {
			continue
		}
		points = append(points, s)
	}
	return points
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (a *Analyzer) totals(points []Sample) (float64, float64) {
	var distance float64
	var driving time.Duration
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if d := HaversineKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude); d > a.thresholds.JitterFloorKm {
			distance += d
		}
		if gap := cur.Timestamp.Sub(prev.Timestamp); gap > 0 && gap < a.thresholds.GapCeiling {
			driving += gap
		}
	}
	return distance, driving.Minutes()
}

func (a *Analyzer) destinations(points []Sample) []Destination {
	result := []Destination{}
	current := newStop(points[0])

	for _, p := range points[1:] {
		d := HaversineKm(current.Latitude, current.Longitude, p.Latitude, p.Longitude)
		tripEnd := p.IsTripEnd()
		if d < a.thresholds.StopRadiusKm || tripEnd {
			current.EndTime = p.Timestamp
			current.DurationMinutes = stopMinutes(current.StartTime, current.EndTime)
			if tripEnd {
				current.IsTripEnd = true
				current.TripMetadata = p.Metadata
			}
			continue
		}

		if a.keep(current) {
			result = append(result, current)
		}
		current = newStop(p)
	}

	if a.keep(current) {
		result = append(result, current)
	}
	return result
}

func (a *Analyzer) keep(stop Destination) bool {
	return stop.IsTripEnd || stop.DurationMinutes >= a.thresholds.MinStop.Minutes()
}

func newStop(p Sample) Destination {
	stop := Destination{
		StartTime: p.Timestamp,
		EndTime:   p.Timestamp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
	if p.IsTripEnd() {
		stop.IsTripEnd = true
		stop.TripMetadata = p.Metadata
	}
	return stop
}

// stopMinutes falls back to the absolute span when device clocks go backwards.
func stopMinutes(start, end time.Time) float64 {
	return math.Abs(end.Sub(start).Minutes())
}
