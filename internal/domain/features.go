package domain

import "time"

// DerivedFeatures holds the per-trip features computed from a TripRecord.
// One value per input record, in input order.
type DerivedFeatures struct {
	TripID string
	BikeID string

	Hour    int // 0-23, from StartTime
	Weekday time.Weekday
	Month   time.Month
	Quarter Quarter
	Date    Date

	DurationMinutes float64 // EndTime - StartTime, not clamped
	DistanceKm      float64 // great-circle distance, rounded
}
