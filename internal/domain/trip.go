package domain

import "time"

// SubscriptionType classifies the rider's plan.
type SubscriptionType string

// Subscription types
const (
	SubscriptionCasual     SubscriptionType = "Casual"
	SubscriptionSubscriber SubscriptionType = "Subscriber"
)

// Valid reports whether s is a known subscription type.
func (s SubscriptionType) Valid() bool {
	return s == SubscriptionCasual || s == SubscriptionSubscriber
}

// Gender as recorded by the operator. The empty string means the field was absent.
type Gender string

// Gender values
const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// Valid reports whether g is a known gender. The absent value is not valid.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

// TripRecord represents one hire event, from unlock to return.
// Corresponds to trip_records table.
type TripRecord struct {
	TripID string // deterministic hash, see idhash.ComputeTripID
	BikeID string

	// Wall-clock local timestamps. Carried in UTC without any zone conversion.
	StartTime time.Time
	EndTime   time.Time

	StartStation string
	EndStation   string

	// Coordinates in degrees
	StartLat  float64
	StartLong float64
	EndLat    float64
	EndLong   float64

	SubscriptionType SubscriptionType
	BirthYear        *int   // nil when absent
	Gender           Gender // "" when absent
}
