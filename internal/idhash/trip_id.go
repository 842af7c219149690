package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// tripTimeLayout keeps sub-second precision so back-to-back hires stay distinct.
const tripTimeLayout = "2006-01-02T15:04:05.000000000"

// ComputeTripID computes a deterministic trip_id using SHA256.
// Formula: SHA256(bike_id|start_time|start_station)
// A bike cannot start two hires at the same instant, so the triple is unique.
// Returns hex-encoded hash (64 characters).
func ComputeTripID(bikeID string, startTime time.Time, startStation string) string {
	data := fmt.Sprintf("%s|%s|%s",
		bikeID,
		startTime.Format(tripTimeLayout),
		startStation,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
