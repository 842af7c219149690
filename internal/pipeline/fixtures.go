package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/idhash"
	"bikeshare-report/internal/storage"
)

// FixtureSeed is the default seed for GenerateFixtures.
const FixtureSeed = 2018

type station struct {
	name      string
	lat, long float64
}

var fixtureStations = []station{
	{"Grove St PATH", 40.719586, -74.043117},
	{"Exchange Place", 40.716247, -74.033459},
	{"Sip Ave", 40.730743, -74.063784},
	{"Hamilton Park", 40.727596, -74.044247},
	{"Newport PATH", 40.727224, -74.033759},
	{"City Hall", 40.717732, -74.043845},
	{"Paulus Hook", 40.714145, -74.033552},
	{"Liberty Light Rail", 40.711242, -74.055701},
	{"Van Vorst Park", 40.718489, -74.047727},
	{"Newport Pkwy", 40.728745, -74.032108},
}

const fixtureBikes = 10

// GenerateFixtures builds a deterministic year of synthetic hires for 2018:
// ten bikes, Jersey City docks, a seasonal cycle and fewer hires at weekends.
// A small share of records carry the implausible values the quality audit
// looks for. Records come back in store order (start_time, trip_id).
func GenerateFixtures(seed uint64) []*domain.TripRecord {
	rng := rand.New(rand.NewPCG(seed, 0))
	start := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

	var trips []*domain.TripRecord
	seen := make(map[string]struct{})

	for day := 0; day < 365; day++ {
		date := start.AddDate(0, 0, day)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		season := 1 + 0.4*math.Sin(2*math.Pi*float64(day-80)/365)
		base := 12 + rng.IntN(9)
		if weekend {
			base = 5 + rng.IntN(6)
		}
		n := int(math.Round(float64(base) * season))

		for i := 0; i < n; i++ {
			t := fixtureTrip(rng, date, weekend)
			if _, dup := seen[t.TripID]; dup {
				continue
			}
			seen[t.TripID] = struct{}{}
			trips = append(trips, t)
		}
	}

	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].StartTime.Equal(trips[j].StartTime) {
			return trips[i].StartTime.Before(trips[j].StartTime)
		}
		return trips[i].TripID < trips[j].TripID
	})
	return trips
}

func fixtureTrip(rng *rand.Rand, date time.Time, weekend bool) *domain.TripRecord {
	bike := fmt.Sprintf("bike-%02d", rng.IntN(fixtureBikes)+1)
	from := fixtureStations[rng.IntN(len(fixtureStations))]
	to := fixtureStations[rng.IntN(len(fixtureStations))]

	startTime := date.Add(fixtureHour(rng, weekend)*time.Hour +
		time.Duration(rng.IntN(60))*time.Minute +
		time.Duration(rng.IntN(60))*time.Second)
	minutes := 4 + rng.ExpFloat64()*14
	if weekend {
		minutes += 10
	}
	endTime := startTime.Add(time.Duration(minutes * float64(time.Minute)))

	t := &domain.TripRecord{
		TripID:           idhash.ComputeTripID(bike, startTime, from.name),
		BikeID:           bike,
		StartTime:        startTime,
		EndTime:          endTime,
		StartStation:     from.name,
		EndStation:       to.name,
		StartLat:         from.lat,
		StartLong:        from.long,
		EndLat:           to.lat,
		EndLong:          to.long,
		SubscriptionType: domain.SubscriptionSubscriber,
	}
	if rng.Float64() < 0.3 {
		t.SubscriptionType = domain.SubscriptionCasual
	}

	switch r := rng.Float64(); {
	case r < 0.55:
		t.Gender = domain.GenderMale
	case r < 0.90:
		t.Gender = domain.GenderFemale
	case r < 0.95:
		t.Gender = domain.GenderUnknown
	}

	if rng.Float64() >= 0.08 {
		year := 1950 + rng.IntN(51)
		t.BirthYear = &year
	}

	applyDefects(rng, t)
	return t
}

// fixtureHour picks a start hour: commuter peaks on weekdays, midday at weekends.
func fixtureHour(rng *rand.Rand, weekend bool) time.Duration {
	if weekend {
		return time.Duration(10 + rng.IntN(8))
	}
	switch r := rng.Float64(); {
	case r < 0.3:
		return time.Duration(7 + rng.IntN(3))
	case r < 0.6:
		return time.Duration(16 + rng.IntN(3))
	default:
		return time.Duration(6 + rng.IntN(17))
	}
}

// applyDefects injects the rare bad values seen in operator exports.
func applyDefects(rng *rand.Rand, t *domain.TripRecord) {
	switch r := rng.Float64(); {
	case r < 0.004:
		// clock skew on the dock
		t.EndTime = t.StartTime.Add(-time.Duration(1+rng.IntN(30)) * time.Minute)
	case r < 0.008:
		// bike not docked properly
		t.EndTime = t.StartTime.Add(time.Duration(26+rng.IntN(48)) * time.Hour)
	case r < 0.012:
		year := 1900
		t.BirthYear = &year
	case r < 0.016:
		t.EndStation = t.StartStation
		t.EndLat = t.StartLat + 0.0007
		t.EndLong = t.StartLong - 0.0011
	}
}

// LoadFixtures generates fixtures with seed and inserts them into store.
func LoadFixtures(ctx context.Context, store storage.TripRecordStore, seed uint64) error {
	trips := GenerateFixtures(seed)
	if err := store.InsertBulk(ctx, trips); err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	return nil
}
