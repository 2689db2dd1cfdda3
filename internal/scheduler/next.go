package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

// NextPrayer returns the first notifiable prayer strictly after now, wrapping
// to the next day's Fajr once Isha has passed. Times are read in now's location.
func NextPrayer(t model.PrayerTimings, now time.Time) (model.PrayerName, time.Time, error) {
	for _, name := range model.NotifiablePrayers {
		at, err := t.At(name, now)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("resolving %s: %w", name, err)
		}
		if at.After(now) {
			return name, at, nil
		}
	}

	first := model.NotifiablePrayers[0]
	at, err := t.At(first, now.AddDate(0, 0, 1))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("resolving %s: %w", first, err)
	}
	return first, at, nil
}

// loadZone returns the first of names that loads as an IANA zone, or fallback.
func loadZone(fallback *time.Location, names ...string) *time.Location {
	for _, name := range names {
		if name == "" {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Warn().Err(err).Str("timezone", name).Msg("ignoring unknown timezone")
			continue
		}
		return loc
	}
	return fallback
}
