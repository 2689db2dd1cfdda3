package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PrayerName string

const (
	Fajr    PrayerName = "Fajr"
	Sunrise PrayerName = "Sunrise"
	Dhuhr   PrayerName = "Dhuhr"
	Asr     PrayerName = "Asr"
	Maghrib PrayerName = "Maghrib"
	Isha    PrayerName = "Isha"
)

// DailyPrayers lists the six timestamps of a day in order.
var DailyPrayers = []PrayerName{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// NotifiablePrayers excludes Sunrise, which is a time marker and not a prayer.
var NotifiablePrayers = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

type TimingsSource string

const (
	SourceLive  TimingsSource = "live"
	SourceCache TimingsSource = "cache"
	SourceMock  TimingsSource = "mock"
)

// PrayerTimings is one day's schedule as wall-clock "HH:MM" strings.
type PrayerTimings struct {
	Timings   map[PrayerName]string `json:"timings"`
	Sunset    string                `json:"sunset"`
	Hijri     string                `json:"hijri"`
	Gregorian string                `json:"gregorian"`
	Timezone  string                `json:"timezone"`
	Method    int                   `json:"method"`
	Fiqh      string                `json:"fiqh"`
	Source    TimingsSource         `json:"source"`
	FetchedAt time.Time             `json:"fetched_at"`

	// Raw is the API body the timings were decoded from.
	Raw []byte `json:"-"`
}

// ClockOf returns the hour and minute of the named prayer.
func (p PrayerTimings) ClockOf(name PrayerName) (int, int, error) {
	value, ok := p.Timings[name]
	if !ok {
		return 0, 0, fmt.Errorf("no time for %s", name)
	}
	return ParseClock(value)
}

// At returns the instant of the named prayer on the calendar day of ref, in ref's location.
func (p PrayerTimings) At(name PrayerName, ref time.Time) (time.Time, error) {
	h, m, err := p.ClockOf(name)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := ref.Date()
	return time.Date(y, mo, d, h, m, 0, 0, ref.Location()), nil
}

// ParseClock parses "HH:MM", ignoring any trailing annotation such as " (PKT)".
func ParseClock(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, ' '); i >= 0 {
		value = value[:i]
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return h, m, nil
}

// Prayer is a display row: "17:30" becomes Time "05:30", Period "PM".
type Prayer struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Period string `json:"period"`
	Clock  string `json:"clock"`
}

// DisplayPrayers converts the timings into 12-hour display rows in DailyPrayers order.
func (p PrayerTimings) DisplayPrayers() []Prayer {
	out := make([]Prayer, 0, len(DailyPrayers))
	for _, name := range DailyPrayers {
		h, m, err := p.ClockOf(name)
		if err != nil {
			continue
		}
		period := "AM"
		if h >= 12 {
			period = "PM"
		}
		h12 := h % 12
		if h12 == 0 {
			h12 = 12
		}
		out = append(out, Prayer{
			Name:   strings.ToUpper(string(name)),
			Time:   fmt.Sprintf("%02d:%02d", h12, m),
			Period: period,
			Clock:  fmt.Sprintf("%02d:%02d", h, m),
		})
	}
	return out
}
