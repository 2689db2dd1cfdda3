package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/aladhan"
	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

// DefaultRefreshInterval is how often the refresher checks for a new day.
const DefaultRefreshInterval = time.Minute

// TimingsFetcher fetches one day's timings.
type TimingsFetcher interface {
	TimingsForDate(ctx context.Context, q aladhan.Query, date time.Time) (*model.PrayerTimings, error)
}

type RefresherOptions struct {
	Fetcher   TimingsFetcher
	Scheduler *Scheduler
	Clock     clock.Clock
	Location  *time.Location
	Interval  time.Duration

	// Fallback coordinates when settings carry none.
	Latitude  *float64
	Longitude *float64
}

// Refresher keeps the scheduler's timings current: once per calendar day,
// and again whenever the location or calculation settings change.
type Refresher struct {
	fetcher  TimingsFetcher
	sched    *Scheduler
	clock    clock.Clock
	loc      *time.Location // used until a zone is known for the location
	interval time.Duration
	lat, lon *float64
	wake     chan struct{}

	mu       sync.Mutex
	settings model.Settings
	day      string
	query    aladhan.Query
	zone     string
	loaded   bool
}

func NewRefresher(opts RefresherOptions, initial model.Settings) *Refresher {
	r := &Refresher{
		fetcher:  opts.Fetcher,
		sched:    opts.Scheduler,
		clock:    opts.Clock,
		loc:      opts.Location,
		interval: opts.Interval,
		lat:      opts.Latitude,
		lon:      opts.Longitude,
		wake:     make(chan struct{}, 1),
		settings: initial,
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.interval <= 0 {
		r.interval = DefaultRefreshInterval
	}
	r.sched.SetSettings(initial)
	return r
}

// SettingsChanged forwards new settings to the scheduler and schedules a
// refetch if they change which timings apply.
func (r *Refresher) SettingsChanged(s model.Settings) {
	r.sched.SetSettings(s)
	r.mu.Lock()
	r.settings = s
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Query resolves the timings query for the current settings.
func (r *Refresher) Query() (aladhan.Query, error) {
	r.mu.Lock()
	s := r.settings
	r.mu.Unlock()

	q := aladhan.Query{Method: s.PrayerMethod, Fiqh: s.Fiqh}
	switch {
	case s.Location.Latitude != nil && s.Location.Longitude != nil:
		q.Latitude, q.Longitude = *s.Location.Latitude, *s.Location.Longitude
	case r.lat != nil && r.lon != nil:
		q.Latitude, q.Longitude = *r.lat, *r.lon
	default:
		return q, config.ErrLocationUnavailable
	}
	return q, nil
}

// RefreshIfStale fetches when the day or the query has changed since the
// last successful load. The day is taken in the location's own zone: the
// saved settings' zone, else the zone reported with the last timings.
func (r *Refresher) RefreshIfStale(ctx context.Context) error {
	q, err := r.Query()
	if err != nil {
		r.sched.SetTimings(nil)
		return err
	}

	r.mu.Lock()
	name := r.settings.Location.Timezone
	if name == "" && r.loaded && r.query == q {
		name = r.zone
	}
	r.mu.Unlock()
	now := r.clock.Now().In(loadZone(r.loc, name))
	day := now.Format("2006-01-02")

	r.mu.Lock()
	fresh := r.loaded && r.day == day && r.query == q
	r.mu.Unlock()
	if fresh {
		return nil
	}
	return r.load(ctx, q, now)
}

func (r *Refresher) load(ctx context.Context, q aladhan.Query, now time.Time) error {
	t, err := r.fetcher.TimingsForDate(ctx, q, now)
	if err != nil {
		return err
	}
	day := now.Format("2006-01-02")

	// The first fetch for a location may guess the wrong calendar day
	// before its zone is known.
	if zoned := now.In(loadZone(now.Location(), t.Timezone)); zoned.Format("2006-01-02") != day {
		if t, err = r.fetcher.TimingsForDate(ctx, q, zoned); err != nil {
			return err
		}
		day = zoned.Format("2006-01-02")
	}
	r.sched.SetTimings(t)

	r.mu.Lock()
	r.day, r.query, r.zone, r.loaded = day, q, t.Timezone, true
	r.mu.Unlock()

	log.Info().
		Str("day", day).
		Str("timezone", t.Timezone).
		Float64("lat", q.Latitude).
		Float64("lon", q.Longitude).
		Str("source", string(t.Source)).
		Msg("loaded prayer timings")
	return nil
}

// Run refreshes immediately, then on every interval or settings change, until
// ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.RefreshIfStale(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("could not refresh prayer timings")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.wake:
		}
	}
}
