package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
	"github.com/Nixie-Tech-LLC/salah/internal/notify"
)

type State int

const (
	Idle State = iota
	Counting
	Alerting
)

func (s State) String() string {
	switch s {
	case Counting:
		return "counting"
	case Alerting:
		return "alerting"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

const (
	DefaultThreshold = 60 * time.Second
	DefaultDisplay   = 30 * time.Second
	DefaultInterval  = time.Second
)

// Status is a snapshot of the countdown.
type Status struct {
	State     State            `json:"state"`
	Prayer    model.PrayerName `json:"prayer,omitempty"`
	At        time.Time        `json:"at,omitempty"`
	Remaining time.Duration    `json:"remaining"`
	Alert     *model.Alert     `json:"alert,omitempty"`
}

type Options struct {
	Clock    clock.Clock
	Notifier notify.Notifier
	Location *time.Location

	// Threshold is how close a prayer must be before it alerts.
	Threshold time.Duration
	// Display is how long an alert stays up before returning to Counting.
	Display  time.Duration
	Interval time.Duration
	NewID    func() string
}

// Scheduler counts down to the next prayer and raises one alert per prayer
// instant when the remaining time drops under the threshold.
type Scheduler struct {
	clock     clock.Clock
	notifier  notify.Notifier
	loc       *time.Location // used when neither timings nor settings name a zone
	threshold time.Duration
	display   time.Duration
	interval  time.Duration
	newID     func() string

	mu           sync.Mutex
	timings      *model.PrayerTimings
	settings     model.Settings
	zone         *time.Location
	state        State
	next         model.PrayerName
	nextAt       time.Time
	remaining    time.Duration
	lastAlerted  time.Time
	alertStarted time.Time
	current      *model.Alert
}

func New(opts Options) *Scheduler {
	s := &Scheduler{
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		loc:       opts.Location,
		threshold: opts.Threshold,
		display:   opts.Display,
		interval:  opts.Interval,
		newID:     opts.NewID,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.threshold <= 0 {
		s.threshold = DefaultThreshold
	}
	if s.display <= 0 {
		s.display = DefaultDisplay
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.zone = s.loc
	return s
}

// SetTimings replaces the day's timings; the next tick leaves Idle.
func (s *Scheduler) SetTimings(t *model.PrayerTimings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timings = t
	if t == nil {
		s.state = Idle
		s.current = nil
	}
	s.resolveZone()
}

// Timings returns the timings the scheduler is counting against.
func (s *Scheduler) Timings() *model.PrayerTimings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timings
}

// SetSettings updates per-prayer toggles and cue preferences.
func (s *Scheduler) SetSettings(settings model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.resolveZone()
}

// Zone returns the location prayer times are currently read in.
func (s *Scheduler) Zone() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zone
}

// resolveZone picks the zone of the fetched timings, then the saved
// location's zone, then the configured default. Caller holds mu.
func (s *Scheduler) resolveZone() {
	var fetched string
	if s.timings != nil {
		fetched = s.timings.Timezone
	}
	s.zone = loadZone(s.loc, fetched, s.settings.Location.Timezone)
}

// Status returns the state as of the last tick.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Dismiss closes the in-app alert early. The prayer does not alert again.
func (s *Scheduler) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Alerting {
		s.state = Counting
		s.current = nil
	}
}

// Tick recomputes the countdown and performs any due transition.
func (s *Scheduler) Tick(ctx context.Context) Status {
	s.mu.Lock()
	now := s.clock.Now().In(s.zone)
	if s.timings == nil {
		s.state = Idle
		st := s.snapshot()
		s.mu.Unlock()
		return st
	}

	name, at, err := NextPrayer(*s.timings, now)
	if err != nil {
		s.state = Idle
		st := s.snapshot()
		s.mu.Unlock()
		log.Error().Err(err).Msg("cannot determine next prayer")
		return st
	}
	s.next, s.nextAt, s.remaining = name, at, at.Sub(now)

	if s.state == Alerting && now.Sub(s.alertStarted) >= s.display {
		log.Debug().Str("alert_id", s.current.ID).Msg("alert dismissed")
		s.state = Counting
		s.current = nil
	}

	var fire *model.Alert
	if s.state != Alerting {
		s.state = Counting
		if s.due(name, at) {
			alert := s.buildAlert(name, at, now)
			s.lastAlerted = at
			s.alertStarted = now
			s.current = &alert
			s.state = Alerting
			fire = &alert
		}
	}
	st := s.snapshot()
	s.mu.Unlock()

	if fire != nil {
		log.Info().Str("prayer", string(fire.Prayer)).Dur("remaining", fire.Remaining).Msg("prayer alert")
		if err := s.notifier.Notify(ctx, *fire); err != nil {
			log.Error().Err(err).Str("alert_id", fire.ID).Msg("failed to deliver prayer alert")
		}
	}
	return st
}

// Run ticks every interval until ctx is cancelled, then returns to Idle.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.state = Idle
			s.current = nil
			s.mu.Unlock()
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// due reports whether the prayer at instant at should alert now. Caller holds mu.
func (s *Scheduler) due(name model.PrayerName, at time.Time) bool {
	if s.remaining <= 0 || s.remaining >= s.threshold {
		return false
	}
	if at.Equal(s.lastAlerted) {
		return false
	}
	return s.settings.Notifications.Enabled(name)
}

func (s *Scheduler) buildAlert(name model.PrayerName, at, now time.Time) model.Alert {
	n := s.settings.Notifications
	quiet := n.SilentMode || inQuietHours(n.DoNotDisturb, now)
	return model.Alert{
		ID:        s.newID(),
		Prayer:    name,
		At:        at,
		Remaining: s.remaining,
		Title:     fmt.Sprintf("%s prayer time", name),
		Body:      fmt.Sprintf("%s begins at %s", name, at.Format("15:04")),
		Sound:     !quiet && s.settings.SoundEnabled && n.AdhanSound,
		Vibrate:   !quiet && s.settings.VibrationOn,
	}
}

func (s *Scheduler) snapshot() Status {
	st := Status{State: s.state}
	if s.state != Idle {
		st.Prayer, st.At, st.Remaining = s.next, s.nextAt, s.remaining
	}
	if s.current != nil {
		alert := *s.current
		st.Alert = &alert
	}
	return st
}

// inQuietHours handles windows that cross midnight, such as 22:00-06:00.
func inQuietHours(d model.DoNotDisturb, now time.Time) bool {
	if !d.Enabled {
		return false
	}
	sh, sm, err := model.ParseClock(d.StartTime)
	if err != nil {
		return false
	}
	eh, em, err := model.ParseClock(d.EndTime)
	if err != nil {
		return false
	}
	start, end := sh*60+sm, eh*60+em
	cur := now.Hour()*60 + now.Minute()
	if start <= end {
		return cur >= start && cur < end
	}
	return cur >= start || cur < end
}
