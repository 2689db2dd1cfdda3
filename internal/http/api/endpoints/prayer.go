package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/aladhan"
	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
	"github.com/Nixie-Tech-LLC/salah/internal/qibla"
	"github.com/Nixie-Tech-LLC/salah/internal/scheduler"
	"github.com/Nixie-Tech-LLC/salah/internal/settings"
)

// TimingsProvider fetches one day's timings.
type TimingsProvider interface {
	TimingsForDate(ctx context.Context, q aladhan.Query, date time.Time) (*model.PrayerTimings, error)
}

// StatusProvider reports the live countdown.
type StatusProvider interface {
	Status() scheduler.Status
}

// PrayerDefaults fill in what neither the request nor saved settings provide.
type PrayerDefaults struct {
	Latitude  *float64
	Longitude *float64
	Location  *time.Location
	Clock     clock.Clock
}

type PrayerController struct {
	timings  TimingsProvider
	status   StatusProvider
	settings *settings.Service
	defaults PrayerDefaults
}

// PrayerModule mounts the public /prayer-times and /qibla endpoints.
func PrayerModule(timings TimingsProvider, status StatusProvider, svc *settings.Service, defaults PrayerDefaults) api.Module {
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	if defaults.Clock == nil {
		defaults.Clock = clock.RealClock{}
	}
	ctl := &PrayerController{timings: timings, status: status, settings: svc, defaults: defaults}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/prayer-times", ctl.getTimings)
		c.PUBLIC_GET("/prayer-times/next", ctl.getNext)
		c.PUBLIC_GET("/qibla", ctl.getQibla)
	})
}

// GET /api/prayer-times?lat=&lon=&method=&fiqh=&date=
func (p *PrayerController) getTimings(ctx *gin.Context) (any, *api.APIError) {
	var request packets.TimingsQuery
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	saved, err := p.settings.Load(ctx.Request.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not load settings, using defaults")
	}

	q, err := p.query(request, saved)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	date := p.defaults.Clock.Now().In(p.defaults.Location)
	if request.Date != "" {
		if date, err = parseDate(request.Date, p.defaults.Location); err != nil {
			return nil, api.BadRequest(err.Error())
		}
	}

	t, err := p.timings.TimingsForDate(ctx.Request.Context(), q, date)
	if errors.Is(err, aladhan.ErrInvalidQuery) {
		return nil, api.BadRequest(err.Error())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get prayer times")
		return nil, api.Internal("could not get prayer times")
	}

	out := packets.TimingsResponse{
		Date:      date.Format("2006-01-02"),
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Timings:   make(map[string]string, len(t.Timings)),
		Prayers:   t.DisplayPrayers(),
		Sunset:    t.Sunset,
		Hijri:     t.Hijri,
		Gregorian: t.Gregorian,
		Timezone:  t.Timezone,
		Method:    t.Method,
		Fiqh:      t.Fiqh,
		Source:    string(t.Source),
	}
	for name, v := range t.Timings {
		out.Timings[string(name)] = v
	}
	return out, nil
}

// GET /api/prayer-times/next
func (p *PrayerController) getNext(ctx *gin.Context) (any, *api.APIError) {
	st := p.status.Status()
	out := packets.NextPrayerResponse{
		State:            st.State.String(),
		Prayer:           string(st.Prayer),
		RemainingSeconds: int64(st.Remaining / time.Second),
		Countdown:        formatCountdown(st.Remaining),
		Alert:            st.Alert,
	}
	if !st.At.IsZero() {
		at := st.At
		out.At = &at
	}
	return out, nil
}

// GET /api/qibla?lat=&lon=
func (p *PrayerController) getQibla(ctx *gin.Context) (any, *api.APIError) {
	var request packets.QiblaQuery
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	saved, err := p.settings.Load(ctx.Request.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not load settings, using defaults")
	}

	lat, lon, err := p.coordinates(request.Latitude, request.Longitude, saved)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}
	d, err := qibla.From(lat, lon)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}
	return d, nil
}

// query builds the timings query, taking method and fiqh from the request
// over saved settings.
func (p *PrayerController) query(r packets.TimingsQuery, s model.Settings) (aladhan.Query, error) {
	q := aladhan.Query{Method: s.PrayerMethod, Fiqh: s.Fiqh}
	if r.Method != nil {
		q.Method = *r.Method
	}
	if r.Fiqh != "" {
		q.Fiqh = r.Fiqh
	}

	var err error
	q.Latitude, q.Longitude, err = p.coordinates(r.Latitude, r.Longitude, s)
	return q, err
}

// coordinates resolves a location from the request, then saved settings,
// then server defaults.
func (p *PrayerController) coordinates(lat, lon *float64, s model.Settings) (float64, float64, error) {
	switch {
	case lat != nil && lon != nil:
		return *lat, *lon, nil
	case lat != nil || lon != nil:
		return 0, 0, errors.New("lat and lon must be given together")
	case s.Location.Latitude != nil && s.Location.Longitude != nil:
		return *s.Location.Latitude, *s.Location.Longitude, nil
	case p.defaults.Latitude != nil && p.defaults.Longitude != nil:
		return *p.defaults.Latitude, *p.defaults.Longitude, nil
	}
	return 0, 0, config.ErrLocationUnavailable
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if d, err := time.ParseInLocation(layout, v, loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

