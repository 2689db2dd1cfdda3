package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

const (
	DefaultBaseURL        = "https://api.aladhan.com/v1"
	DefaultCacheTTL       = 2 * time.Hour
	DefaultMinInterval    = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = time.Second
	DefaultRateLimitDelay = 5 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Options configures a Fetcher. Zero values select the defaults above.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Cache          Cache
	Clock          clock.Clock
	CacheTTL       time.Duration
	MinInterval    time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RateLimitDelay time.Duration

	// Sleep waits for d or until ctx is done. Defaults to a timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fetcher retrieves a day's prayer timings from the Aladhan API.
//
// Results are cached, requests are spaced at least MinInterval apart and a
// call that arrives while another request is in flight is answered with
// mock timings instead of waiting.
type Fetcher struct {
	baseURL        string
	client         *http.Client
	cache          Cache
	clock          clock.Clock
	cacheTTL       time.Duration
	minInterval    time.Duration
	maxRetries     int
	retryDelay     time.Duration
	rateLimitDelay time.Duration
	sleep          func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	inFlight    bool
	lastRequest time.Time
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		baseURL:        strings.TrimSuffix(opts.BaseURL, "/"),
		client:         opts.HTTPClient,
		cache:          opts.Cache,
		clock:          opts.Clock,
		cacheTTL:       opts.CacheTTL,
		minInterval:    opts.MinInterval,
		maxRetries:     opts.MaxRetries,
		retryDelay:     opts.RetryDelay,
		rateLimitDelay: opts.RateLimitDelay,
		sleep:          opts.Sleep,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: DefaultTimeout}
	}
	if f.clock == nil {
		f.clock = clock.RealClock{}
	}
	if f.cache == nil {
		f.cache = NewMemoryCache(f.clock)
	}
	if f.cacheTTL <= 0 {
		f.cacheTTL = DefaultCacheTTL
	}
	if f.minInterval <= 0 {
		f.minInterval = DefaultMinInterval
	}
	if f.maxRetries <= 0 {
		f.maxRetries = DefaultMaxRetries
	}
	if f.retryDelay <= 0 {
		f.retryDelay = DefaultRetryDelay
	}
	if f.rateLimitDelay <= 0 {
		f.rateLimitDelay = DefaultRateLimitDelay
	}
	if f.sleep == nil {
		f.sleep = sleepContext
	}
	return f
}

// Timings returns today's timings for q.
func (f *Fetcher) Timings(ctx context.Context, q Query) (*model.PrayerTimings, error) {
	return f.TimingsForDate(ctx, q, f.clock.Now())
}

// TimingsForDate returns the timings for the calendar day of date.
//
// Network, rate-limit and response-shape failures are not returned: the
// result falls back to mock data with Source set to model.SourceMock. Only an
// invalid query or a cancelled context produce an error.
func (f *Fetcher) TimingsForDate(ctx context.Context, q Query, date time.Time) (*model.PrayerTimings, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.normalized()
	key := q.cacheKey(date)

	if body, ok := f.cached(ctx, key); ok {
		t, err := decode(body, q)
		if err == nil {
			log.Debug().Str("key", key).Msg("using cached prayer times")
			t.Source = model.SourceCache
			return t, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached prayer times")
	}

	if !f.acquire() {
		log.Info().Str("key", key).Msg("request in progress, using mock prayer times")
		return f.mock(q, date), nil
	}
	defer f.release()

	body, err := f.fetchWithRetry(ctx, f.url(q, date))
	if err == nil {
		var t *model.PrayerTimings
		if t, err = decode(body, q); err == nil {
			if cerr := f.cache.Set(ctx, key, body, f.cacheTTL); cerr != nil {
				log.Warn().Err(cerr).Str("key", key).Msg("failed to cache prayer times")
			}
			t.Source = model.SourceLive
			t.FetchedAt = f.clock.Now()
			return t, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Warn().Err(err).Str("key", key).Msg("timings API failed, using mock prayer times")
	return f.mock(q, date), nil
}

// ClearCache empties the cache when it is process-local.
func (f *Fetcher) ClearCache() {
	if m, ok := f.cache.(*MemoryCache); ok {
		m.Clear()
	}
}

// CacheSize reports the number of process-local cache entries, or -1 for external caches.
func (f *Fetcher) CacheSize() int {
	if m, ok := f.cache.(*MemoryCache); ok {
		return m.Len()
	}
	return -1
}

func (f *Fetcher) cached(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("prayer times cache read failed")
		return nil, false
	}
	return body, ok
}

func (f *Fetcher) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return false
	}
	f.inFlight = true
	return true
}

func (f *Fetcher) release() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

func (f *Fetcher) url(q Query, date time.Time) string {
	return fmt.Sprintf("%s/timings/%s?%s", f.baseURL, apiDate(date), q.values().Encode())
}

// throttle waits until MinInterval has passed since the previous request.
func (f *Fetcher) throttle(ctx context.Context) error {
	f.mu.Lock()
	last := f.lastRequest
	f.mu.Unlock()

	if !last.IsZero() {
		if wait := f.minInterval - f.clock.Now().Sub(last); wait > 0 {
			log.Info().Dur("wait", wait).Msg("rate limiting timings request")
			if err := f.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	f.mu.Lock()
	f.lastRequest = f.clock.Now()
	f.mu.Unlock()
	return nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	if err := f.throttle(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		body, status, err := f.get(ctx, url)
		var delay time.Duration
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", ErrNetwork, err)
			delay = f.retryDelay * time.Duration(attempt)
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			delay = f.rateLimitDelay * time.Duration(attempt)
		default:
			lastErr = fmt.Errorf("%w: HTTP %d", ErrNetwork, status)
			delay = f.retryDelay * time.Duration(attempt)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == f.maxRetries {
			break
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Dur("retry_in", delay).Msg("timings request failed")
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// decode validates the envelope and converts it into model timings for q.
func decode(body []byte, q Query) (*model.PrayerTimings, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: code %d status %q", ErrInvalidResponse, resp.Code, resp.Status)
	}

	raw := map[model.PrayerName]string{
		model.Fajr:    resp.Data.Timings.Fajr,
		model.Sunrise: resp.Data.Timings.Sunrise,
		model.Dhuhr:   resp.Data.Timings.Dhuhr,
		model.Asr:     resp.Data.Timings.Asr,
		model.Maghrib: resp.Data.Timings.Maghrib,
		model.Isha:    resp.Data.Timings.Isha,
	}
	timings := make(map[model.PrayerName]string, len(raw))
	for name, value := range raw {
		h, m, err := model.ParseClock(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, name, err)
		}
		timings[name] = fmt.Sprintf("%02d:%02d", h, m)
	}

	sunset := ""
	if h, m, err := model.ParseClock(resp.Data.Timings.Sunset); err == nil {
		sunset = fmt.Sprintf("%02d:%02d", h, m)
	}

	t := &model.PrayerTimings{
		Timings:   timings,
		Sunset:    sunset,
		Hijri:     resp.Data.Date.Hijri.Format(),
		Gregorian: resp.Data.Date.Gregorian.Date,
		Timezone:  resp.Data.Meta.Timezone,
		Method:    q.Method,
		Fiqh:      q.Fiqh,
		Raw:       body,
	}
	applyFiqh(t, q)
	return t, nil
}

// applyFiqh sets Maghrib to sunset for Ahl-e-Hadith.
func applyFiqh(t *model.PrayerTimings, q Query) {
	if q.Fiqh == FiqhAhleHadith && t.Sunset != "" {
		t.Timings[model.Maghrib] = t.Sunset
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
