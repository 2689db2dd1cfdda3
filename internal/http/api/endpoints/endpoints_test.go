package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/salah/internal/aladhan"
	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/salah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/salah/internal/importer"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
	"github.com/Nixie-Tech-LLC/salah/internal/qibla"
	"github.com/Nixie-Tech-LLC/salah/internal/scheduler"
	"github.com/Nixie-Tech-LLC/salah/internal/settings"
	"github.com/Nixie-Tech-LLC/salah/internal/storage"
)

const (
	testSecret   = "test-secret"
	testPassword = "correct horse"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeTimings struct {
	mu      sync.Mutex
	queries []aladhan.Query
	dates   []time.Time
}

func (f *fakeTimings) TimingsForDate(_ context.Context, q aladhan.Query, date time.Time) (*model.PrayerTimings, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.dates = append(f.dates, date)
	f.mu.Unlock()
	return &model.PrayerTimings{
		Timings: map[model.PrayerName]string{
			model.Fajr: "05:00", model.Sunrise: "06:15", model.Dhuhr: "12:00",
			model.Asr: "15:30", model.Maghrib: "18:00", model.Isha: "19:30",
		},
		Sunset: "17:57",
		Method: q.Method,
		Fiqh:   q.Fiqh,
		Source: model.SourceLive,
	}, nil
}

type fakeStatus scheduler.Status

func (f fakeStatus) Status() scheduler.Status { return scheduler.Status(f) }

type testEnv struct {
	router   *gin.Engine
	timings  *fakeTimings
	settings *settings.Service
	hadiths  *hadith.Store
	docs     *db.MemoryStore
}

func newTestEnv(t *testing.T, defaults PrayerDefaults) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := middleware.HashPassword(testPassword)
	require.NoError(t, err)

	clk := clock.NewStubClock(now)
	defaults.Clock = clk
	env := &testEnv{
		router:   gin.New(),
		timings:  &fakeTimings{},
		settings: settings.NewService(&settings.MemoryBackend{}),
		docs:     db.NewMemoryStore(clk),
	}
	env.hadiths, err = hadith.SeedStore()
	require.NoError(t, err)

	status := fakeStatus{
		State:     scheduler.Counting,
		Prayer:    model.Asr,
		At:        time.Date(2026, 10, 15, 15, 30, 0, 0, time.UTC),
		Remaining: 3*time.Hour + 30*time.Minute + 5*time.Second,
	}
	im := importer.New(importer.Options{Store: env.docs, Clock: clk, NewRunID: func() string { return "run-1" }})
	st := storage.NewLocalStorage(t.TempDir(), clk)

	api.MountGroup(env.router, api.GroupConfig{Prefix: "/api"},
		PrayerModule(env.timings, status, env.settings, defaults),
		HadithModule(env.hadiths),
		SettingsModule(env.settings),
	)
	api.MountGroup(env.router, api.GroupConfig{Prefix: "/api/admin"},
		AdminAuthModule(testSecret, hash, clk),
	)
	api.MountGroup(env.router, api.GroupConfig{Prefix: "/api/admin", Auth: true, SecretKey: testSecret},
		ImportModule(im, st, env.hadiths),
	)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, url string) *httptest.ResponseRecorder {
	return e.do(t, httptest.NewRequest(http.MethodGet, url, nil))
}

func (e *testEnv) sendJSON(t *testing.T, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGetTimingsWithCoordinates(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	w := env.get(t, "/api/prayer-times?lat=31.52&lon=74.35&method=1&fiqh=hanafi&date=2026-12-01")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[packets.TimingsResponse](t, w)
	assert.Equal(t, "2026-12-01", resp.Date)
	assert.Equal(t, "15:30", resp.Timings["Asr"])
	require.Len(t, resp.Prayers, 6)
	assert.Equal(t, model.Prayer{Name: "ASR", Time: "03:30", Period: "PM", Clock: "15:30"}, resp.Prayers[3])
	assert.Equal(t, "live", resp.Source)

	require.Len(t, env.timings.queries, 1)
	assert.Equal(t, aladhan.Query{Latitude: 31.52, Longitude: 74.35, Method: 1, Fiqh: "hanafi"}, env.timings.queries[0])
}

func TestGetTimingsFallsBackToSettingsThenDefaults(t *testing.T) {
	lat, lon := 24.86, 67.0
	env := newTestEnv(t, PrayerDefaults{Latitude: &lat, Longitude: &lon})

	w := env.get(t, "/api/prayer-times")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, aladhan.Query{Latitude: 24.86, Longitude: 67.0, Method: 2, Fiqh: "shafi"}, env.timings.queries[0])
	assert.Equal(t, now, env.timings.dates[0])

	saved := settings.Defaults()
	sLat, sLon := 21.42, 39.83
	saved.Location.Latitude, saved.Location.Longitude = &sLat, &sLon
	saved.PrayerMethod = 4
	saved.Fiqh = "ahl-e-hadith"
	_, err := env.settings.Update(context.Background(), saved)
	require.NoError(t, err)

	w = env.get(t, "/api/prayer-times")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, aladhan.Query{Latitude: 21.42, Longitude: 39.83, Method: 4, Fiqh: "ahl-e-hadith"}, env.timings.queries[1])
}

func TestGetTimingsErrors(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	tests := []struct {
		url  string
		want string
	}{
		{"/api/prayer-times", "location unavailable"},
		{"/api/prayer-times?lat=10", "lat and lon must be given together"},
		{"/api/prayer-times?lat=abc&lon=1", ""},
		{"/api/prayer-times?lat=95&lon=1", "latitude"},
		{"/api/prayer-times?lat=1&lon=1&fiqh=zahiri", "fiqh"},
		{"/api/prayer-times?lat=1&lon=1&date=tomorrow", "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := env.get(t, tt.url)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
	assert.Empty(t, env.timings.queries)
}

func TestGetNextPrayer(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})
	w := env.get(t, "/api/prayer-times/next")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[packets.NextPrayerResponse](t, w)
	assert.Equal(t, "counting", resp.State)
	assert.Equal(t, "Asr", resp.Prayer)
	assert.Equal(t, int64(12605), resp.RemainingSeconds)
	assert.Equal(t, "03:30:05", resp.Countdown)
	assert.Nil(t, resp.Alert)
}

func TestGetQibla(t *testing.T) {
	lat, lon := 51.5074, -0.1278
	env := newTestEnv(t, PrayerDefaults{Latitude: &lat, Longitude: &lon})

	w := env.get(t, "/api/qibla?lat=31.5204&lon=74.3587")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decodeBody[qibla.Direction](t, w)
	assert.InDelta(t, 260.37, d.Bearing, 0.02)
	assert.Equal(t, "W", d.Compass)
	assert.InDelta(t, 3598, d.DistanceKm, 1)

	w = env.get(t, "/api/qibla")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SE", decodeBody[qibla.Direction](t, w).Compass)

	w = env.get(t, "/api/qibla?lat=95&lon=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.get(t, "/api/qibla?lon=10")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQiblaWithoutLocation(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})
	w := env.get(t, "/api/qibla")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "location unavailable")
}

func TestSearchHadiths(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	w := env.get(t, "/api/hadiths?q=prayer&book=sahih-muslim")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[packets.HadithSearchResponse](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "muslim_4_1337", resp.Hadiths[0].ID)

	w = env.get(t, "/api/hadiths?q=nothing-matches-this")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"hadiths":[]}`, w.Body.String())
}

func TestGetHadith(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	w := env.get(t, "/api/hadiths/bukhari_1_1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Umar bin Al-Khattab", decodeBody[model.HadithRecord](t, w).Narrator)

	w = env.get(t, "/api/hadiths/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"hadith not found"}`, w.Body.String())

	w = env.get(t, "/api/hadiths/books")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]model.Book](t, w), 6)
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	w := env.get(t, "/api/settings")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, settings.Defaults(), decodeBody[model.Settings](t, w))

	next := settings.Defaults()
	next.Theme = "dark"
	next.Notifications.Fajr = false
	w = env.sendJSON(t, http.MethodPut, "/api/settings", next)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.get(t, "/api/settings")
	got := decodeBody[model.Settings](t, w)
	assert.Equal(t, "dark", got.Theme)
	assert.False(t, got.Notifications.Fajr)

	bad := settings.Defaults()
	bad.Fiqh = "unknown"
	w = env.sendJSON(t, http.MethodPut, "/api/settings", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodPost, "/api/settings/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "auto", decodeBody[model.Settings](t, w).Theme)
}

func login(t *testing.T, env *testEnv) string {
	t.Helper()
	w := env.sendJSON(t, http.MethodPost, "/api/admin/auth/login", packets.LoginRequest{Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[packets.LoginResponse](t, w)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func uploadRequest(t *testing.T, token, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})

	w := env.sendJSON(t, http.MethodPost, "/api/admin/auth/login", packets.LoginRequest{Password: "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.sendJSON(t, http.MethodPost, "/api/admin/auth/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NotEmpty(t, login(t, env))
}

func TestAdminImport(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})
	file := `[
		{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":1,"translation_en":"Actions are judged by intentions."},
		{"collection":"Sahih al-Bukhari","book_number":1,"hadith_number":2,"translation_en":"Revelation came like the bright daylight."}
	]`

	w := env.do(t, uploadRequest(t, "", "bukhari.json", file))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, env)
	w = env.do(t, uploadRequest(t, token, "bukhari.json", file))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[packets.ImportResponse](t, w)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.WriteBatches)
	assert.Equal(t, "bukhari_20261015_120000.json", resp.File)

	n, err := env.docs.Count(context.Background(), importer.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, env.hadiths.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/imports/verify?n=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	verify := decodeBody[packets.VerifyResponse](t, w)
	assert.Equal(t, 2, verify.Count)
	assert.Len(t, verify.Samples, 1)
}

func TestAdminImportServesStoredDocumentIDs(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})
	token := login(t, env)
	file := `[
		{"id":"custom-1","collection":"Sahih Muslim","book_number":4,"hadith_number":1337,"translation_en":"Prayer in congregation."},
		{"collection":"Sahih Muslim","book_number":5,"hadith_number":2219,"translation_en":"Charity does not decrease wealth."}
	]`
	w := env.do(t, uploadRequest(t, token, "muslim.json", file))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, id := range []string{"bukhari_4_1337", "bukhari_5_2219"} {
		_, ok := env.docs.Get(importer.DefaultCollection, id)
		assert.True(t, ok, "stored %s", id)

		w = env.get(t, "/api/hadiths/"+id)
		assert.Equal(t, http.StatusOK, w.Code, "served %s", id)
	}
	w = env.get(t, "/api/hadiths/custom-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.get(t, "/api/hadiths/muslim_5_2219")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminImportRejectsInvalidFile(t *testing.T) {
	env := newTestEnv(t, PrayerDefaults{})
	token := login(t, env)

	w := env.do(t, uploadRequest(t, token, "bad.json", `[{"collection":"","book_number":1,"hadith_number":1,"translation_en":"x"}]`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid hadith record")
	assert.Equal(t, 7, env.hadiths.Len(), "search keeps serving the previous records")
}
