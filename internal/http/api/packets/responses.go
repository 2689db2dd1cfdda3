package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TimingsResponse struct {
	Date      string            `json:"date"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Timings   map[string]string `json:"timings"`
	Prayers   []model.Prayer    `json:"prayers"`
	Sunset    string            `json:"sunset"`
	Hijri     string            `json:"hijri"`
	Gregorian string            `json:"gregorian"`
	Timezone  string            `json:"timezone"`
	Method    int               `json:"method"`
	Fiqh      string            `json:"fiqh"`
	Source    string            `json:"source"`
}

type NextPrayerResponse struct {
	State            string       `json:"state"`
	Prayer           string       `json:"prayer,omitempty"`
	At               *time.Time   `json:"at,omitempty"`
	RemainingSeconds int64        `json:"remaining_seconds"`
	Countdown        string       `json:"countdown"`
	Alert            *model.Alert `json:"alert,omitempty"`
}

type HadithSearchResponse struct {
	Count   int                  `json:"count"`
	Hadiths []model.HadithRecord `json:"hadiths"`
}

type ImportResponse struct {
	RunID         string `json:"run_id"`
	File          string `json:"file"`
	Collection    string `json:"collection"`
	Deleted       int    `json:"deleted"`
	DeleteBatches int    `json:"delete_batches"`
	Imported      int    `json:"imported"`
	WriteBatches  int    `json:"write_batches"`
}

type VerifyResponse struct {
	Collection string        `json:"collection"`
	Count      int           `json:"count"`
	Samples    []db.Document `json:"samples"`
}
