package aladhan

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	FiqhShafi      = "shafi"
	FiqhHanafi     = "hanafi"
	FiqhAhleHadith = "ahl-e-hadith"
)

// DefaultMethod is ISNA.
const DefaultMethod = 2

// Query identifies one location and calculation convention.
type Query struct {
	Latitude  float64
	Longitude float64
	Method    int
	Fiqh      string
}

// School is the API's Asr juristic setting: 1 for Hanafi, 0 otherwise.
func (q Query) School() int {
	if q.Fiqh == FiqhHanafi {
		return 1
	}
	return 0
}

func (q Query) Validate() error {
	if q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidQuery, q.Latitude)
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidQuery, q.Longitude)
	}
	if q.Method < 0 {
		return fmt.Errorf("%w: method %d", ErrInvalidQuery, q.Method)
	}
	switch q.Fiqh {
	case "", FiqhShafi, FiqhHanafi, FiqhAhleHadith:
	default:
		return fmt.Errorf("%w: fiqh %q", ErrInvalidQuery, q.Fiqh)
	}
	return nil
}

func (q Query) normalized() Query {
	if q.Fiqh == "" {
		q.Fiqh = FiqhShafi
	}
	return q
}

// cacheKey is lat_lon_method_school, scoped to the requested day.
func (q Query) cacheKey(date time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%d_%s",
		strconv.FormatFloat(q.Latitude, 'f', -1, 64),
		strconv.FormatFloat(q.Longitude, 'f', -1, 64),
		q.Method, q.School(), apiDate(date))
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	v.Set("method", strconv.Itoa(q.Method))
	v.Set("school", strconv.Itoa(q.School()))
	return v
}

// apiDate formats a day as DD-MM-YYYY.
func apiDate(t time.Time) string {
	return t.Format("02-01-2006")
}
