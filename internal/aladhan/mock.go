package aladhan

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

// mockTimings is the fixed schedule served when the API is unavailable.
var mockTimings = Timings{
	Fajr:    "05:30",
	Sunrise: "06:45",
	Dhuhr:   "12:15",
	Asr:     "15:45",
	Sunset:  "18:27",
	Maghrib: "18:30",
	Isha:    "20:00",
}

// MockResponse builds the synthetic envelope used as a fallback.
func MockResponse(q Query, date time.Time) Response {
	return Response{
		Code:   200,
		Status: "OK",
		Data: Data{
			Timings: mockTimings,
			Date: DateInfo{
				Readable:  date.Format("02 Jan 2006"),
				Timestamp: strconv.FormatInt(date.Unix(), 10),
				Hijri: HijriDate{
					Date:        "01-01-1446",
					Day:         "1",
					Month:       Month{Number: 1, En: "Muḥarram", Ar: "مُحَرَّم"},
					Year:        "1446",
					Designation: HijriDesignation{Abbreviated: "AH", Expanded: "Anno Hegirae"},
				},
				Gregorian: GregorianDate{
					Date:  apiDate(date),
					Day:   date.Format("02"),
					Month: Month{Number: int(date.Month()), En: date.Month().String()},
					Year:  date.Format("2006"),
				},
			},
			Meta: Meta{
				Latitude:  q.Latitude,
				Longitude: q.Longitude,
				Timezone:  date.Location().String(),
				Method:    MethodInfo{ID: q.Method, Name: methodName(q.Method)},
				School:    schoolName(q.School()),
			},
		},
	}
}

func (f *Fetcher) mock(q Query, date time.Time) *model.PrayerTimings {
	body, err := json.Marshal(MockResponse(q, date))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode mock prayer times")
	}
	t, err := decode(body, q)
	if err != nil {
		// mockTimings is static and always decodes
		log.Error().Err(err).Msg("failed to decode mock prayer times")
		t = &model.PrayerTimings{Timings: map[model.PrayerName]string{}}
	}
	t.Source = model.SourceMock
	t.FetchedAt = f.clock.Now()
	return t
}

var methodNames = map[int]string{
	1:  "University of Islamic Sciences, Karachi",
	2:  "Islamic Society of North America (ISNA)",
	3:  "Muslim World League",
	4:  "Umm Al-Qura University, Makkah",
	5:  "Egyptian General Authority of Survey",
	12: "Union Organization islamic de France",
}

func methodName(id int) string {
	if n, ok := methodNames[id]; ok {
		return n
	}
	return "Custom"
}

func schoolName(school int) string {
	if school == 1 {
		return "HANAFI"
	}
	return "STANDARD"
}
