package model

// Settings is the user's preference document, replaced wholesale on update.
type Settings struct {
	Notifications NotificationSettings  `json:"notifications"`
	Location      LocationSettings      `json:"location"`
	PrayerMethod  int                   `json:"prayerMethod"   validate:"min=0,max=23"`
	Fiqh          string                `json:"fiqh"           validate:"oneof=shafi hanafi ahl-e-hadith"`
	Theme         string                `json:"theme"          validate:"oneof=auto light dark"`
	Language      string                `json:"language"`
	SoundEnabled  bool                  `json:"soundEnabled"`
	VibrationOn   bool                  `json:"vibrationEnabled"`
	HijriCalendar bool                  `json:"hijriCalendar"`
	ShowSeconds   bool                  `json:"showSeconds"`
	MilitaryTime  bool                  `json:"militaryTime"`
	AutoRefresh   bool                  `json:"autoRefresh"`
	Accessibility AccessibilitySettings `json:"accessibility"`
}

type NotificationSettings struct {
	Fajr           bool         `json:"fajr"`
	Dhuhr          bool         `json:"dhuhr"`
	Asr            bool         `json:"asr"`
	Maghrib        bool         `json:"maghrib"`
	Isha           bool         `json:"isha"`
	Sunrise        bool         `json:"sunrise"`
	AdvanceMinutes int          `json:"advanceMinutes" validate:"min=0,max=120"`
	AdhanSound     bool         `json:"adhanSound"`
	ReminderSound  bool         `json:"reminderSound"`
	SilentMode     bool         `json:"silentMode"`
	DoNotDisturb   DoNotDisturb `json:"doNotDisturb"`
}

type DoNotDisturb struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"endTime"   validate:"omitempty,datetime=15:04"`
}

type LocationSettings struct {
	AutoDetect bool     `json:"autoDetect"`
	Latitude   *float64 `json:"latitude"  validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Timezone   string   `json:"timezone"  validate:"omitempty,timezone"`
}

type AccessibilitySettings struct {
	LargeText    bool `json:"largeText"`
	HighContrast bool `json:"highContrast"`
	ReduceMotion bool `json:"reduceMotion"`
}

// Enabled reports whether alerts are switched on for the prayer.
func (n NotificationSettings) Enabled(name PrayerName) bool {
	switch name {
	case Fajr:
		return n.Fajr
	case Sunrise:
		return n.Sunrise
	case Dhuhr:
		return n.Dhuhr
	case Asr:
		return n.Asr
	case Maghrib:
		return n.Maghrib
	case Isha:
		return n.Isha
	}
	return false
}
