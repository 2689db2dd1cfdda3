package model

import "time"

// Alert is a one-shot prayer notification.
type Alert struct {
	ID        string        `json:"id"`
	Prayer    PrayerName    `json:"prayer"`
	At        time.Time     `json:"at"`
	Remaining time.Duration `json:"remaining"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Sound     bool          `json:"sound"`
	Vibrate   bool          `json:"vibrate"`
}
