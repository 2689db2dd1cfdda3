package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

var ErrInvalid = errors.New("invalid settings")

var validate = validator.New()

// Backend persists the serialized settings document.
type Backend interface {
	// Load returns nil data when nothing has been saved.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Defaults is the document a fresh install starts with.
func Defaults() model.Settings {
	return model.Settings{
		Notifications: model.NotificationSettings{
			Fajr:           true,
			Dhuhr:          true,
			Asr:            true,
			Maghrib:        true,
			Isha:           true,
			AdvanceMinutes: 10,
			AdhanSound:     true,
			ReminderSound:  true,
			DoNotDisturb: model.DoNotDisturb{
				StartTime: "22:00",
				EndTime:   "06:00",
			},
		},
		Location:      model.LocationSettings{AutoDetect: true},
		PrayerMethod:  2,
		Fiqh:          "shafi",
		Theme:         "auto",
		Language:      "en",
		SoundEnabled:  true,
		VibrationOn:   true,
		HijriCalendar: true,
		AutoRefresh:   true,
	}
}

// Service loads and stores the single settings document.
type Service struct {
	backend Backend

	mu        sync.Mutex
	listeners []func(model.Settings)
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// OnChange registers fn to receive every saved document.
func (s *Service) OnChange(fn func(model.Settings)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load overlays the saved document on the defaults. A corrupt document is
// logged and ignored.
func (s *Service) Load(ctx context.Context) (model.Settings, error) {
	out := Defaults()
	data, err := s.backend.Load(ctx)
	if err != nil {
		return out, fmt.Errorf("loading settings: %w", err)
	}
	if len(data) == 0 {
		return out, nil
	}
	saved := Defaults()
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Error().Err(err).Msg("Error loading settings, using defaults")
		return out, nil
	}
	return saved, nil
}

// Update validates and stores next in place of whatever was saved.
func (s *Service) Update(ctx context.Context, next model.Settings) (model.Settings, error) {
	if err := Validate(next); err != nil {
		return model.Settings{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return model.Settings{}, err
	}
	return next, nil
}

// Reset stores the defaults.
func (s *Service) Reset(ctx context.Context) (model.Settings, error) {
	d := Defaults()
	if err := s.save(ctx, d); err != nil {
		return model.Settings{}, err
	}
	return d, nil
}

func (s *Service) save(ctx context.Context, v model.Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	s.mu.Lock()
	listeners := append([]func(model.Settings){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(v)
	}
	return nil
}

// Validate checks a settings document against its struct tags.
func Validate(v model.Settings) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// MemoryBackend keeps the document in process memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryBackend) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}
