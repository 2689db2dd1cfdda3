package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/aladhan"
	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/salah/internal/importer"
	"github.com/Nixie-Tech-LLC/salah/internal/notify"
	"github.com/Nixie-Tech-LLC/salah/internal/redis"
	"github.com/Nixie-Tech-LLC/salah/internal/scheduler"
	"github.com/Nixie-Tech-LLC/salah/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		timingsCache    aladhan.Cache
		settingsBackend settings.Backend = &settings.MemoryBackend{}
	)
	if cfg.RedisAddress != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis init")
		}
		defer rdb.Close()
		timingsCache = redis.NewTimingsCache(rdb)
		settingsBackend = redis.NewSettingsBackend(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set, keeping cache and settings in memory")
	}

	var docs db.DocumentStore
	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db init")
		}
		defer conn.Close()
		if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		docs = db.NewStore(conn)
	} else {
		log.Warn().Msg("DATABASE_URL not set, imported documents are kept in memory")
		docs = db.NewMemoryStore(nil)
	}

	notifier := notify.Multi{notify.LogNotifier{}}
	var mqttClient mqtt.Client
	if cfg.MQTTBrokerURL != "" {
		mqttClient, err = notify.NewMQTTClient(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt init")
		}
		defer notify.Disconnect(mqttClient)
		notifier = append(notifier, notify.NewMQTTNotifier(mqttClient, cfg.MQTTTopic))
	}

	hadiths, err := loadHadiths(cfg.HadithDataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("hadith data")
	}

	fetcher := aladhan.NewFetcher(aladhan.Options{
		BaseURL:    cfg.AladhanBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Cache:      timingsCache,
	})

	settingsSvc := settings.NewService(settingsBackend)
	initial, err := settingsSvc.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("using default settings")
	}

	sched := scheduler.New(scheduler.Options{
		Notifier: notifier,
		Location: cfg.Timezone,
	})
	refresher := scheduler.NewRefresher(scheduler.RefresherOptions{
		Fetcher:   fetcher,
		Scheduler: sched,
		Location:  cfg.Timezone,
		Latitude:  cfg.DefaultLatitude,
		Longitude: cfg.DefaultLongitude,
	}, initial)
	settingsSvc.OnChange(refresher.SettingsChanged)

	go sched.Run(ctx)
	go refresher.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	RegisterRoutes(r, cfg, services{
		timings:   fetcher,
		scheduler: sched,
		settings:  settingsSvc,
		hadiths:   hadiths,
		importer:  importer.New(importer.Options{Store: docs}),
		storage:   InitStorage(cfg),
	})
	if !cfg.AdminEnabled() {
		log.Warn().Msg("JWT_SECRET or ADMIN_PASSWORD_HASH not set, admin routes disabled")
	}

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func loadHadiths(path string) (*hadith.Store, error) {
	if path == "" {
		return hadith.SeedStore()
	}
	records, err := hadith.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("records", len(records)).Msg("loaded hadith data")
	return hadith.NewStore(records), nil
}
