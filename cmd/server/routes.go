package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/salah/internal/importer"
	"github.com/Nixie-Tech-LLC/salah/internal/scheduler"
	"github.com/Nixie-Tech-LLC/salah/internal/settings"
	"github.com/Nixie-Tech-LLC/salah/internal/storage"
)

// services is everything the routes need.
type services struct {
	timings   endpoints.TimingsProvider
	scheduler *scheduler.Scheduler
	settings  *settings.Service
	hadiths   *hadith.Store
	importer  *importer.Importer
	storage   storage.Storage
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc services) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "scheduler": svc.scheduler.Status().State})
	})

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		endpoints.PrayerModule(svc.timings, svc.scheduler, svc.settings, endpoints.PrayerDefaults{
			Latitude:  cfg.DefaultLatitude,
			Longitude: cfg.DefaultLongitude,
			Location:  cfg.Timezone,
		}),
		endpoints.HadithModule(svc.hadiths),
		endpoints.SettingsModule(svc.settings),
	)

	if !cfg.AdminEnabled() {
		return
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		endpoints.AdminAuthModule(cfg.JWTSecret, cfg.AdminPasswordHash, nil),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		endpoints.ImportModule(svc.importer, svc.storage, svc.hadiths),
	)
}
