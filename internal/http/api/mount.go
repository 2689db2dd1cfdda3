package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/http/middleware"
)

// Module attaches a feature's endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig describes one route group.
type GroupConfig struct {
	Prefix string
	// Auth requires a bearer token signed with SecretKey.
	Auth       bool
	SecretKey  string
	Middleware []gin.HandlerFunc
}

// MountGroup creates a group under cfg.Prefix and lets every module register
// its routes on it. Group middleware runs before the token check.
func MountGroup(parent gin.IRouter, cfg GroupConfig, modules ...Module) *gin.RouterGroup {
	grp := parent.Group(cfg.Prefix, cfg.Middleware...)
	if cfg.Auth {
		if cfg.SecretKey == "" {
			log.Fatal().Str("prefix", cfg.Prefix).Msg("auth group mounted without a secret")
		}
		grp.Use(middleware.JWTMiddleware(cfg.SecretKey))
	}

	c := &Controller{Group: grp}
	for _, m := range modules {
		m.Mount(c)
	}
	log.Debug().
		Str("prefix", grp.BasePath()).
		Bool("auth", cfg.Auth).
		Int("modules", len(modules)).
		Msg("mounted route group")
	return grp
}
