package endpoints

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
	"github.com/Nixie-Tech-LLC/salah/internal/settings"
)

type SettingsController struct {
	svc *settings.Service
}

// SettingsModule mounts /settings. The document belongs to the single
// device user, so the routes are public.
func SettingsModule(svc *settings.Service) api.Module {
	ctl := &SettingsController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/settings", ctl.get)
		c.PUBLIC_PUT("/settings", ctl.update)
		c.PUBLIC_POST("/settings/reset", ctl.reset)
	})
}

func (s *SettingsController) get(ctx *gin.Context) (any, *api.APIError) {
	v, err := s.svc.Load(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings")
		return nil, api.Internal("could not load settings")
	}
	return v, nil
}

// PUT /api/settings replaces the whole document.
func (s *SettingsController) update(ctx *gin.Context) (any, *api.APIError) {
	var request model.Settings
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	v, err := s.svc.Update(ctx.Request.Context(), request)
	if errors.Is(err, settings.ErrInvalid) {
		return nil, api.BadRequest(err.Error())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to save settings")
		return nil, api.Internal("could not save settings")
	}
	return v, nil
}

func (s *SettingsController) reset(ctx *gin.Context) (any, *api.APIError) {
	v, err := s.svc.Reset(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to reset settings")
		return nil, api.Internal("could not reset settings")
	}
	return v, nil
}
