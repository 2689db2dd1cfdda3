package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/salah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/salah/internal/importer"
	"github.com/Nixie-Tech-LLC/salah/internal/storage"
)

// AdminAuthModule mounts POST /auth/login, which trades the admin password
// for a JWT.
func AdminAuthModule(jwtSecret, passwordHash string, clk clock.Clock) api.Module {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/login", func(ctx *gin.Context) (any, *api.APIError) {
			var request packets.LoginRequest
			if err := ctx.ShouldBindJSON(&request); err != nil {
				return nil, api.BadRequest(err.Error())
			}
			if passwordHash == "" || !middleware.CheckPassword(passwordHash, request.Password) {
				log.Warn().Str("client_ip", ctx.ClientIP()).Msg("admin login failed")
				return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
			}

			now := clk.Now()
			token, err := middleware.GenerateJWT(middleware.AdminSubject, jwtSecret, now)
			if err != nil {
				return nil, api.Internal("could not generate token")
			}
			return packets.LoginResponse{Token: token, ExpiresAt: now.Add(middleware.TokenTTL)}, nil
		})
	})
}

type ImportController struct {
	importer *importer.Importer
	storage  storage.Storage
	hadiths  *hadith.Store
}

// ImportModule mounts the authenticated /imports endpoints. A successful
// import also replaces the records served by the hadith search.
func ImportModule(im *importer.Importer, st storage.Storage, hadiths *hadith.Store) api.Module {
	ctl := &ImportController{importer: im, storage: st, hadiths: hadiths}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/imports", ctl.createImport)
		c.GET("/imports/verify", ctl.verify)
	})
}

// POST /api/admin/imports (multipart "file")
func (i *ImportController) createImport(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, api.BadRequest("file is required")
	}

	key, err := i.storage.SaveFile(ctx.Request.Context(), fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store import file")
		return nil, api.Internal("could not store file")
	}

	rc, err := i.storage.Open(ctx.Request.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to reopen import file")
		return nil, api.Internal("could not read stored file")
	}
	defer rc.Close()

	records, err := hadith.ParseRecords(rc)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	rep, err := i.importer.Run(ctx.Request.Context(), records)
	if err != nil {
		return nil, &api.APIError{
			Code:    http.StatusInternalServerError,
			Message: "import failed after " + strconv.Itoa(rep.WriteBatches) + " batches: " + err.Error(),
		}
	}
	if i.hadiths != nil {
		i.importer.AssignIDs(records)
		i.hadiths.Replace(records)
	}

	log.Info().Str("admin", admin.Subject).Str("file", key).Str("run_id", rep.RunID).Msg("import via API")
	return packets.ImportResponse{
		RunID:         rep.RunID,
		File:          key,
		Collection:    rep.Collection,
		Deleted:       rep.Deleted,
		DeleteBatches: rep.DeleteBatches,
		Imported:      rep.Imported,
		WriteBatches:  rep.WriteBatches,
	}, nil
}

// GET /api/admin/imports/verify?n=3
func (i *ImportController) verify(ctx *gin.Context, _ *middleware.Admin) (any, *api.APIError) {
	n := 3
	if raw := ctx.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, api.BadRequest("n must be a non-negative integer")
		}
		n = v
	}
	v, err := i.importer.Verify(ctx.Request.Context(), n)
	if err != nil {
		log.Error().Err(err).Msg("Failed to verify import")
		return nil, api.Internal("could not verify collection")
	}
	return packets.VerifyResponse{Collection: v.Collection, Count: v.Count, Samples: v.Samples}, nil
}
