package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/storage"
)

// InitStorage selects and returns the configured storage backend for uploaded import files.
func InitStorage(cfg *config.Config) storage.Storage {
	if cfg.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(storage.SpacesOptions{
			Endpoint:  cfg.SpacesEndpoint,
			Region:    cfg.SpacesRegion,
			Bucket:    cfg.SpacesBucket,
			CDNURL:    cfg.SpacesCDNURL,
			AccessKey: cfg.SpacesAccessKey,
			SecretKey: cfg.SpacesSecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
		log.Info().Str("bucket", cfg.SpacesBucket).Msg("Using DigitalOcean Spaces storage")
		return spacesStorage
	}

	log.Info().Str("dir", cfg.UploadDir).Msg("Using local file storage")
	return storage.NewLocalStorage(cfg.UploadDir, nil)
}
