package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/salah/internal/config"
	"github.com/Nixie-Tech-LLC/salah/internal/db"
	"github.com/Nixie-Tech-LLC/salah/internal/importer"
	"github.com/Nixie-Tech-LLC/salah/internal/model"
	"github.com/Nixie-Tech-LLC/salah/internal/storage"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	dataFile   string
	collection string
	idPrefix   string
	fromSpaces bool
	sampleSize int
)

// openStore connects to the document database named by DATABASE_URL. The
// returned func releases the connection.
var openStore = func(cfg *config.Config) (db.DocumentStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	return db.NewStore(conn), func() { conn.Close() }, nil
}

var rootCmd = &cobra.Command{
	Use:          "importer",
	Short:        "Replace a hadith collection with the contents of a JSON file",
	Long:         "Deletes every document in the collection, then imports the file in batches of 500.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, im, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		src, name, err := openSource(cfg)
		if err != nil {
			return err
		}
		rep, err := im.RunFile(cmd.Context(), src, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d existing documents in %d batches\n", rep.Deleted, rep.DeleteBatches)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents in %d batches (run %s)\n", rep.Imported, rep.WriteBatches, rep.RunID)

		v, err := im.Verify(cmd.Context(), sampleSize)
		if err != nil {
			return err
		}
		printVerification(cmd.OutOrStdout(), v)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every document in the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, im, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		deleted, batches, err := im.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d documents from %s in %d batches\n", deleted, im.Collection(), batches)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the collection size and a few sample documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, im, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		v, err := im.Verify(cmd.Context(), sampleSize)
		if err != nil {
			return err
		}
		printVerification(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&collection, "collection", importer.DefaultCollection, "destination collection")
	rootCmd.PersistentFlags().IntVar(&sampleSize, "samples", 3, "documents to print when verifying")
	rootCmd.Flags().StringVar(&dataFile, "file", importer.DefaultDataFile, "JSON array of hadith records")
	rootCmd.Flags().StringVar(&idPrefix, "prefix", importer.DefaultIDPrefix, "document id prefix")
	rootCmd.Flags().BoolVar(&fromSpaces, "spaces", false, "read --file as a key in the configured Spaces bucket")

	rootCmd.AddCommand(clearCmd, verifyCmd)
}

func setup() (*config.Config, *importer.Importer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	store, done, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	im := importer.New(importer.Options{
		Store:      store,
		Collection: collection,
		IDPrefix:   idPrefix,
	})
	return cfg, im, done, nil
}

func openSource(cfg *config.Config) (importer.Source, string, error) {
	if fromSpaces {
		ss, err := storage.NewSpacesStorage(storage.SpacesOptions{
			Endpoint:  cfg.SpacesEndpoint,
			Region:    cfg.SpacesRegion,
			Bucket:    cfg.SpacesBucket,
			CDNURL:    cfg.SpacesCDNURL,
			AccessKey: cfg.SpacesAccessKey,
			SecretKey: cfg.SpacesSecretKey,
		})
		if err != nil {
			return nil, "", err
		}
		return ss, dataFile, nil
	}
	return storage.NewLocalStorage(filepath.Dir(dataFile), nil), filepath.Base(dataFile), nil
}

func printVerification(w io.Writer, v importer.Verification) {
	fmt.Fprintf(w, "\n%s: %d documents\n", v.Collection, v.Count)
	for _, d := range v.Samples {
		var rec model.HadithRecord
		if err := json.Unmarshal(d.Body, &rec); err != nil {
			fmt.Fprintf(w, "\n  %s: unreadable body: %v\n", d.ID, err)
			continue
		}
		fmt.Fprintf(w, "\n  ID:       %s\n", d.ID)
		fmt.Fprintf(w, "  Number:   %d\n", rec.HadithNumber)
		fmt.Fprintf(w, "  Book:     %d\n", rec.BookNumber)
		fmt.Fprintf(w, "  Narrator: %s\n", rec.Narrator)
		fmt.Fprintf(w, "  Grade:    %s\n", rec.Grade)
		fmt.Fprintf(w, "  Arabic:   %s\n", truncate(rec.ArabicText, 50))
		fmt.Fprintf(w, "  English:  %s\n", truncate(rec.EnglishText, 100))
	}
}

func truncate(s string, n int) string {
	if s == "" {
		return "N/A"
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

