// ingest publishes a new week's bulletin. It reads either a scanned printed
// bulletin (extracted through the OpenAI vision API) or a JSON file, stores
// it as data.json in the configured store, and optionally archives it in
// Firestore.
//
// Usage:
//
//	go run ./cmd/ingest --image boletin.jpg
//	go run ./cmd/ingest --json data.json --archive
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"boletin-iglesia/internal/bulletin"
	"boletin-iglesia/internal/config"
	"boletin-iglesia/internal/firestore"
	"boletin-iglesia/internal/logging"
	"boletin-iglesia/internal/model"
	"boletin-iglesia/internal/store"
	"boletin-iglesia/internal/vision"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		imagePath string
		jsonPath  string
		week      string
		archive   bool
		dryRun    bool
	)

	flagSet := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	flagSet.StringVar(&imagePath, "image", "", "scanned bulletin image (JPEG or PNG) to extract")
	flagSet.StringVar(&jsonPath, "json", "", "bulletin JSON file to publish")
	flagSet.StringVar(&week, "week", "", "override week_of (YYYY-MM-DD)")
	flagSet.BoolVar(&archive, "archive", false, "also save the bulletin to the Firestore archive")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the bulletin instead of storing it")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if (imagePath == "") == (jsonPath == "") {
		return fmt.Errorf("exactly one of --image or --json is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var (
		b     model.Bulletin
		image []byte
	)
	if imagePath != "" {
		image, err = os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		logger.Info("Extracting bulletin from image", zap.String("file", imagePath))
		b, err = vision.NewClient(cfg.OpenAIAPIKey).ExtractBulletin(ctx, image)
		if err != nil {
			return fmt.Errorf("extracting bulletin: %w", err)
		}
	} else {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return fmt.Errorf("reading bulletin: %w", err)
		}
		b, err = bulletin.Decode(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", jsonPath, err)
		}
	}

	if week != "" {
		if _, err := time.Parse("2006-01-02", week); err != nil {
			return fmt.Errorf("invalid --week %q: %w", week, err)
		}
		b.WeekOf = model.Str(week)
	}
	if b.Announcements == nil {
		b.Announcements = []model.Announcement{}
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bulletin: %w", err)
	}

	if dryRun {
		fmt.Println(string(data))
		return nil
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, cfg.DataKey, "application/json", data); err != nil {
		return fmt.Errorf("storing %s: %w", cfg.DataKey, err)
	}
	logger.Info("Bulletin stored",
		zap.String("key", cfg.DataKey),
		zap.String("meta", b.MetaLine()),
		zap.Int("announcements", len(b.Announcements)))

	if imagePath != "" {
		// Keep the scan next to the extracted data for later review.
		label, ok := b.Week()
		if !ok {
			label = time.Now().Format("20060102-150405")
		}
		scanKey := "scan-" + label + filepath.Ext(imagePath)
		if err := s.Put(ctx, scanKey, imageContentType(imagePath), image); err != nil {
			logger.Warn("Failed to store scan", zap.String("key", scanKey), zap.Error(err))
		}
	}

	if archive {
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID environment variable is required for --archive")
		}
		fsClient, err := firestore.New(ctx, cfg.GCPProjectID, cfg.FirestoreCollection)
		if err != nil {
			return err
		}
		defer fsClient.Close()

		if err := fsClient.Save(ctx, b); err != nil {
			return err
		}
		logger.Info("Bulletin archived", zap.String("collection", cfg.FirestoreCollection))
	}

	return nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.GCSBucket != "" {
		gcsStore, err := store.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		return gcsStore, nil
	}
	localStore, err := store.NewLocal(cfg.StoreDir)
	if err != nil {
		return nil, err
	}
	return localStore, nil
}

func imageContentType(path string) string {
	switch filepath.Ext(path) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
