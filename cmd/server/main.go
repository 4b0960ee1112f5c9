package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"boletin-iglesia/internal/bulletin"
	"boletin-iglesia/internal/config"
	"boletin-iglesia/internal/firestore"
	"boletin-iglesia/internal/logging"
	"boletin-iglesia/internal/model"
	"boletin-iglesia/internal/store"
	"boletin-iglesia/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize store (GCS or local)
	var s store.Store
	if cfg.GCSBucket != "" {
		gcsStore, err := store.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Fatal("Failed to initialize GCS store", zap.Error(err))
		}
		defer gcsStore.Close()
		s = gcsStore
		logger.Info("Store: GCS bucket", zap.String("bucket", cfg.GCSBucket))
	} else {
		localStore, err := store.NewLocal(cfg.StoreDir)
		if err != nil {
			logger.Fatal("Failed to initialize local store", zap.Error(err))
		}
		s = localStore
		logger.Info("Store: local directory", zap.String("dir", cfg.StoreDir))
	}

	// Initialize archive if a project is configured
	var archive *firestore.Client
	if cfg.GCPProjectID != "" {
		archive, err = firestore.New(ctx, cfg.GCPProjectID, cfg.FirestoreCollection)
		if err != nil {
			logger.Fatal("Failed to initialize Firestore client", zap.Error(err))
		}
		defer archive.Close()
		logger.Info("Archive: Firestore",
			zap.String("project", cfg.GCPProjectID),
			zap.String("collection", cfg.FirestoreCollection))
	}

	page, err := bulletin.ParsePage(web.IndexHTML())
	if err != nil {
		logger.Fatal("Failed to parse page template", zap.Error(err))
	}
	if cfg.InitialDataFile != "" {
		data, err := os.ReadFile(cfg.InitialDataFile)
		if err != nil {
			logger.Fatal("Failed to read initial data", zap.String("file", cfg.InitialDataFile), zap.Error(err))
		}
		page.SetEmbeddedData(data)
		logger.Info("Embedded data inlined", zap.String("file", cfg.InitialDataFile))
	}

	var remote bulletin.Source
	switch cfg.RemoteSource {
	case config.RemoteHTTP:
		src, err := bulletin.NewHTTPSource(cfg.DataURL, &http.Client{Timeout: cfg.HTTPTimeout})
		if err != nil {
			logger.Fatal("Invalid DATA_URL", zap.Error(err))
		}
		remote = src
	case config.RemoteStore:
		remote = bulletin.NewStoreSource(s, cfg.DataKey)
	case config.RemoteFirestore:
		remote = bulletin.NewFuncSource("Firestore", func(ctx context.Context) (model.Bulletin, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
			defer cancel()
			return archive.Latest(ctx)
		})
	}
	logger.Info("Remote source", zap.String("kind", cfg.RemoteSource), zap.String("name", remote.Name()))

	loader := bulletin.NewLoader(bulletin.NewEmbeddedSource(page), remote, bulletin.DefaultFallback(), logger)
	board := bulletin.NewBoard(page, loader, logger)
	trigger := bulletin.NewTrigger(page, cfg.ReloadDelay, func(ctx context.Context) {
		board.Refresh(ctx)
	})

	handler := web.New(board, trigger, s, cfg.DataKey, logger)
	if archive != nil {
		handler.SetArchive(archive)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The default remote source is this server's own /data.json, so the
	// initial load starts only once the listener accepts connections.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("addr", srv.Addr), zap.Error(err))
	}
	go board.Refresh(ctx)

	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := srv.Serve(ln); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
