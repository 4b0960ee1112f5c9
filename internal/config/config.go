package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Remote source kinds for REMOTE_SOURCE.
const (
	RemoteHTTP      = "http"
	RemoteStore     = "store"
	RemoteFirestore = "firestore"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// RemoteSource selects where the bulletin is fetched from when the page
	// has no embedded data: http, store or firestore.
	RemoteSource string `env:"REMOTE_SOURCE" envDefault:"http"`
	DataURL      string `env:"DATA_URL" envDefault:"http://localhost:8080/data.json"`
	DataKey      string `env:"DATA_KEY" envDefault:"data.json"`

	StoreDir  string `env:"STORE_DIR" envDefault:"disk"`
	GCSBucket string `env:"GCS_BUCKET"`

	GCPProjectID        string `env:"GCP_PROJECT_ID"`
	FirestoreCollection string `env:"FIRESTORE_COLLECTION" envDefault:"bulletins"`

	// InitialDataFile is inlined into the page as embedded JSON at startup.
	InitialDataFile string `env:"INITIAL_DATA_FILE"`

	ReloadDelay time.Duration `env:"RELOAD_DELAY" envDefault:"250ms"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	ChromePath   string `env:"CHROME_PATH"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks combinations the env tags cannot express.
func (c Config) Validate() error {
	switch c.RemoteSource {
	case RemoteHTTP:
		if c.DataURL == "" {
			return fmt.Errorf("DATA_URL is required when REMOTE_SOURCE=%s", RemoteHTTP)
		}
	case RemoteStore:
	case RemoteFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when REMOTE_SOURCE=%s", RemoteFirestore)
		}
	default:
		return fmt.Errorf("unknown REMOTE_SOURCE %q (want http, store or firestore)", c.RemoteSource)
	}
	if c.ReloadDelay < 0 {
		return fmt.Errorf("RELOAD_DELAY must not be negative")
	}
	return nil
}
