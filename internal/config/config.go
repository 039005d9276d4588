// Package config loads runtime settings for the catalog service from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port  string
	Debug bool

	StoreDriver string

	MongoURI        string
	MongoDB         string
	MongoCollection string
	SearchIndex     string

	PostgresDSN string

	// ProductBaseURL is the storefront detail view root used in search links.
	ProductBaseURL string

	MetricsEnabled bool
	MetricsToken   string
}

// Load reads the environment. Values from envFile never override variables
// that are already set; a missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:  getenv("PORT", "5000"),
		Debug: boolenv("DEBUG", false),

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverMemory)),

		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "spareparts"),
		MongoCollection: getenv("MONGO_COLLECTION", "products"),
		SearchIndex:     getenv("SEARCH_INDEX", "default"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		ProductBaseURL: getenv("PRODUCT_BASE_URL", "http://localhost:5173/product"),

		MetricsEnabled: boolenv("METRICS_ENABLED", true),
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverMongo:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ProductBaseURL == "" {
		return errors.New("PRODUCT_BASE_URL must not be empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolenv(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
