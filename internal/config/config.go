// Package config loads the server configuration from the environment and
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// Config holds the settings resolved once at startup.
type Config struct {
	DatabaseDriver  string
	DatabaseURL     string
	HTTPAddr        string
	ImageDir        string
	ImagePublicBase string
	FrontURL        string
	MPAccessToken   string
	MPCurrency      string
	AdminSecret     string
	RequireAuth     bool
	LogFile         string
	LogMode         string
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset.
func Load() Config {
	return Config{
		DatabaseDriver:  getenv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:     getenv("DATABASE_URL", "supermercado.sqlite3"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ImageDir:        getenv("IMAGE_DIR", "imagenes"),
		ImagePublicBase: getenv("IMAGE_PUBLIC_BASE", "/imagenes"),
		FrontURL:        getenv("FRONT_URL", "http://localhost:5173"),
		MPAccessToken:   os.Getenv("MP_ACCESS_TOKEN"),
		MPCurrency:      getenv("MP_CURRENCY", "ARS"),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
		RequireAuth:     cast.ToBool(getenv("REQUIRE_AUTH", "false")),
		LogFile:         os.Getenv("LOG_FILE"),
		LogMode:         getenv("LOG_MODE", "development"),
	}
}

// RegisterFlags binds flags to c. Values already in c become the defaults,
// so flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DatabaseDriver, "driver", c.DatabaseDriver, "database driver: sqlite, postgres or mysql")
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "database path or DSN")
	fs.StringVar(&c.HTTPAddr, "addr", c.HTTPAddr, "listen address")
	fs.StringVar(&c.ImageDir, "images", c.ImageDir, "directory holding product images")
	fs.StringVar(&c.FrontURL, "front", c.FrontURL, "storefront base URL for payment redirects")
	fs.BoolVar(&c.RequireAuth, "require-auth", c.RequireAuth, "require an admin token for catalog changes")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "log file path (rotated)")
	fs.StringVar(&c.LogMode, "log-mode", c.LogMode, "log mode: development or production")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database URL is required")
	}
	if strings.TrimSpace(c.ImageDir) == "" {
		return errors.New("image directory is required")
	}
	if !strings.HasPrefix(c.ImagePublicBase, "/") {
		return fmt.Errorf("image public base %q must start with /", c.ImagePublicBase)
	}
	u, err := url.Parse(c.FrontURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("front URL %q must be absolute", c.FrontURL)
	}
	switch c.LogMode {
	case "development", "production":
	default:
		return fmt.Errorf("unsupported log mode %q", c.LogMode)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
