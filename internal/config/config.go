// Package config provides configuration management for the Cutroom Agent.
// Configuration is loaded from an optional .env file and environment
// variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutroom"
	DefaultFPS      = 30.0

	// Environment variable names
	EnvPort            = "CUTROOM_PORT"
	EnvLogLevel        = "CUTROOM_LOG_LEVEL"
	EnvDataDir         = "CUTROOM_DATA_DIR"
	EnvFPS             = "CUTROOM_FPS"
	EnvHeadless        = "CUTROOM_HEADLESS"
	EnvResolverBaseURL = "CUTROOM_RESOLVER_BASE_URL"
	EnvResolverToken   = "CUTROOM_RESOLVER_TOKEN"
	EnvMediaDir        = "CUTROOM_MEDIA_DIR"

	// Database filename
	DBFilename = "cutroom.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	FPS() float64
	Headless() bool
	ResolverBaseURL() string
	ResolverToken() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	mediaDir string
	fps      float64
	headless bool

	resolverBaseURL string
	resolverToken   string
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// A .env file in the working directory is loaded first when present.
func New() (*EnvConfig, error) {
	// Missing .env is the normal case; real environment always wins.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		fps:      DefaultFPS,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if md := os.Getenv(EnvMediaDir); md != "" {
		cfg.mediaDir = md
	}

	if f := os.Getenv(EnvFPS); f != "" {
		fps, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFPS, err)
		}
		if fps <= 0 {
			return nil, fmt.Errorf("invalid %s: frame rate must be positive", EnvFPS)
		}
		cfg.fps = fps
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.resolverBaseURL = os.Getenv(EnvResolverBaseURL)
	cfg.resolverToken = os.Getenv(EnvResolverToken)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory holding locally materialized media files
func (c *EnvConfig) MediaDir() string {
	if c.mediaDir != "" {
		return c.mediaDir
	}
	return filepath.Join(c.dataDir, "media")
}

// FPS returns the project display frame rate
func (c *EnvConfig) FPS() float64 {
	return c.fps
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) ResolverBaseURL() string {
	return c.resolverBaseURL
}

func (c *EnvConfig) ResolverToken() string {
	return c.resolverToken
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
