package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Local"
	configPathEnv   = "NOTICEBOARD_CONFIG"
	apiURLEnv       = "NOTICEBOARD_API_URL"
	listenEnv       = "NOTICEBOARD_LISTEN"
	storeDSNEnv     = "NOTICEBOARD_STORE_DSN"
	redisAddrEnv    = "NOTICEBOARD_REDIS_ADDR"
	logLevelEnv     = "NOTICEBOARD_LOG_LEVEL"

	StoreDriverJSON   = "json"
	StoreDriverSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Archive ArchiveConfig `yaml:"archive"`
	Panel   PanelConfig   `yaml:"panel"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// APIConfig points the panel at a running board server. Empty means the
// panel reads the configured store in-process.
type APIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects the notification store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CacheConfig enables the Redis payload cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	TTL       time.Duration `yaml:"ttl"`
}

// ArchiveConfig defines how often expired notices are archived.
type ArchiveConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// PanelConfig tunes the rendered page.
type PanelConfig struct {
	Timezone            string         `yaml:"timezone"`
	FenceStaleResponses *bool          `yaml:"fenceStaleResponses"`
	RevealThreshold     float64        `yaml:"revealThreshold"`
	ViewportRows        int            `yaml:"viewportRows"`
	Departments         []string       `yaml:"departments"`
	Years               []string       `yaml:"years"`
	QuickLinks          []QuickLink    `yaml:"quickLinks"`
	location            *time.Location `yaml:"-"`
}

// QuickLink is an entry of the page's quick access bar. A link whose title
// mentions the calendar also backs the header calendar button.
type QuickLink struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Location resolves the panel timezone string to a time.Location.
func (p PanelConfig) Location() *time.Location {
	if p.location != nil {
		return p.location
	}
	return time.Local
}

// Fence reports whether superseded fetch results are dropped.
func (p PanelConfig) Fence() bool {
	return p.FenceStaleResponses == nil || *p.FenceStaleResponses
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiURLEnv); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv(listenEnv); v != "" {
		c.Server.Listen = v
	}

	if v := os.Getenv(storeDSNEnv); v != "" {
		c.Store.DSN = v
		if strings.HasSuffix(v, ".db") || strings.HasPrefix(v, "file:") {
			c.Store.Driver = StoreDriverSQLite
		}
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Panel.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Panel.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Server.Listen != "" {
		base.Server.Listen = override.Server.Listen
	}

	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.Timeout > 0 {
		base.API.Timeout = override.API.Timeout
	}

	if override.Store.Driver != "" {
		base.Store.Driver = override.Store.Driver
	}
	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}

	if override.Cache.RedisAddr != "" {
		base.Cache.RedisAddr = override.Cache.RedisAddr
	}
	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}

	if override.Archive.Interval > 0 {
		base.Archive.Interval = override.Archive.Interval
	}

	if override.Panel.Timezone != "" {
		base.Panel.Timezone = override.Panel.Timezone
	}
	if override.Panel.FenceStaleResponses != nil {
		base.Panel.FenceStaleResponses = override.Panel.FenceStaleResponses
	}
	if override.Panel.RevealThreshold > 0 {
		base.Panel.RevealThreshold = override.Panel.RevealThreshold
	}
	if override.Panel.ViewportRows != 0 {
		base.Panel.ViewportRows = override.Panel.ViewportRows
	}
	if len(override.Panel.Departments) > 0 {
		base.Panel.Departments = override.Panel.Departments
	}
	if len(override.Panel.Years) > 0 {
		base.Panel.Years = override.Panel.Years
	}
	if len(override.Panel.QuickLinks) > 0 {
		base.Panel.QuickLinks = override.Panel.QuickLinks
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	fence := true
	return Config{
		Server:  ServerConfig{Listen: ":5000"},
		API:     APIConfig{Timeout: 15 * time.Second},
		Store:   StoreConfig{Driver: StoreDriverJSON, DSN: "notifications.json"},
		Cache:   CacheConfig{TTL: 30 * time.Second},
		Archive: ArchiveConfig{Interval: time.Hour},
		Panel: PanelConfig{
			Timezone:            defaultTimezone,
			FenceStaleResponses: &fence,
			RevealThreshold:     0.1,
			ViewportRows:        6,
			Departments:         []string{"CSE", "ECE", "EEE", "MECH", "CIVIL"},
			Years:               []string{"1", "2", "3", "4"},
			location:            time.Local,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
