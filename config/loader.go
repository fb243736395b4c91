package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
)

const (
	DefaultPort         = 16181
	DefaultStaticDriver = "memory"
	DefaultKafkaTopic   = "gtfsrt-locator.nearest"
	DefaultCacheSize    = 1024
	DefaultCacheTTL     = 5 * time.Minute
	defaultLatitude     = -27.52423
	defaultLongitude    = 152.81618
	defaultLocatorKind  = "vp"
)

// SearchPaths are tried in order by LoadAppConfig.
var SearchPaths = []string{"config.yml", "./config/config.yml"}

// Config is the global application configuration
var Config AppConfig

// LoadAppConfig loads .env, then the first config file found in SearchPaths,
// and stores the result in Config. A missing config file is not an error when
// the environment alone provides the settings.
func LoadAppConfig() error {
	_ = godotenv.Load()

	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		cfg, err := LoadFromFile(p)
		if err != nil {
			return err
		}
		Config = cfg
		return nil
	}

	cfg, err := Parse(nil)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// LoadFromFile parses and validates the YAML file at path. Environment
// variables override values from the file.
func LoadFromFile(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies environment overrides and defaults,
// and validates the result. Locator coordinates the file omits default to the
// Brisbane reference point; coordinates it sets, including 0, are kept.
func Parse(data []byte) (AppConfig, error) {
	// Seeded before decoding so an explicit 0 in the file is kept.
	cfg := AppConfig{Locator: LocatorConfig{Latitude: defaultLatitude, Longitude: defaultLongitude}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func validate(cfg AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Locator.FeedKind == "" {
		cfg.Locator.FeedKind = defaultLocatorKind
	}
	if cfg.Static.Driver == "" {
		cfg.Static.Driver = DefaultStaticDriver
	}
	if cfg.Publish.KafkaTopic == "" {
		cfg.Publish.KafkaTopic = DefaultKafkaTopic
	}
}

// applyEnv overrides top-level settings from the environment.
func applyEnv(cfg *AppConfig) {
	cfg.GTFSRT.TripUpdatesURL = getEnv("GTFS_TRIP_UPDATES_URL", cfg.GTFSRT.TripUpdatesURL)
	cfg.GTFSRT.VehiclePositionsURL = getEnv("GTFS_VEHICLE_POSITIONS_URL", cfg.GTFSRT.VehiclePositionsURL)
	cfg.GTFSRT.ServiceAlertsURL = getEnv("GTFS_ALERTS_URL", cfg.GTFSRT.ServiceAlertsURL)
	cfg.GTFSRT.PollIntervalMS = getEnvInt("POLL_INTERVAL_MS", cfg.GTFSRT.PollIntervalMS)
	cfg.Locator.Latitude = getEnvFloat("LOCATOR_LAT", cfg.Locator.Latitude)
	cfg.Locator.Longitude = getEnvFloat("LOCATOR_LON", cfg.Locator.Longitude)
	cfg.Static.Driver = getEnv("STATIC_DRIVER", cfg.Static.Driver)
	cfg.Static.SQLitePath = getEnv("SQLITE_DATABASE", cfg.Static.SQLitePath)
	cfg.Static.PostgresURL = getEnv("DATABASE_URL", cfg.Static.PostgresURL)
	cfg.Static.RedisAddr = getEnv("REDIS_ADDR", cfg.Static.RedisAddr)
	cfg.Publish.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.Publish.KafkaBrokers)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// SelectFeed chooses a feed by name; fallback to first; if none, use the
// top-level sections. Fields a feed leaves empty inherit the top-level value.
func SelectFeed(name string) (GTFSRTConfig, StaticConfig) {
	return Config.SelectFeed(name)
}

// SelectFeed is the method form of the package-level SelectFeed.
func (c AppConfig) SelectFeed(name string) (GTFSRTConfig, StaticConfig) {
	if len(c.Feeds) == 0 {
		return c.GTFSRT, c.Static
	}
	f := c.Feeds[0]
	if name != "" {
		for _, candidate := range c.Feeds {
			if candidate.Name == name {
				f = candidate
				break
			}
		}
	}
	return f.GTFSRT.inherit(c.GTFSRT), f.Static.inherit(c.Static)
}

func (g GTFSRTConfig) inherit(top GTFSRTConfig) GTFSRTConfig {
	if g.FeedURL == "" && g.TripUpdatesURL == "" && g.VehiclePositionsURL == "" && g.ServiceAlertsURL == "" {
		g.FeedURL = top.FeedURL
		g.TripUpdatesURL = top.TripUpdatesURL
		g.VehiclePositionsURL = top.VehiclePositionsURL
		g.ServiceAlertsURL = top.ServiceAlertsURL
	}
	if g.PollIntervalMS == 0 {
		g.PollIntervalMS = top.PollIntervalMS
	}
	if g.TimeoutMS == 0 {
		g.TimeoutMS = top.TimeoutMS
	}
	return g
}

func (s StaticConfig) inherit(top StaticConfig) StaticConfig {
	if s.Driver == "" {
		return top
	}
	if s.CacheSize == 0 {
		s.CacheSize = top.CacheSize
	}
	if s.CacheTTLSeconds == 0 {
		s.CacheTTLSeconds = top.CacheTTLSeconds
	}
	return s
}

// Endpoints maps the config onto gtfsrt endpoints. A lone feedURL is treated
// as the vehicle positions feed.
func (g GTFSRTConfig) Endpoints() gtfsrt.Endpoints {
	ep := gtfsrt.Endpoints{
		TripUpdatesURL:      g.TripUpdatesURL,
		VehiclePositionsURL: g.VehiclePositionsURL,
		ServiceAlertsURL:    g.ServiceAlertsURL,
	}
	if ep.VehiclePositionsURL == "" {
		ep.VehiclePositionsURL = g.FeedURL
	}
	return ep
}

// PollInterval returns the configured poll interval, or the gtfsrt default.
func (g GTFSRTConfig) PollInterval() time.Duration {
	if g.PollIntervalMS <= 0 {
		return gtfsrt.DefaultPollInterval
	}
	return time.Duration(g.PollIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout, or the gtfsrt default.
func (g GTFSRTConfig) Timeout() time.Duration {
	if g.TimeoutMS <= 0 {
		return gtfsrt.DefaultTimeout
	}
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// CacheTTL returns the local cache expiration for remote stores.
func (s StaticConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return DefaultCacheTTL
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// CacheEntries returns the local cache capacity for remote stores.
func (s StaticConfig) CacheEntries() int {
	if s.CacheSize <= 0 {
		return DefaultCacheSize
	}
	return s.CacheSize
}

// Kind parses the locator feed kind.
func (l LocatorConfig) Kind() (gtfsrt.FeedKind, error) {
	return gtfsrt.ParseFeedKind(l.FeedKind)
}
