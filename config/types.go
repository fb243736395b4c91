package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	FeedURL             string `yaml:"feedURL" validate:"omitempty,url"`
	TripUpdatesURL      string `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	ServiceAlertsURL    string `yaml:"serviceAlertsURL" validate:"omitempty,url"`
	PollIntervalMS      int    `yaml:"pollIntervalMS" validate:"gte=0"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
}

// LocatorConfig is the reference point the driver resolves against
type LocatorConfig struct {
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	FeedKind  string  `yaml:"feedKind" validate:"omitempty,oneof=tu vp alerts"`
}

// StaticConfig selects and configures the static schedule store
type StaticConfig struct {
	Driver          string `yaml:"driver" validate:"omitempty,oneof=memory sqlite postgres redis"`
	GTFSPath        string `yaml:"gtfsPath"`
	IndexCachePath  string `yaml:"indexCachePath"`
	SQLitePath      string `yaml:"sqlitePath"`
	PostgresURL     string `yaml:"postgresURL"`
	RedisAddr       string `yaml:"redisAddr" validate:"omitempty,hostname_port"`
	RedisPassword   string `yaml:"redisPassword"`
	RedisDB         int    `yaml:"redisDB" validate:"gte=0"`
	CacheSize       int    `yaml:"cacheSize" validate:"gte=0"`
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds" validate:"gte=0"`
}

// PublishConfig configures where locator results are sent
type PublishConfig struct {
	KafkaBrokers string `yaml:"kafkaBrokers"`
	KafkaTopic   string `yaml:"kafkaTopic"`
}

// Feed represents a single named feed configuration
type Feed struct {
	Name   string       `yaml:"name" validate:"required"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt" validate:"required"`
	Static StaticConfig `yaml:"static"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	GTFSRT  GTFSRTConfig  `yaml:"gtfsrt"`
	Locator LocatorConfig `yaml:"locator"`
	Static  StaticConfig  `yaml:"static"`
	Publish PublishConfig `yaml:"publish"`
	Feeds   []Feed        `yaml:"feeds" validate:"dive"`
}
