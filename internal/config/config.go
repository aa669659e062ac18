package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Live    LiveConfig    `yaml:"live"`
	Push    PushConfig    `yaml:"push"`
}

type HTTPConfig struct {
	Address           string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env-default:"10s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

type StorageConfig struct {
	Driver          string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

// LiveConfig tunes the live update channels.
type LiveConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env-default:"30s"`
	ClientBuffer      int           `yaml:"client_buffer" env-default:"32"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type PushConfig struct {
	Enabled bool `yaml:"enabled" env:"PUSH_ENABLED"`
}

// ResolvePath picks the config file: explicit value, then CONFIG_PATH, then
// the local default.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if res := os.Getenv("CONFIG_PATH"); res != "" {
		return res
	}
	return "config/local.yaml"
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Live.HeartbeatInterval <= 0 {
		c.Live.HeartbeatInterval = 30 * time.Second
	}
	if c.Live.ClientBuffer <= 0 {
		c.Live.ClientBuffer = 32
	}
	if c.Live.WriteTimeout <= 0 {
		c.Live.WriteTimeout = 10 * time.Second
	}
}
