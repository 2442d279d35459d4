package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvConfigFile = "CONFIG_FILE"
	EnvDotEnvFile = "ENV_FILE"
)

type Config struct {
	ServiceName string
	Server      ServerConfig
	Log         LogConfig
	Redis       RedisConfig
	NATS        NATSConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.URL != "" }

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

func (n NATSConfig) Enabled() bool { return n.URL != "" }

type RateLimitConfig struct {
	Requests int // 0 disables the limiter
	Window   time.Duration
}

type CORSConfig struct {
	Enabled bool
	Origins []string
	MaxAge  int
}

// fileConfig mirrors Config for TOML decoding; durations are strings.
type fileConfig struct {
	ServiceName string `toml:"service_name"`
	Server      struct {
		Port            string `toml:"port"`
		ReadTimeout     string `toml:"read_timeout"`
		WriteTimeout    string `toml:"write_timeout"`
		IdleTimeout     string `toml:"idle_timeout"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Redis struct {
		URL      string `toml:"url"`
		Password string `toml:"password"`
		DB       *int   `toml:"db"`
	} `toml:"redis"`
	NATS struct {
		URL           string `toml:"url"`
		SubjectPrefix string `toml:"subject_prefix"`
	} `toml:"nats"`
	RateLimit struct {
		Requests *int   `toml:"requests"`
		Window   string `toml:"window"`
	} `toml:"rate_limit"`
	CORS struct {
		Enabled *bool    `toml:"enabled"`
		Origins []string `toml:"origins"`
		MaxAge  *int     `toml:"max_age"`
	} `toml:"cors"`
}

func Default() *Config {
	return &Config{
		ServiceName: "reservations",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			SubjectPrefix: "reservations",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
		CORS: CORSConfig{
			Enabled: true,
			Origins: []string{"*"},
			MaxAge:  300,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by CONFIG_FILE, an optional .env file and finally the process environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	envFile := getEnv(EnvDotEnvFile, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg.loadEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.ServiceName, fc.ServiceName)
	setString(&c.Server.Port, fc.Server.Port)
	durations := []struct {
		name string
		dst  *time.Duration
		raw  string
	}{
		{"server.read_timeout", &c.Server.ReadTimeout, fc.Server.ReadTimeout},
		{"server.write_timeout", &c.Server.WriteTimeout, fc.Server.WriteTimeout},
		{"server.idle_timeout", &c.Server.IdleTimeout, fc.Server.IdleTimeout},
		{"server.shutdown_timeout", &c.Server.ShutdownTimeout, fc.Server.ShutdownTimeout},
		{"rate_limit.window", &c.RateLimit.Window, fc.RateLimit.Window},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config %s: invalid %s: %w", path, d.name, err)
		}
		*d.dst = v
	}

	setString(&c.Log.Level, fc.Log.Level)
	setString(&c.Log.Format, fc.Log.Format)
	setString(&c.Redis.URL, fc.Redis.URL)
	setString(&c.Redis.Password, fc.Redis.Password)
	if fc.Redis.DB != nil {
		c.Redis.DB = *fc.Redis.DB
	}
	setString(&c.NATS.URL, fc.NATS.URL)
	setString(&c.NATS.SubjectPrefix, fc.NATS.SubjectPrefix)
	if fc.RateLimit.Requests != nil {
		c.RateLimit.Requests = *fc.RateLimit.Requests
	}
	if fc.CORS.Enabled != nil {
		c.CORS.Enabled = *fc.CORS.Enabled
	}
	if fc.CORS.Origins != nil {
		c.CORS.Origins = fc.CORS.Origins
	}
	if fc.CORS.MaxAge != nil {
		c.CORS.MaxAge = *fc.CORS.MaxAge
	}
	return nil
}

func (c *Config) loadEnv() {
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)

	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getInt("REDIS_DB", c.Redis.DB)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.RateLimit.Requests = getInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.Window = getDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)

	c.CORS.Enabled = getBool("CORS_ENABLED", c.CORS.Enabled)
	c.CORS.Origins = getList("CORS_ORIGINS", c.CORS.Origins)
	c.CORS.MaxAge = getInt("CORS_MAX_AGE", c.CORS.MaxAge)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
