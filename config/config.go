package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Room     RoomConfig     `yaml:"room"`
	Agent    AgentConfig    `yaml:"agent"`
	Seed     SeedConfig     `yaml:"seed"`
	Storage  StorageConfig  `yaml:"storage"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
	Session  SessionConfig  `yaml:"session"`
	AdminKey string         `yaml:"admin_key" env:"ADMIN_KEY"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	ResyncInterval  time.Duration `yaml:"resync_interval"  env:"RESYNC_INTERVAL"         env-default:"1m"`
}

// DatabaseConfig keeps the DB_* variable names the deployment already uses.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"        env-default:"postgres"`
	Host            string        `yaml:"host"               env:"DB_HOST"                env-default:"localhost"`
	Port            string        `yaml:"port"               env:"DB_PORT"                env-default:"5432"`
	User            string        `yaml:"user"               env:"DB_USER"                env-default:"postgres"`
	Password        string        `yaml:"password"           env:"DB_PASSWORD"`
	Name            string        `yaml:"name"               env:"DB_NAME"                env-default:"podcasts"`
	SSLMode         string        `yaml:"ssl_mode"           env:"DB_SSLMODE"             env-default:"disable"`
	TimeZone        string        `yaml:"time_zone"          env:"DB_TIMEZONE"            env-default:"UTC"`
	MaxIdleConns    int           `yaml:"max_idle_conns"     env:"DB_MAX_IDLE_CONNS"      env-default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns"     env:"DB_MAX_OPEN_CONNS"      env-default:"100"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"  env:"DB_CONN_MAX_LIFETIME"   env-default:"1h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME"  env-default:"10m"`
	LogLevel        string        `yaml:"log_level"          env:"DB_LOG_LEVEL"           env-default:"warn"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

// RedisConfig enables the snapshot cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	TTL      time.Duration `yaml:"ttl"      env:"REDIS_TTL"      env-default:"5m"`
}

// NATSConfig enables cross-replica change events when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"     env:"NATS_URL"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"podcasts"`
}

type RoomConfig struct {
	ServerURL string        `yaml:"server_url" env:"LIVEKIT_URL"        env-default:"ws://localhost:8080"`
	APIKey    string        `yaml:"api_key"    env:"LIVEKIT_API_KEY"    env-default:"devkey"`
	APISecret string        `yaml:"api_secret" env:"LIVEKIT_API_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"ROOM_TOKEN_TTL"     env-default:"15m"`
}

type AgentConfig struct {
	URL          string        `yaml:"url"           env:"AGENT_URL"           env-default:"http://127.0.0.1:5000"`
	Listen       string        `yaml:"listen"        env:"AGENT_LISTEN"        env-default:"127.0.0.1:5000"`
	Command      string        `yaml:"command"       env:"AGENT_COMMAND"       env-default:"python agent.py dev"`
	StopTimeout  time.Duration `yaml:"stop_timeout"  env:"AGENT_STOP_TIMEOUT"  env-default:"5s"`
	StartTimeout time.Duration `yaml:"start_timeout" env:"AGENT_START_TIMEOUT" env-default:"30s"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled" env:"SEED_ENABLED" env-default:"true"`
}

// StorageConfig points at a Supabase storage bucket for cover images.
type StorageConfig struct {
	URL    string `yaml:"url"    env:"SUPABASE_URL"`
	Key    string `yaml:"key"    env:"SUPABASE_KEY"`
	Bucket string `yaml:"bucket" env:"SUPABASE_BUCKET" env-default:"podcast-images"`
}

func (s StorageConfig) Enabled() bool { return s.URL != "" && s.Key != "" }

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model"   env:"GEMINI_MODEL"   env-default:"gemini-1.5-flash"`
}

type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"http://localhost:3000"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Origin,Content-Type,Authorization,X-Admin-Key"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SessionConfig is read by the terminal session client.
type SessionConfig struct {
	APIBaseURL       string        `yaml:"api_base_url"       env:"API_BASE_URL"       env-default:"http://localhost:8080"`
	PreConnectBuffer bool          `yaml:"pre_connect_buffer" env:"PRE_CONNECT_BUFFER" env-default:"true"`
	RequestTimeout   time.Duration `yaml:"request_timeout"    env:"SESSION_REQUEST_TIMEOUT" env-default:"15s"`
}

// Load reads configuration from CONFIG_PATH (default ./config.yaml) and the
// environment. A missing default file is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("database.driver must be postgres or memory (got %q)", c.Database.Driver)
	}
	if c.Room.TokenTTL <= 0 {
		return fmt.Errorf("room.token_ttl must be > 0 (got %s)", c.Room.TokenTTL)
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be > 0 (got %s)", c.Redis.TTL)
	}
	if c.Server.ResyncInterval < 0 {
		return fmt.Errorf("server.resync_interval must be >= 0 (got %s)", c.Server.ResyncInterval)
	}
	return nil
}

// ValidateRoom is required by the processes that mint room tokens.
func (c *Config) ValidateRoom() error {
	if len(c.Room.APISecret) < 32 {
		return fmt.Errorf("room.api_secret must be at least 32 characters (got %d)", len(c.Room.APISecret))
	}
	if strings.TrimSpace(c.Room.APIKey) == "" {
		return fmt.Errorf("room.api_key is required")
	}
	return nil
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
