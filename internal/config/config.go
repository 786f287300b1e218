// Package config loads server settings from defaults, an optional YAML file,
// a .env file and SCENYX_* environment variables.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, with dots in keys
// replaced by underscores (SCENYX_SERVER_ADDR for server.addr).
const EnvPrefix = "SCENYX"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Valkey   ValkeyConfig   `mapstructure:"valkey"`
	Auth     AuthConfig     `mapstructure:"auth"`
	WS       WSConfig       `mapstructure:"ws"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigin is used for CORS and the WebSocket origin check.
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// DatabaseConfig selects the store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig backs the chat rate limiter. Empty disables limiting.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig enables the shared presence mirror when Addr is set.
type ValkeyConfig struct {
	Addr        string        `mapstructure:"addr"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

// AuthConfig enables session tokens when Secret is set.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type WSConfig struct {
	SendBuffer     int           `mapstructure:"send_buffer"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type ChatConfig struct {
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			AllowedOrigin: "http://127.0.0.1:5173",
		},
		Valkey: ValkeyConfig{
			PresenceTTL: 2 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		WS: WSConfig{
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 64 * 1024,
		},
		Chat: ChatConfig{
			RateLimit:  20,
			RateWindow: time.Minute,
		},
	}
}

// SetDefaults registers every key with v so environment overrides resolve
// even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origin", d.Server.AllowedOrigin)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("valkey.addr", d.Valkey.Addr)
	v.SetDefault("valkey.presence_ttl", d.Valkey.PresenceTTL)
	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("ws.send_buffer", d.WS.SendBuffer)
	v.SetDefault("ws.write_wait", d.WS.WriteWait)
	v.SetDefault("ws.pong_wait", d.WS.PongWait)
	v.SetDefault("ws.max_message_size", d.WS.MaxMessageSize)
	v.SetDefault("chat.rate_limit", d.Chat.RateLimit)
	v.SetDefault("chat.rate_window", d.Chat.RateWindow)
}

// Init prepares v: .env, defaults, environment and the optional config
// file at path (or ./scenyx.yaml).
func Init(v *viper.Viper, path string) error {
	if err := godotenv.Load(); err == nil {
		log.Println("[Config] Loaded .env")
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scenyx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.WS.SendBuffer <= 0 {
		return fmt.Errorf("ws.send_buffer must be positive, got %d", c.WS.SendBuffer)
	}
	if c.WS.PongWait <= 0 || c.WS.WriteWait <= 0 {
		return fmt.Errorf("ws.pong_wait and ws.write_wait must be positive")
	}
	if c.Chat.RateLimit < 0 {
		return fmt.Errorf("chat.rate_limit must not be negative")
	}
	return nil
}
