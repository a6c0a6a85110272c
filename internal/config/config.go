package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "tendril.yaml"

// Environment overrides.
const (
	EnvURL           = "TENDRIL_URL"
	EnvAPIKey        = "TENDRIL_API_KEY"
	EnvModel         = "TENDRIL_MODEL"
	EnvRedisAddr     = "TENDRIL_REDIS_ADDR"
	EnvEncryptionKey = "TENDRIL_ENCRYPTION_KEY"
)

// Config is the full application configuration.
type Config struct {
	Server    domain.ServerConfig `mapstructure:"server"`
	Transport TransportConfig     `mapstructure:"transport"`
	HTTP      HTTPConfig          `mapstructure:"http"`
	MCP       MCPConfig           `mapstructure:"mcp"`
	Store     StoreConfig         `mapstructure:"store"`
	Redis     RedisConfig         `mapstructure:"redis"`
}

type TransportConfig struct {
	PromptTimeout time.Duration `mapstructure:"prompt_timeout"`
	AuthTimeout   time.Duration `mapstructure:"auth_timeout"`
}

type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type MCPConfig struct {
	// Transport is "stdio" or "sse".
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// StoreConfig controls how finished runs are kept.
type StoreConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
	Redact   bool          `mapstructure:"redact"`

	// EncryptionKey is a base64-encoded 32-byte AES key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// RedisConfig enables the Redis run store and run lock when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Transport: TransportConfig{
			PromptTimeout: 120 * time.Second,
			AuthTimeout:   10 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      8081,
		},
		Store: StoreConfig{
			TTL:      24 * time.Hour,
			Capacity: 100,
		},
		Redis: RedisConfig{
			Prefix: "tendril:run:",
		},
	}
}

// Load reads path over the defaults and applies the environment.
// An empty path looks for DefaultPath and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode merges a YAML document into cfg. Keys absent from the document keep their value.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// ApplyEnv overrides cfg with the TENDRIL_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvURL); ok && v != "" {
		cfg.Server.URL = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.Server.APIKey = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		cfg.Server.Model = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup(EnvEncryptionKey); ok && v != "" {
		cfg.Store.EncryptionKey = v
	}
	if v, ok := lookup("TENDRIL_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TENDRIL_REDIS_DB %q: %w", v, err)
		}
		cfg.Redis.DB = db
	}
	return nil
}

// EncryptionKey decodes Store.EncryptionKey. It returns nil when encryption is off.
func (c Config) EncryptionKey() ([]byte, error) {
	if c.Store.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
