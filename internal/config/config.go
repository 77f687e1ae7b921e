// Package config loads the wayfarer configuration file.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// Environment variables consulted when the file leaves a key empty.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvTavilyKey = "TAVILY_API_KEY"
	EnvStoreKey  = "WAYFARER_STORE_KEY"
)

type Log struct {
	Level string `yaml:"level"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type LLM struct {
	Provider string        `yaml:"provider"` // eino, openai or none
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Search struct {
	Transport string            `yaml:"transport"` // stdio, sse or none
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
	Tool      string            `yaml:"tool"`
	Timeout   time.Duration     `yaml:"timeout"`
	CacheTTL  time.Duration     `yaml:"cache_ttl"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`

	// EncryptionKey is a base64 AES-256 key; sessions are stored in clear
	// when empty. FallbackKeys still decrypt during a rotation.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

type Session struct {
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

type Planner struct {
	// ReferenceDate pins "today" (YYYY-MM-DD). Empty means the wall clock.
	ReferenceDate    string `yaml:"reference_date"`
	MaxSearchRetries int    `yaml:"max_search_retries"`
}

// Config is the whole configuration file.
type Config struct {
	Log     Log     `yaml:"log"`
	Server  Server  `yaml:"server"`
	LLM     LLM     `yaml:"llm"`
	Search  Search  `yaml:"search"`
	Redis   Redis   `yaml:"redis"`
	Session Session `yaml:"session"`
	Planner Planner `yaml:"planner"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    Log{Level: "info"},
		Server: Server{Addr: ":8080"},
		LLM: LLM{
			Provider: "eino",
			Model:    "gpt-4o-mini",
			Timeout:  45 * time.Second,
		},
		Search: Search{
			Transport: "stdio",
			Command:   "npx",
			Tool:      "tavily-search",
			Timeout:   20 * time.Second,
			CacheTTL:  10 * time.Minute,
		},
		Redis:   Redis{LockTTL: 30 * time.Second},
		Session: Session{IdleTTL: 2 * time.Hour},
		Planner: Planner{MaxSearchRetries: 3},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// API keys left empty are taken from the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Slices are filled afterwards: decoding onto a non-empty slice
	// keeps its trailing elements.
	if cfg.Search.Command == "npx" && len(cfg.Search.Args) == 0 {
		cfg.Search.Args = []string{"-y", "tavily-mcp@latest"}
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(EnvOpenAIKey)
	}
	if cfg.Redis.EncryptionKey == "" {
		cfg.Redis.EncryptionKey = os.Getenv(EnvStoreKey)
	}
	if key := os.Getenv(EnvTavilyKey); key != "" {
		if cfg.Search.Env == nil {
			cfg.Search.Env = map[string]string{}
		}
		if cfg.Search.Env[EnvTavilyKey] == "" {
			cfg.Search.Env[EnvTavilyKey] = key
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerations and the reference date.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "eino", "openai", "none":
	default:
		return fmt.Errorf("llm.provider: unknown value %q", c.LLM.Provider)
	}
	switch c.Search.Transport {
	case "stdio", "sse", "none":
	default:
		return fmt.Errorf("search.transport: unknown value %q", c.Search.Transport)
	}
	if c.Search.Transport == "sse" && c.Search.URL == "" {
		return fmt.Errorf("search.url is required for the sse transport")
	}
	if c.Redis.EncryptionKey != "" {
		if _, _, err := c.Redis.Keys(); err != nil {
			return err
		}
	}
	if c.Planner.ReferenceDate != "" {
		if _, err := time.Parse(domain.DateLayout, c.Planner.ReferenceDate); err != nil {
			return fmt.Errorf("planner.reference_date: %w", err)
		}
	}
	return nil
}

// Clock returns the planner's notion of now: the reference date when set,
// the wall clock otherwise.
func (c Config) Clock() func() time.Time {
	if d, err := time.Parse(domain.DateLayout, c.Planner.ReferenceDate); err == nil {
		return func() time.Time { return d }
	}
	return time.Now
}

// Keys decodes the encryption keys.
func (r Redis) Keys() (active []byte, fallbacks [][]byte, err error) {
	active, err = base64.StdEncoding.DecodeString(r.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("redis.encryption_key: %w", err)
	}
	for i, k := range r.FallbackKeys {
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("redis.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, b)
	}
	return active, fallbacks, nil
}
