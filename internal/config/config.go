package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all dhammi configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Cache    CacheConfig    `mapstructure:"cache"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Firewall FirewallConfig `mapstructure:"firewall"`
	RAG      RAGConfig      `mapstructure:"rag"`
	News     NewsConfig     `mapstructure:"news"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // empty = ~/.dhammi/dhammi.db
}

// LedgerConfig selects and configures the CTTM fact ledger.
type LedgerConfig struct {
	Backend         string        `mapstructure:"backend"` // "auto", "sheets", "xlsx", "sqlite", "file", "memory", "none"
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	Worksheet       string        `mapstructure:"worksheet"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	APIKey          string        `mapstructure:"api_key"` // read-only access to public sheets
	XLSXPath        string        `mapstructure:"xlsx_path"`
	FactsFile       string        `mapstructure:"facts_file"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the optional shared snapshot cache.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"` // empty = process-local cache only
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Key           string `mapstructure:"key"`
}

type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // "gemini", "anthropic", "ollama", "mock"
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"` // Gemini
	AnthropicKey    string        `mapstructure:"anthropic_key"`
	OllamaURL       string        `mapstructure:"ollama_url"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type FirewallConfig struct {
	Match string `mapstructure:"match"` // "substring" (default) or "word"
}

type RAGConfig struct {
	Limit int `mapstructure:"limit"`
}

type NewsConfig struct {
	Schedule string        `mapstructure:"schedule"` // cron expression, empty = disabled
	Timeout  time.Duration `mapstructure:"timeout"`  // per source
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Ledger: LedgerConfig{
			Backend:   "auto",
			Worksheet: "CTTM_Facts",
			CacheTTL:  10 * time.Minute,
			Timeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			Key: "dhammi:cttm:snapshot",
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.5-flash",
			OllamaURL:       "http://localhost:11434",
			Temperature:     0.7,
			MaxOutputTokens: 1024,
			Timeout:         120 * time.Second,
		},
		Firewall: FirewallConfig{
			Match: "substring",
		},
		RAG: RAGConfig{
			Limit: 3,
		},
		News: NewsConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (or the default search locations when
// path is empty), then applies DHAMMI_* environment overrides. A missing
// config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dhammi")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dhammi"))
		}
	}

	v.SetEnvPrefix("DHAMMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys under their conventional names.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.LLM.AnthropicKey == "" {
		cfg.LLM.AnthropicKey = key
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// never appear in a config file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.bind", d.Server.Bind)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("ledger.backend", d.Ledger.Backend)
	v.SetDefault("ledger.spreadsheet_id", d.Ledger.SpreadsheetID)
	v.SetDefault("ledger.worksheet", d.Ledger.Worksheet)
	v.SetDefault("ledger.credentials_file", d.Ledger.CredentialsFile)
	v.SetDefault("ledger.api_key", d.Ledger.APIKey)
	v.SetDefault("ledger.xlsx_path", d.Ledger.XLSXPath)
	v.SetDefault("ledger.facts_file", d.Ledger.FactsFile)
	v.SetDefault("ledger.cache_ttl", d.Ledger.CacheTTL)
	v.SetDefault("ledger.timeout", d.Ledger.Timeout)

	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.key", d.Cache.Key)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.anthropic_key", d.LLM.AnthropicKey)
	v.SetDefault("llm.ollama_url", d.LLM.OllamaURL)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_output_tokens", d.LLM.MaxOutputTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("firewall.match", d.Firewall.Match)
	v.SetDefault("rag.limit", d.RAG.Limit)
	v.SetDefault("news.schedule", d.News.Schedule)
	v.SetDefault("news.timeout", d.News.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Ledger.Backend {
	case "auto", "sheets", "xlsx", "sqlite", "file", "memory", "none":
	default:
		return fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend)
	}
	if c.Ledger.CacheTTL <= 0 {
		return fmt.Errorf("ledger.cache_ttl must be positive")
	}
	if c.Ledger.Timeout <= 0 {
		return fmt.Errorf("ledger.timeout must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature out of range: %v", c.LLM.Temperature)
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens must be positive")
	}
	switch c.Firewall.Match {
	case "", "substring", "word":
	default:
		return fmt.Errorf("unknown firewall.match %q", c.Firewall.Match)
	}
	if c.RAG.Limit <= 0 {
		return fmt.Errorf("rag.limit must be positive")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// SheetsConfigured reports whether enough is set to reach a Google Sheet.
func (l LedgerConfig) SheetsConfigured() bool {
	return l.SpreadsheetID != "" && (l.CredentialsFile != "" || l.APIKey != "")
}
