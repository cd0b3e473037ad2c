package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. ACM_API_KEY.
const EnvPrefix = "ACM"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Ledger
	QuarterWidthPx    float64 `mapstructure:"quarter_width_px" yaml:"quarter_width_px"`
	SnippetRows       int     `mapstructure:"snippet_rows" yaml:"snippet_rows"`
	SnippetTokenLimit int     `mapstructure:"snippet_token_limit" yaml:"snippet_token_limit"`
	AuditConcurrency  int     `mapstructure:"audit_concurrency" yaml:"audit_concurrency"`

	LogMode string `mapstructure:"log_mode" yaml:"log_mode"`
}

var defaults = map[string]any{
	"default_model":       "openai/gpt-4o-mini",
	"default_provider":    "openrouter",
	"max_tokens":          4096,
	"temperature":         0.2,
	"http_timeout_sec":    60,
	"retry_max_attempts":  3,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"ollama_host":         "http://127.0.0.1:11434",
	"ollama_timeout_sec":  120,
	"quarter_width_px":    160.0,
	"snippet_rows":        20,
	"snippet_token_limit": 6000,
	"audit_concurrency":   3,
	"log_mode":            "dev",
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults)+1)
	out = append(out, "api_key")
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultPath returns ~/.acm/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".acm", "config.yaml"), nil
}

// Save writes the given configuration to cfgFile, or to DefaultPath when
// cfgFile is empty, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from defaults, the config file, a .env file in
// the working directory and the environment, later sources winning.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is normal; variables already set in the shell win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	// Bound explicitly so Unmarshal sees it even without a file entry.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENROUTER_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns key from its string form, converting to the field's type.
func (c *Global) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "api_key":
		c.APIKey = value
	case "default_model":
		c.DefaultModel = value
	case "default_provider":
		p := strings.ToLower(value)
		if p != "openrouter" && p != "ollama" {
			return fmt.Errorf("default_provider must be openrouter or ollama, got %q", value)
		}
		c.DefaultProvider = p
	case "ollama_host":
		c.OllamaHost = value
	case "log_mode":
		m := strings.ToLower(value)
		if m != "dev" && m != "prod" {
			return fmt.Errorf("log_mode must be dev or prod, got %q", value)
		}
		c.LogMode = m
	case "temperature":
		return setFloat(&c.Temperature, key, value)
	case "quarter_width_px":
		return setFloat(&c.QuarterWidthPx, key, value)
	case "max_tokens":
		return setInt(&c.MaxTokens, key, value)
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, key, value)
	case "retry_max_attempts":
		return setInt(&c.RetryMaxAttempts, key, value)
	case "retry_base_delay_ms":
		return setInt(&c.RetryBaseDelayMs, key, value)
	case "retry_max_delay_ms":
		return setInt(&c.RetryMaxDelayMs, key, value)
	case "ollama_timeout_sec":
		return setInt(&c.OllamaTimeoutSec, key, value)
	case "snippet_rows":
		return setInt(&c.SnippetRows, key, value)
	case "snippet_token_limit":
		return setInt(&c.SnippetTokenLimit, key, value)
	case "audit_concurrency":
		return setInt(&c.AuditConcurrency, key, value)
	default:
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("%s must be a non-negative number, got %q", key, value)
	}
	*dst = f
	return nil
}

// HTTPTimeout returns the provider timeout for the named provider.
func (c *Global) HTTPTimeout(provider string) time.Duration {
	if strings.EqualFold(provider, "ollama") && c.OllamaTimeoutSec > 0 {
		return time.Duration(c.OllamaTimeoutSec) * time.Second
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// Redacted returns a copy safe to print.
func (c Global) Redacted() Global {
	if c.APIKey != "" {
		if len(c.APIKey) > 8 {
			c.APIKey = c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
		} else {
			c.APIKey = "****"
		}
	}
	return c
}
