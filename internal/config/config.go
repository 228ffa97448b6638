package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string `yaml:"port"`
		SessionSecret  string `yaml:"session_secret"`
		SessionIdleTTL string `yaml:"session_idle_ttl"`
	} `yaml:"server"`
	Provider struct {
		APIKey        string `yaml:"api_key"`
		BaseURL       string `yaml:"base_url"`
		Model         string `yaml:"model"`
		Timeout       string `yaml:"timeout"`
		Verbose       bool   `yaml:"verbose"`
		TranscriptDir string `yaml:"transcript_dir"`
	} `yaml:"provider"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
}

// Load reads YAML config from path. A missing file is not an error: the
// returned config then only carries environment fallbacks.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("API_KEY")
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
