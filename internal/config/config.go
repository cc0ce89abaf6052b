package config

import (
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port              string  `yaml:"port"`
		ReadTimeout       string  `yaml:"readTimeout"`
		WriteTimeout      string  `yaml:"writeTimeout"`
		MessagesPerSecond float64 `yaml:"messagesPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game      Game      `yaml:"game"`
	Questions Questions `yaml:"questions"`
	Catalog   struct {
		Avatars    []string `yaml:"avatars"`
		Categories []string `yaml:"categories"`
	} `yaml:"catalog"`
}

type Game struct {
	QuestionTimeout   string `yaml:"questionTimeout"`
	RevealDelay       string `yaml:"revealDelay"`
	AnnounceDelay     string `yaml:"announceDelay"`
	SkipDelay         string `yaml:"skipDelay"`
	FinishedTTL       string `yaml:"finishedTTL"`
	DefaultQuestions  int    `yaml:"defaultQuestions"`
	MinQuestions      int    `yaml:"minQuestions"`
	MaxQuestions      int    `yaml:"maxQuestions"`
	DefaultCategory   string `yaml:"defaultCategory"`
	DefaultDifficulty string `yaml:"defaultDifficulty"`
}

type Questions struct {
	BankTTL string `yaml:"bankTTL"`
	Gemini  struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gemini"`
}

// envOverrides are read from the process environment after the YAML file.
type envOverrides struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	RedisAddr    string `env:"REDIS_ADDR"`
	PostgresURL  string `env:"DATABASE_URL"`
	LogLevel     string `env:"LOG_LEVEL"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	var overrides envOverrides
	if _, err := env.UnmarshalFromEnviron(&overrides); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	overrides.apply(&cfg)
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultCategories and DefaultAvatars are served when the catalog section is empty.
var (
	DefaultCategories = []string{"General", "Science", "History", "Geography", "Sports", "Entertainment", "Technology"}
	DefaultAvatars    = []string{
		"https://api.dicebear.com/7.x/bottts/svg?seed=1",
		"https://api.dicebear.com/7.x/bottts/svg?seed=2",
		"https://api.dicebear.com/7.x/bottts/svg?seed=3",
		"https://api.dicebear.com/7.x/bottts/svg?seed=4",
		"https://api.dicebear.com/7.x/bottts/svg?seed=5",
		"https://api.dicebear.com/7.x/bottts/svg?seed=6",
		"https://api.dicebear.com/7.x/bottts/svg?seed=7",
		"https://api.dicebear.com/7.x/bottts/svg?seed=8",
	}
)

func (c *Config) applyDefaults() {
	if len(c.Catalog.Categories) == 0 {
		c.Catalog.Categories = DefaultCategories
	}
	if len(c.Catalog.Avatars) == 0 {
		c.Catalog.Avatars = DefaultAvatars
	}
}

func (o envOverrides) apply(cfg *Config) {
	if o.GeminiAPIKey != "" {
		cfg.Questions.Gemini.APIKey = o.GeminiAPIKey
	}
	if o.RedisAddr != "" {
		cfg.Redis.Addr = o.RedisAddr
	}
	if o.PostgresURL != "" {
		cfg.Postgres.URL = o.PostgresURL
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
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
