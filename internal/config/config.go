// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // file | postgres
	File   string `yaml:"file"`   // path to conversations.json when driver=file
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	Endpoint    string        `yaml:"endpoint"` // self-hosted generation endpoint (POST /generate)
	OpenAIKey   string        `yaml:"openai_key"`
	GeminiKey   string        `yaml:"gemini_key"`
	GeminiURL   string        `yaml:"gemini_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type NotificationConfig struct {
	OperatorEmail string `yaml:"operator_email"`
	Nylas         struct {
		APIKey  string `yaml:"api_key"`
		GrantID string `yaml:"grant_id"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"nylas"`
}

type ChatConfig struct {
	// MessageLimit is the number of user messages a visitor may send before
	// free-form replies are gated behind contact capture.
	MessageLimit int `yaml:"message_limit"`
	// NotifyAfter is the message count at which a summary is generated and
	// the operator notification fires.
	NotifyAfter int `yaml:"notify_after"`
	// QualifyThreshold is the score at or above which a lead is qualified.
	QualifyThreshold int `yaml:"qualify_threshold"`
	// RateLimit / RateWindow bound chat turns per visitor IP.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type KnowledgeConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Admin        AdminConfig        `yaml:"admin"`
	Log          LogConfig          `yaml:"log"`
	Storage      StorageConfig      `yaml:"storage"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	AI           AIConfig           `yaml:"ai"`
	Notification NotificationConfig `yaml:"notification"`
	Chat         ChatConfig         `yaml:"chat"`
	Knowledge    KnowledgeConfig    `yaml:"knowledge"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.File == "" {
		cfg.Storage.File = "logs/conversations.json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 500
	}
	if cfg.AI.Temperature <= 0 {
		cfg.AI.Temperature = 0.7
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 15 * time.Second
	}
	if cfg.Notification.Nylas.BaseURL == "" {
		cfg.Notification.Nylas.BaseURL = "https://api.us.nylas.com/v3"
	}
	if cfg.Chat.MessageLimit <= 0 {
		cfg.Chat.MessageLimit = 10
	}
	if cfg.Chat.NotifyAfter <= 0 {
		cfg.Chat.NotifyAfter = 5
	}
	if cfg.Chat.QualifyThreshold <= 0 {
		cfg.Chat.QualifyThreshold = 70
	}
	if cfg.Chat.RateLimit <= 0 {
		cfg.Chat.RateLimit = 20
	}
	if cfg.Chat.RateWindow <= 0 {
		cfg.Chat.RateWindow = time.Minute
	}
	if cfg.Knowledge.Dir == "" {
		cfg.Knowledge.Dir = "knowledge"
	}

	// Minimal validation
	if cfg.Storage.Driver != "file" && cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("storage.driver must be file or postgres, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "postgres" && cfg.Database.URL == "" {
		return nil, errors.New("database.url is required when storage.driver=postgres")
	}
	if !dev && cfg.Admin.APIKey == "" {
		return nil, errors.New("admin.api_key is required outside dev mode")
	}
	if cfg.Admin.JWTSecret == "" {
		cfg.Admin.JWTSecret = cfg.Admin.APIKey
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
