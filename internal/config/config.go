package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration, loaded from YAML with environment
// variable expansion so secrets stay out of the file.
type Config struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Anthropic struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"anthropic"`

	Slack struct {
		Enabled         bool   `yaml:"enabled"`
		BotToken        string `yaml:"bot_token"`
		AppToken        string `yaml:"app_token"`
		DigestChannelID string `yaml:"digest_channel_id"`
	} `yaml:"slack"`

	Digest struct {
		MorningCron string `yaml:"morning_cron"`
		EveningCron string `yaml:"evening_cron"`
	} `yaml:"digest"`

	Sessions struct {
		DefaultWorkMinutes  int `yaml:"default_work_minutes"`
		DefaultBreakMinutes int `yaml:"default_break_minutes"`
	} `yaml:"sessions"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadFromBytes loads configuration from YAML bytes, expanding ${VAR}
// references from the environment first.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

// Load reads configuration from a YAML file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "focusbot"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8710
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/focusbot.db"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Sessions.DefaultWorkMinutes <= 0 {
		c.Sessions.DefaultWorkMinutes = 25
	}
	if c.Sessions.DefaultBreakMinutes <= 0 {
		c.Sessions.DefaultBreakMinutes = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
