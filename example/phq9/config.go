package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tbxark/phqintake/fill"
)

type Config struct {
	APIKey        string `json:"api_key"`
	BaseURL       string `json:"base_url"`
	Model         string `json:"model"`
	Lang          string `json:"lang"`
	Timeout       string `json:"timeout"`
	MaxRetries    *int   `json:"max_retries"`
	RedisURL      string `json:"redis_url"`
	SessionTTL    string `json:"session_ttl"`
	Questionnaire string `json:"questionnaire"`
	// OfflineFollowUp asks about the remaining topics by keyword when the
	// model cannot produce a follow-up, instead of the fixed fallback question.
	OfflineFollowUp bool `json:"offline_followup"`
}

// loadConfig reads path when it exists. A missing file is not an error; every
// field has a default or comes from the environment.
func loadConfig(path string) (*Config, error) {
	conf := &Config{}
	file, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := sonic.Unmarshal(file, conf); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		conf.APIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		conf.BaseURL = url
	}
	if conf.Model == "" {
		conf.Model = "gpt-4o-mini"
	}
	if conf.Lang == "" {
		conf.Lang = "English"
	}
	if conf.Questionnaire == "" {
		conf.Questionnaire = "questionnaire/phq9.json"
	}
	return conf, nil
}

func (c *Config) timeout() (time.Duration, error) {
	return parseDuration(c.Timeout, fill.DefaultTimeout)
}

func (c *Config) sessionTTL() (time.Duration, error) {
	return parseDuration(c.SessionTTL, 24*time.Hour)
}

func (c *Config) maxRetries() int {
	if c.MaxRetries == nil {
		return fill.DefaultMaxRetries
	}
	return *c.MaxRetries
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
