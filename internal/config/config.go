// Package config loads the service configuration from an optional YAML
// file and the feed list from a plain newline-delimited file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI wires into the components.
type Config struct {
	RedisAddr        string `yaml:"redis_addr"`
	BadgerPath       string `yaml:"badger_path"`
	FeedsFile        string `yaml:"feeds_file"`
	RetentionDays    int    `yaml:"retention_days"`
	FetchIntervalMin int    `yaml:"fetch_interval_minutes"`
	Port             string `yaml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RedisAddr:        "localhost:6379",
		BadgerPath:       "./badger-data",
		FeedsFile:        "./feeds.txt",
		RetentionDays:    30,
		FetchIntervalMin: 60,
		Port:             "8080",
	}
}

// FetchInterval returns the ingestion cadence as a duration.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalMin) * time.Minute
}

// Load reads the YAML config at path. Fields missing from the file keep
// their defaults. An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention_days must be positive, got %d", cfg.RetentionDays)
	}
	if cfg.FetchIntervalMin <= 0 {
		return nil, fmt.Errorf("fetch_interval_minutes must be positive, got %d", cfg.FetchIntervalMin)
	}
	return cfg, nil
}

// LoadFeeds reads the newline-delimited feed list. Blank lines and lines
// starting with # are ignored. A missing file means no feeds are
// configured, which is a valid (empty) setup, not an error.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening feeds file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}
	return urls, nil
}
