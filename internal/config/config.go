// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a scrape configuration from a YAML or JSON file, chosen
// by extension. Omitted fields keep their defaults; the result is validated
// before being returned.
func LoadFromFile(filename string) (*ScrapeConfig, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration file format: %s", filepath.Ext(filename))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SaveToFile writes a configuration to a YAML or JSON file, chosen by
// extension. The configuration is validated before saving.
func SaveToFile(cfg *ScrapeConfig, filename string) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return fmt.Errorf("unsupported configuration file format: %s", filepath.Ext(filename))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// GenerateTemplate returns a pre-configured template for common scraping
// scenarios. Unknown template names fall back to the basic template.
func GenerateTemplate(templateType string) ScrapeConfig {
	cfg := DefaultConfig()
	cfg.URL = "https://example.com"

	switch strings.ToLower(templateType) {
	case "news":
		cfg.Selectors = []string{"h1", "h2", ".article-title", ".headline", "p"}
		cfg.WaitForSelector = "h1"
		cfg.Delay = 2.0
		cfg.MaxPages = 5
	case "ecommerce":
		cfg.Selectors = []string{".product-title", ".price", ".description", ".rating"}
		cfg.WaitForSelector = ".product-title"
		cfg.Delay = 1.5
	case "social_media":
		cfg.Selectors = []string{".post-content", ".username", ".timestamp", ".likes"}
		cfg.Delay = 3.0
		cfg.Headless = false
	}

	return cfg
}

// TemplateNames lists the available template types.
func TemplateNames() []string {
	return []string{"basic", "news", "ecommerce", "social_media"}
}
