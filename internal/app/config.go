package app

import (
	"fmt"
	"os"
	"strings"

	coreconfig "github.com/m3rciful/shopbot/core/config"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// CommerceConfig holds the Elastic Path storefront credentials.
type CommerceConfig struct {
	BaseURL      string `yaml:"base_url" envconfig:"ELASTICPATH_BASE_URL"`
	ClientID     string `yaml:"client_id" envconfig:"ELASTICPATH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" envconfig:"ELASTICPATH_CLIENT_SECRET"`
	// TimeoutSeconds bounds one backend API call; 0 -> client default.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"ELASTICPATH_TIMEOUT_SECONDS"`
}

// Config aggregates core bot settings and shop-specific sections.
type Config struct {
	Core     coreconfig.Config `yaml:",inline"`
	Commerce CommerceConfig    `yaml:"commerce"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := validateCommerce(&cfg.Commerce); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateCommerce(cfg *CommerceConfig) error {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("commerce.client_id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return fmt.Errorf("commerce.client_secret is required")
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("commerce.timeout_seconds must be >= 0")
	}
	return nil
}
