package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings for one audit run.
type Config struct {
	// ReposFile lists the subject repositories, one URL per line.
	ReposFile string `yaml:"reposFile"`

	// OutputDir receives the rendered reports.
	OutputDir string `yaml:"outputDir"`

	// TempDir holds cloned working copies for the duration of a scan.
	TempDir string `yaml:"tempDir"`

	Registry struct {
		BaseURL        string `yaml:"baseURL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"registry"`

	Summarizer struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
		APIKey  string `yaml:"-"` // environment only, never persisted
	} `yaml:"summarizer"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	config := &Config{
		ReposFile: "repos.txt",
		OutputDir: "scan_results",
		TempDir:   "temp_repos",
	}
	config.Registry.TimeoutSeconds = 10
	config.Summarizer.Enabled = true
	return config
}

// Load builds the effective configuration: defaults, then the YAML file if it
// exists, then environment variables (a .env file is honored when present).
// If no path is provided it looks for .repoaudit.yaml in the current
// directory; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	_ = godotenv.Load()

	if configPath == "" {
		configPath = ".repoaudit.yaml"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REPOAUDIT_REPOS_FILE"); v != "" {
		c.ReposFile = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SCAN_TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv("REPOAUDIT_REGISTRY_URL"); v != "" {
		c.Registry.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Summarizer.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Summarizer.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Summarizer.Model = v
	}
}
