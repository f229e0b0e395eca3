package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	// OutputFormat is the audio container written for clips and the final
	// mashup: mp3, m4a, wav or flac.
	OutputFormat string `yaml:"output_format"`

	DownloadWorkers int  `yaml:"download_workers"`
	ProcessWorkers  int  `yaml:"process_workers"`
	MaxRetries      int  `yaml:"max_retries"`
	ModifyTags      bool `yaml:"modify_tags"`

	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS storage options
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		OutputFormat:    "mp3",
		DownloadWorkers: 15,
		ProcessWorkers:  8,
		MaxRetries:      3,
		ModifyTags:      true,
		Server:          ServerConfig{Port: "8080"},
		Storage:         StorageConfig{Type: "local", OutputDir: "output"},
	}
}

// Load reads the YAML configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch config.Storage.Type {
	case "local", "gcs":
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Storage.Type)
	}

	return config, nil
}
