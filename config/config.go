// Package config loads settings from an optional YAML file, .env files and
// the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/feitianbubu/aistudio"
	"github.com/feitianbubu/aistudio/adapters/zhipu"
	"github.com/feitianbubu/aistudio/proxy"
)

// Config holds the application configuration. An empty APIKey is not a
// load error; the first provider call reports it.
type Config struct {
	Provider   string `yaml:"provider" envconfig:"AISTUDIO_PROVIDER"`
	APIKey     string `yaml:"api_key" envconfig:"ZHIPU_API_KEY"`
	Endpoint   string `yaml:"api_endpoint" envconfig:"ZHIPU_API_ENDPOINT"`
	ImageModel string `yaml:"image_model" envconfig:"ZHIPU_IMAGE_MODEL"`
	VideoModel string `yaml:"video_model" envconfig:"ZHIPU_VIDEO_MODEL"`
	AuthMode   string `yaml:"auth_mode" envconfig:"ZHIPU_AUTH_MODE"`

	// ProviderExtra carries provider-specific options, "k:v,k2:v2" in env form
	ProviderExtra map[string]string `yaml:"provider_extra" envconfig:"AISTUDIO_PROVIDER_EXTRA"`

	RequestTimeout   time.Duration `yaml:"request_timeout" envconfig:"AISTUDIO_REQUEST_TIMEOUT"`
	PollInterval     time.Duration `yaml:"poll_interval" envconfig:"AISTUDIO_POLL_INTERVAL"`
	ProgressStep     int           `yaml:"progress_step" envconfig:"AISTUDIO_PROGRESS_STEP"`
	ProgressCeiling  int           `yaml:"progress_ceiling" envconfig:"AISTUDIO_PROGRESS_CEILING"`
	DownloadAttempts int           `yaml:"download_attempts" envconfig:"AISTUDIO_DOWNLOAD_ATTEMPTS"`
	DownloadBackoff  time.Duration `yaml:"download_backoff" envconfig:"AISTUDIO_DOWNLOAD_BACKOFF"`

	ProxyAddr       string `yaml:"proxy_addr" envconfig:"AISTUDIO_PROXY_ADDR"`
	ProxyURL        string `yaml:"proxy_url" envconfig:"AISTUDIO_PROXY_URL"`
	UpstreamReferer string `yaml:"upstream_referer" envconfig:"AISTUDIO_UPSTREAM_REFERER"`
	OutputDir       string `yaml:"output_dir" envconfig:"AISTUDIO_OUTPUT_DIR"`
	Lang            string `yaml:"lang" envconfig:"AISTUDIO_LANG"`
	LogDir          string `yaml:"log_dir" envconfig:"AISTUDIO_LOG_DIR"`
}

// legacyKeyEnv is the credential name used by the web deployment
const legacyKeyEnv = "NEXT_PUBLIC_ZHIPU_API_KEY"

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Provider:         string(aistudio.ProviderZhipu),
		Endpoint:         zhipu.DefaultBaseURL,
		ImageModel:       zhipu.DefaultImageModel,
		VideoModel:       zhipu.DefaultVideoModel,
		AuthMode:         zhipu.AuthModeKey,
		RequestTimeout:   30 * time.Second,
		PollInterval:     aistudio.DefaultPollInterval,
		ProgressStep:     aistudio.DefaultProgressStep,
		ProgressCeiling:  aistudio.DefaultProgressCeiling,
		DownloadAttempts: aistudio.DefaultDownloadAttempts,
		DownloadBackoff:  aistudio.DefaultDownloadBackoff,
		ProxyAddr:        ":8080",
		UpstreamReferer:  proxy.DefaultReferer,
		OutputDir:        ".",
		Lang:             string(aistudio.LanguageEnglish),
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is not an error. envFiles default to ".env" and are loaded
// without overriding variables already set in the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(legacyKeyEnv)
	}

	return cfg, nil
}

// ProviderType returns the configured provider
func (c *Config) ProviderType() aistudio.ProviderType {
	return aistudio.ProviderType(c.Provider)
}

// ProviderConfig returns the provider settings
func (c *Config) ProviderConfig() *aistudio.ProviderConfig {
	return &aistudio.ProviderConfig{
		BaseURL:    c.Endpoint,
		APIKey:     c.APIKey,
		ImageModel: c.ImageModel,
		VideoModel: c.VideoModel,
		AuthMode:   c.AuthMode,
		Timeout:    c.RequestTimeout,
		Extra:      c.ProviderExtra,
	}
}

// ClientConfig returns the client settings
func (c *Config) ClientConfig(logger *log.Logger) *aistudio.ClientConfig {
	return &aistudio.ClientConfig{Timeout: c.RequestTimeout, Logger: logger}
}

// PollerConfig returns the poller settings
func (c *Config) PollerConfig(logger *log.Logger) *aistudio.PollerConfig {
	return &aistudio.PollerConfig{
		Interval: c.PollInterval,
		Step:     c.ProgressStep,
		Ceiling:  c.ProgressCeiling,
		Logger:   logger,
	}
}

// DownloaderConfig returns the downloader settings
func (c *Config) DownloaderConfig(logger *log.Logger) *aistudio.DownloaderConfig {
	return &aistudio.DownloaderConfig{
		MaxAttempts: c.DownloadAttempts,
		Backoff:     c.DownloadBackoff,
		OutputDir:   c.OutputDir,
		Logger:      logger,
	}
}

// FetcherConfig returns the upstream fetcher settings
func (c *Config) FetcherConfig(logger *log.Logger) *proxy.FetcherConfig {
	return &proxy.FetcherConfig{
		Timeout: c.RequestTimeout,
		Referer: c.UpstreamReferer,
		Logger:  logger,
	}
}

// Language returns the language for user-facing messages
func (c *Config) Language() aistudio.Language {
	return aistudio.ParseLanguage(c.Lang)
}
