// Package config loads service configuration from defaults, an optional YAML
// file and BIRDCARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultHost            = "127.0.0.1"
	defaultPort            = 8080
	defaultAssetDir        = "assets"
	defaultDataDir         = "data"
	defaultLogLevel        = "info"
	defaultExportScale     = 2
	defaultRemover         = "whitekey"
	defaultRemoverTimeout  = 60 * time.Second
	defaultDownloadTimeout = 10 * time.Second
	defaultWhiteThreshold  = 65000
	defaultBreakpoint      = 768
	defaultSessionTTL      = 2 * time.Hour
	defaultMaxUploadBytes  = 10 << 20
)

// Remover backends.
const (
	RemoverWhiteKey = "whitekey"
	RemoverHTTP     = "http"
	RemoverNone     = "none"
)

// Config is the runtime configuration of the card service.
type Config struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Addr             string        `mapstructure:"addr"`
	AssetDir         string        `mapstructure:"asset-dir"`
	DataDir          string        `mapstructure:"data-dir"`
	LogLevel         string        `mapstructure:"log-level"`
	ExportScale      int           `mapstructure:"export-scale"`
	Remover          string        `mapstructure:"remover"`
	RemoverURL       string        `mapstructure:"remover-url"`
	RemoverTimeout   time.Duration `mapstructure:"remover-timeout"`
	DownloadTimeout  time.Duration `mapstructure:"download-timeout"`
	WhiteThreshold   int           `mapstructure:"white-threshold"`
	PublicURL        string        `mapstructure:"public-url"`
	Breakpoint       int           `mapstructure:"breakpoint"`
	SessionTTL       time.Duration `mapstructure:"session-ttl"`
	MaxUploadBytes   int64         `mapstructure:"max-upload-bytes"`
	// AllowPrivateURLs lets silhouette URLs reach loopback and private hosts.
	AllowPrivateURLs bool          `mapstructure:"allow-private-urls"`
	ConfigPath       string        `mapstructure:"-"`
}

// Load reads configuration. A missing config file is not an error.
func Load(configPath string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetEnvPrefix("BIRDCARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("addr", "")
	v.SetDefault("asset-dir", defaultAssetDir)
	v.SetDefault("data-dir", defaultDataDir)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("export-scale", defaultExportScale)
	v.SetDefault("remover", defaultRemover)
	v.SetDefault("remover-url", "")
	v.SetDefault("remover-timeout", defaultRemoverTimeout)
	v.SetDefault("download-timeout", defaultDownloadTimeout)
	v.SetDefault("white-threshold", defaultWhiteThreshold)
	v.SetDefault("public-url", "")
	v.SetDefault("breakpoint", defaultBreakpoint)
	v.SetDefault("session-ttl", defaultSessionTTL)
	v.SetDefault("max-upload-bytes", defaultMaxUploadBytes)
	v.SetDefault("allow-private-urls", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFound) && !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("reading %s: %w", configPath, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.Addr == "" {
		cfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.Addr
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ExportScale < 1 || c.ExportScale > 8 {
		return fmt.Errorf("invalid export-scale: %d", c.ExportScale)
	}
	switch c.Remover {
	case RemoverWhiteKey, RemoverNone:
	case RemoverHTTP:
		if c.RemoverURL == "" {
			return errors.New("remover-url is required when remover is http")
		}
	default:
		return fmt.Errorf("unknown remover: %q", c.Remover)
	}
	if c.WhiteThreshold < 0 || c.WhiteThreshold > 0xffff {
		return fmt.Errorf("invalid white-threshold: %d", c.WhiteThreshold)
	}
	return nil
}
