package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/weberc2/resetui/pkg/logging"
	"github.com/weberc2/resetui/pkg/resetpassword"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "RESETUI"
	appName      = "resetui"
)

type Config struct {
	Addr          string        `envconfig:"ADDR"           yaml:"addr"`
	APIBaseURL    string        `envconfig:"API_BASE_URL"   yaml:"apiBaseURL"`
	AppLink       string        `envconfig:"APP_LINK"       yaml:"appLink"`
	RedirectDelay time.Duration `envconfig:"REDIRECT_DELAY" yaml:"redirectDelay"`
	SubmitTimeout time.Duration `envconfig:"SUBMIT_TIMEOUT" yaml:"submitTimeout"`
	LogLevel      string        `envconfig:"LOG_LEVEL"      yaml:"logLevel"`
	LogFormat     string        `envconfig:"LOG_FORMAT"     yaml:"logFormat"`
}

func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		AppLink:       resetpassword.DefaultAppLink,
		RedirectDelay: resetpassword.DefaultRedirectDelay,
		SubmitTimeout: resetpassword.DefaultSubmitTimeout,
		LogLevel:      zerolog.InfoLevel.String(),
		LogFormat:     logging.FormatJSON,
	}
}

// DefaultConfigFile is read when `RESETUI_CONFIG_FILE` is unset. It's fine
// for it not to exist.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// LoadDotEnv loads `.env` from the working directory, if there is one.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// LoadConfig layers the config file (if it exists) and then the
// environment over `DefaultConfig()`.
func LoadConfig(configFile string) (*Config, error) {
	c := DefaultConfig()
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Addr == "" {
			return "addr", "ADDR"
		}
		if c.APIBaseURL == "" {
			return "apiBaseURL", "API_BASE_URL"
		}
		if c.AppLink == "" {
			return "appLink", "APP_LINK"
		}
		if c.LogLevel == "" {
			return "logLevel", "LOG_LEVEL"
		}
		if c.LogFormat == "" {
			return "logFormat", "LOG_FORMAT"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid configuration: apiBaseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf(
			"invalid configuration: apiBaseURL: wanted absolute http(s) "+
				"URL; found `%s`",
			c.APIBaseURL,
		)
	}

	if c.RedirectDelay <= 0 {
		return fmt.Errorf(
			"invalid configuration: redirectDelay: wanted positive "+
				"duration; found `%s`",
			c.RedirectDelay,
		)
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf(
			"invalid configuration: submitTimeout: wanted positive "+
				"duration; found `%s`",
			c.SubmitTimeout,
		)
	}
	return nil
}

// Logger builds the process logger from `LogLevel` and `LogFormat`.
func (c *Config) Logger() (zerolog.Logger, error) {
	logger, err := logging.New(os.Stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		return logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return logger, nil
}
