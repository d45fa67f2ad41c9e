// Package config loads the application configuration.
//
// Sources are applied from the lowest to the highest priority:
// built-in defaults, a JSON or YAML config file, the environment (including
// a .env file), command line flags, and finally programmatic overrides.
// The result is validated before it is returned.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/patric-chuzhbe/userfront/internal/settings"
)

type Config struct {
	APIBaseURL           string        `env:"API_BASE_URL" validate:"required,url"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	RunAddr              string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel             string        `env:"LOG_LEVEL" validate:"loglevel"`
	DefaultLocale        string        `env:"DEFAULT_LOCALE" validate:"locale"`
	RefreshInterval      time.Duration `env:"REFRESH_INTERVAL" validate:"gt=0"`
	PeriodicRefresh      bool          `env:"PERIODIC_REFRESH"`
	RefreshQueueCapacity int           `env:"REFRESH_QUEUE_CAPACITY" validate:"gte=1"`
	UpdateMissPolicy     string        `env:"UPDATE_MISS_POLICY" validate:"oneof=ignore append refetch"`
	ConfigFile           string        `env:"CONFIG"`
}

// fileConfig is the on-disk shape; durations are written as "10s".
type fileConfig struct {
	APIBaseURL           string `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout       string `json:"request_timeout" yaml:"request_timeout"`
	RunAddr              string `json:"server_address" yaml:"server_address"`
	LogLevel             string `json:"log_level" yaml:"log_level"`
	DefaultLocale        string `json:"default_locale" yaml:"default_locale"`
	RefreshInterval      string `json:"refresh_interval" yaml:"refresh_interval"`
	PeriodicRefresh      *bool  `json:"periodic_refresh" yaml:"periodic_refresh"`
	RefreshQueueCapacity int    `json:"refresh_queue_capacity" yaml:"refresh_queue_capacity"`
	UpdateMissPolicy     string `json:"update_miss_policy" yaml:"update_miss_policy"`
}

var defaultConfig = Config{
	APIBaseURL:           "https://54079.wu.elitepro.ltd",
	RequestTimeout:       10 * time.Second,
	RunAddr:              ":8080",
	LogLevel:             "info",
	DefaultLocale:        settings.FallbackLocale,
	RefreshInterval:      30 * time.Second,
	PeriodicRefresh:      false,
	RefreshQueueCapacity: 16,
	UpdateMissPolicy:     "refetch",
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
		"dpanic": true,
		"panic":  true,
		"fatal":  true,
	}

	return allowedLogLevels[value]
}

func validateLocale(fieldLevel validator.FieldLevel) bool {
	return settings.IsSupported(fieldLevel.Field().String())
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("locale", validateLocale)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

func (values *Config) loadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadFile(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &fromFile)
	default:
		err = json.Unmarshal(content, &fromFile)
	}
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadFile(): error while decoding %q: %w", path, err)
	}

	return values.applyFile(fromFile)
}

func (values *Config) applyFile(fromFile fileConfig) error {
	if fromFile.APIBaseURL != "" {
		values.APIBaseURL = fromFile.APIBaseURL
	}
	if fromFile.RunAddr != "" {
		values.RunAddr = fromFile.RunAddr
	}
	if fromFile.LogLevel != "" {
		values.LogLevel = fromFile.LogLevel
	}
	if fromFile.DefaultLocale != "" {
		values.DefaultLocale = fromFile.DefaultLocale
	}
	if fromFile.PeriodicRefresh != nil {
		values.PeriodicRefresh = *fromFile.PeriodicRefresh
	}
	if fromFile.RefreshQueueCapacity != 0 {
		values.RefreshQueueCapacity = fromFile.RefreshQueueCapacity
	}
	if fromFile.UpdateMissPolicy != "" {
		values.UpdateMissPolicy = fromFile.UpdateMissPolicy
	}

	if fromFile.RequestTimeout != "" {
		timeout, err := time.ParseDuration(fromFile.RequestTimeout)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/applyFile(): error while `time.ParseDuration()` calling: %w", err)
		}
		values.RequestTimeout = timeout
	}

	if fromFile.RefreshInterval != "" {
		interval, err := time.ParseDuration(fromFile.RefreshInterval)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/applyFile(): error while `time.ParseDuration()` calling: %w", err)
		}
		values.RefreshInterval = interval
	}

	return nil
}

func (values *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("userfront", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run the local facade on")
	flags.StringVar(&values.APIBaseURL, "b", values.APIBaseURL, "base URL of the remote user API")
	flags.DurationVar(&values.RequestTimeout, "t", values.RequestTimeout, "timeout of a single upstream request")
	flags.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
	flags.StringVar(&values.DefaultLocale, "locale", values.DefaultLocale, "default UI locale")

	return flags.Parse(args)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
	configFile          string
	overrides           []func(*Config)
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs sets the command line arguments to parse instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// WithConfigFile sets the config file path; it takes precedence over the CONFIG variable.
func WithConfigFile(path string) InitOption {
	return func(options *initOptions) {
		options.configFile = path
	}
}

// WithOverrides registers a function applied after every other source.
func WithOverrides(override func(*Config)) InitOption {
	return func(options *initOptions) {
		options.overrides = append(options.overrides, override)
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	values.ConfigFile = os.Getenv("CONFIG")
	if options.configFile != "" {
		values.ConfigFile = options.configFile
	}
	if values.ConfigFile != "" {
		if err := values.loadFile(values.ConfigFile); err != nil {
			return nil, err
		}
	}

	err = env.Parse(values)
	if err != nil {
		return nil, err
	}
	if options.configFile != "" {
		values.ConfigFile = options.configFile
	}

	if !options.disableFlagsParsing {
		if err := values.parseFlags(options.args); err != nil {
			return nil, err
		}
	}

	for _, override := range options.overrides {
		override(values)
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
