package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override; "__" separates sections,
	// e.g. SANTACALL_SERVER__PORT.
	EnvPrefix = "SANTACALL_"

	// Provider credentials keep their conventional names.
	EnvAPIKey    = "TAVUS_API_KEY"
	EnvPersonaID = "TAVUS_PERSONA_ID"
)

// DefaultPaths are searched in order when no config path is given.
var DefaultPaths = []string{"./santacall.toml", "./config/santacall.toml", "$HOME/.santacall.toml"}

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Provider  ProviderConfig  `koanf:"provider"`
	Arcs      ArcsConfig      `koanf:"arcs"`
	Calls     CallsConfig     `koanf:"calls"`
	Greeting  GreetingConfig  `koanf:"greeting"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Health    HealthConfig    `koanf:"health"`
	Log       LogConfig       `koanf:"log"`

	// File is the config file that was loaded, empty when none was found.
	File string `koanf:"-"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	BodyLimit       string        `koanf:"body_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type ProviderConfig struct {
	BaseURL                string        `koanf:"base_url"`
	APIKey                 string        `koanf:"api_key"`
	PersonaID              string        `koanf:"persona_id"`
	Timeout                time.Duration `koanf:"timeout"`
	PingTimeout            time.Duration `koanf:"ping_timeout"`
	RateLimit              float64       `koanf:"rate_limit"`
	Burst                  int           `koanf:"burst"`
	ParticipantLeftTimeout int           `koanf:"participant_left_timeout"`
	EnableRecording        bool          `koanf:"enable_recording"`
}

type ArcsConfig struct {
	Path               string   `koanf:"path"`
	SupportedDurations []string `koanf:"supported_durations"`
}

type CallsConfig struct {
	MinAge        int `koanf:"min_age"`
	MaxAge        int `koanf:"max_age"`
	MaxNameLength int `koanf:"max_name_length"`
}

type GreetingConfig struct {
	Selection string `koanf:"selection"`
	Seed      int64  `koanf:"seed"`
}

type AnalyticsConfig struct {
	Timezone string `koanf:"timezone"`
}

type HealthConfig struct {
	ProbeProvider bool          `koanf:"probe_provider"`
	ProbeCacheTTL time.Duration `koanf:"probe_cache_ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":             8000,
		"server.cors_origins":     []string{"*"},
		"server.body_limit":       "64K",
		"server.shutdown_timeout": "10s",

		"provider.base_url":                 "https://tavusapi.com/v2",
		"provider.timeout":                  "30s",
		"provider.ping_timeout":             "5s",
		"provider.rate_limit":               5.0,
		"provider.burst":                    10,
		"provider.participant_left_timeout": 60,
		"provider.enable_recording":         false,

		"arcs.path":                "conversation-arcs.yaml",
		"arcs.supported_durations": []string{"5min", "10min"},

		"calls.min_age":         2,
		"calls.max_age":         12,
		"calls.max_name_length": 50,

		"greeting.selection": "random",
		"greeting.seed":      0,

		"analytics.timezone": "UTC",

		"health.probe_provider":  true,
		"health.probe_cache_ttl": "30s",

		"log.level":  "info",
		"log.format": "json",
	}
}

// LoadConfig loads the configuration from defaults, a TOML file and the
// environment, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	var loaded string
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		loaded = configPath
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			loaded = path
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	creds := map[string]interface{}{}
	if v := os.Getenv(EnvAPIKey); v != "" {
		creds["provider.api_key"] = v
	}
	if v := os.Getenv(EnvPersonaID); v != "" {
		creds["provider.persona_id"] = v
	}
	if len(creds) > 0 {
		if err := k.Load(confmap.Provider(creds, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading credentials: %w", err)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.File = loaded

	return &config, nil
}

// envKey maps SANTACALL_PROVIDER__RATE_LIMIT to provider.rate_limit.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Location resolves the analytics timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Analytics.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Analytics.Timezone)
}

// MissingCredentials lists unset provider credentials by their env names.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Provider.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.Provider.PersonaID == "" {
		missing = append(missing, EnvPersonaID)
	}
	return missing
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# santacall configuration
# Credentials are read from TAVUS_API_KEY and TAVUS_PERSONA_ID.

[server]
port = 8000
cors_origins = ["*"]

[provider]
base_url = "https://tavusapi.com/v2"
timeout = "30s"
participant_left_timeout = 60
enable_recording = false

[arcs]
path = "conversation-arcs.yaml"
supported_durations = ["5min", "10min"]

[calls]
min_age = 2
max_age = 12
max_name_length = 50

[greeting]
selection = "random"

[analytics]
timezone = "UTC"

[log]
level = "info"
format = "json"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate reports every structural problem in the configuration. Missing
// provider credentials are not an error here: the service still starts and
// reports itself degraded.
func Validate(config *Config) error {
	var errs []error

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", config.Server.Port))
	}
	if config.Provider.BaseURL == "" {
		errs = append(errs, errors.New("provider.base_url is required"))
	}
	if config.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider.timeout must be positive"))
	}
	if config.Provider.RateLimit < 0 || config.Provider.Burst < 0 {
		errs = append(errs, errors.New("provider.rate_limit and provider.burst must not be negative"))
	}
	if config.Provider.ParticipantLeftTimeout < 0 {
		errs = append(errs, errors.New("provider.participant_left_timeout must not be negative"))
	}
	if config.Arcs.Path == "" {
		errs = append(errs, errors.New("arcs.path is required"))
	}
	if len(config.Arcs.SupportedDurations) == 0 {
		errs = append(errs, errors.New("arcs.supported_durations must not be empty"))
	}
	if config.Calls.MinAge < 1 || config.Calls.MaxAge < config.Calls.MinAge {
		errs = append(errs, fmt.Errorf("calls age range %d-%d is invalid", config.Calls.MinAge, config.Calls.MaxAge))
	}
	if config.Calls.MaxNameLength < 1 {
		errs = append(errs, errors.New("calls.max_name_length must be positive"))
	}
	switch config.Greeting.Selection {
	case "random", "first":
	default:
		errs = append(errs, fmt.Errorf("greeting.selection must be \"random\" or \"first\", got %q", config.Greeting.Selection))
	}
	if _, err := config.Location(); err != nil {
		errs = append(errs, fmt.Errorf("analytics.timezone: %w", err))
	}
	switch config.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"json\" or \"console\", got %q", config.Log.Format))
	}

	return errors.Join(errs...)
}
