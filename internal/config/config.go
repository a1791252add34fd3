// Package config loads go-spatialaudio settings from defaults, an optional
// YAML file, SPATIALAUDIO_* environment variables and bound CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. SPATIALAUDIO_SERVER_PORT.
const EnvPrefix = "SPATIALAUDIO"

// Default settings.
const (
	DefaultPort              = "8080"
	DefaultBackend           = "none"
	DefaultEnginePenalty     = 10.0
	DefaultRendererPenalty   = 12.0
	DefaultRendererMaxObject = 128
	DefaultRendererRate      = 48000
	DefaultCacheTTL          = 30 * time.Second
)

// ErrInvalidConfig is returned when settings fail validation.
var ErrInvalidConfig = errors.New("config: invalid settings")

// Settings is the full runtime configuration.
type Settings struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Backend struct {
		Default string `mapstructure:"default"`

		OpenAL struct {
			Device           string  `mapstructure:"device"`
			OcclusionPenalty float64 `mapstructure:"occlusion_penalty"`
		} `mapstructure:"openal"`

		WindowsSpatial struct {
			OcclusionPenalty float64 `mapstructure:"occlusion_penalty"`
			MaxObjects       int     `mapstructure:"max_objects"`
			SampleRate       int     `mapstructure:"sample_rate"`
		} `mapstructure:"windows_spatial"`
	} `mapstructure:"backend"`

	Catalog struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"catalog"`

	Cache struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("backend.default", DefaultBackend)
	v.SetDefault("backend.openal.device", "")
	v.SetDefault("backend.openal.occlusion_penalty", DefaultEnginePenalty)
	v.SetDefault("backend.windows_spatial.occlusion_penalty", DefaultRendererPenalty)
	v.SetDefault("backend.windows_spatial.max_objects", DefaultRendererMaxObject)
	v.SetDefault("backend.windows_spatial.sample_rate", DefaultRendererRate)
	v.SetDefault("catalog.path", "")
	v.SetDefault("cache.ttl", DefaultCacheTTL)
}

// BindFlags binds a flag set so explicit flags take precedence over
// the file and environment. Flag names use dots, e.g. "server.port".
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// Load reads the optional config file into v and decodes the settings.
// An empty path skips the file.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns settings built from defaults and the environment only.
func Default() (*Settings, error) {
	return Load(New(), "")
}

// Validate checks value ranges and backend names.
func (s *Settings) Validate() error {
	switch s.Backend.Default {
	case "none", "openal", "windows_spatial":
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s.Backend.Default)
	}
	if s.Backend.OpenAL.OcclusionPenalty < 0 {
		return fmt.Errorf("%w: openal occlusion_penalty must be >= 0", ErrInvalidConfig)
	}
	if s.Backend.WindowsSpatial.OcclusionPenalty < 0 {
		return fmt.Errorf("%w: windows_spatial occlusion_penalty must be >= 0", ErrInvalidConfig)
	}
	if s.Backend.WindowsSpatial.MaxObjects <= 0 {
		return fmt.Errorf("%w: windows_spatial max_objects must be > 0", ErrInvalidConfig)
	}
	if s.Backend.WindowsSpatial.SampleRate <= 0 {
		return fmt.Errorf("%w: windows_spatial sample_rate must be > 0", ErrInvalidConfig)
	}
	if s.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache ttl must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ServerURL returns the local base URL for the configured port.
func (s *Settings) ServerURL() string {
	return fmt.Sprintf("http://localhost:%s", s.Server.Port)
}
