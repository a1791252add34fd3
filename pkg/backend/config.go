package backend

import (
	"log/slog"
	"runtime"

	"github.com/teslashibe/go-spatialaudio/pkg/spatial"
)

// Config holds backend configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// OcclusionPenalty is the dB lost at occlusion factor 0 past the
	// occlusion distance. Each variant has its own default.
	OcclusionPenalty float64

	// Engine3D device selection
	DeviceOpener DeviceOpener
	DeviceName   string

	// Renderer setup
	Platform       func() string
	RendererFormat string
	MaxObjects     int
	SampleRate     int

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithOcclusionPenalty overrides the variant's occlusion penalty.
func WithOcclusionPenalty(db float64) Option {
	return func(c *Config) {
		c.OcclusionPenalty = db
	}
}

// WithDeviceOpener sets how the 3D engine acquires its playback device.
func WithDeviceOpener(o DeviceOpener) Option {
	return func(c *Config) {
		c.DeviceOpener = o
	}
}

// WithDeviceName selects a playback device by name. Empty picks the default.
func WithDeviceName(name string) Option {
	return func(c *Config) {
		c.DeviceName = name
	}
}

// WithPlatform overrides host platform detection for the renderer.
func WithPlatform(goos string) Option {
	return func(c *Config) {
		c.Platform = func() string { return goos }
	}
}

// WithRendererFormat sets the reported spatial format.
func WithRendererFormat(format string) Option {
	return func(c *Config) {
		c.RendererFormat = format
	}
}

// WithMaxObjects sets the renderer's spatial object budget.
func WithMaxObjects(n int) Option {
	return func(c *Config) {
		c.MaxObjects = n
	}
}

// WithSampleRate sets the renderer sample rate in Hz.
func WithSampleRate(hz int) Option {
	return func(c *Config) {
		c.SampleRate = hz
	}
}

// WithLogger sets the structured logger for the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns defaults for the given variant.
func DefaultConfig(kind Kind) *Config {
	c := &Config{
		Platform:       func() string { return runtime.GOOS },
		RendererFormat: "Windows Sonic",
		MaxObjects:     128,
		SampleRate:     48000,
		Logger:         slog.Default(),
	}
	switch kind {
	case KindEngine3D:
		c.OcclusionPenalty = spatial.Engine3DOcclusionPenalty
		c.DeviceOpener = defaultDeviceOpener()
	case KindRenderer:
		c.OcclusionPenalty = spatial.RendererOcclusionPenalty
	default:
		c.OcclusionPenalty = spatial.NoOcclusionPenalty
	}
	return c
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func newConfig(kind Kind, opts []Option) *Config {
	c := DefaultConfig(kind)
	c.Apply(opts...)
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Logger = c.Logger.With("component", "backend."+string(kind))
	return c
}
