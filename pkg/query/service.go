// Package query is the request façade over the backend registry and the
// sound catalog. It turns tool calls into acoustic profiles and listener
// poses, runs them on the active backend and shapes the results.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
)

// DefaultCacheTTL bounds how long a backend listing is reused.
const DefaultCacheTTL = 30 * time.Second

const listingKey = "backends"

// Sentinel errors.
var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("query: unknown tool")

	// ErrInvalidArgument is returned when tool arguments are missing or malformed.
	ErrInvalidArgument = errors.New("query: invalid argument")
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger.With("component", "query")
		}
	}
}

// WithCacheTTL sets how long backend listings are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// WithIDGenerator replaces the request ID source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service answers spatial audio queries.
type Service struct {
	registry *backend.Registry
	catalog  *catalog.Catalog
	logger   *slog.Logger

	cacheTTL time.Duration
	newID    func() string

	// listingGen advances on every switch; a listing computed under an
	// older generation is not cached.
	listingMu  sync.Mutex
	listingGen uint64
	listings   *cache.Cache

	tools map[string]Tool
	order []string

	observersMu sync.RWMutex
	observers   []func(Output)
}

// New creates a service over reg and cat.
func New(reg *backend.Registry, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		catalog:  cat,
		logger:   slog.Default().With("component", "query"),
		cacheTTL: DefaultCacheTTL,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	// No janitor goroutine; expired entries are ignored on read.
	s.listings = cache.New(s.cacheTTL, 0)
	s.registerTools()
	return s
}

// Registry returns the backend registry.
func (s *Service) Registry() *backend.Registry { return s.registry }

// Catalog returns the sound catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// OnResult registers fn to receive every computed output.
func (s *Service) OnResult(fn func(Output)) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Service) notify(out Output) {
	s.observersMu.RLock()
	observers := make([]func(Output), len(s.observers))
	copy(observers, s.observers)
	s.observersMu.RUnlock()

	for _, fn := range observers {
		fn(out)
	}
}

// ComputeSpatialAudio resolves the operator's profile, places it at the
// source position and processes it on the active backend. Backend failures
// are reported in the output, not as an error.
func (s *Service) ComputeSpatialAudio(ctx context.Context, req Request) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if err := validate.Struct(req); err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	profile := s.catalog.OperatorProfile(req.Operator).WithPosition(*req.SourcePosition)
	return s.ComputeProfile(ctx, req.Operator, profile, req.Pose())
}

// ComputeProfile processes an arbitrary profile on the active backend.
func (s *Service) ComputeProfile(ctx context.Context, label string, profile acoustic.Profile, pose acoustic.ListenerPose) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	res := s.registry.Process(profile, pose)
	out := flatten(s.newID(), label, res)

	if res.Success {
		s.logger.Debug("spatial audio computed",
			"request_id", out.RequestID,
			"operator", label,
			"backend", res.BackendInfo[backend.InfoType],
		)
	} else {
		s.logger.Warn("spatial audio failed",
			"request_id", out.RequestID,
			"operator", label,
			"message", res.Message,
		)
	}

	s.notify(out)
	return out, nil
}

// SwitchBackend activates kind. It reports whether the switch succeeded,
// the info of whichever backend is now active, and the cause of a failure.
func (s *Service) SwitchBackend(kind backend.Kind) (bool, backend.Info, error) {
	err := s.registry.SetActive(kind)
	s.invalidateListing()

	info := s.registry.Active().Info()
	if err != nil {
		s.logger.Warn("backend switch failed", "backend", kind, "active", info[backend.InfoType], "error", err)
		return false, info, err
	}
	s.logger.Info("backend switched", "backend", kind)
	return true, info, nil
}

// ListBackends returns the available backends and the active one.
// Availability is cached; the active backend is always read live.
func (s *Service) ListBackends() BackendListing {
	return BackendListing{
		Available: s.availableBackends(),
		Active:    s.registry.Active().Info(),
	}
}

func (s *Service) availableBackends() []backend.Info {
	if cached, ok := s.listings.Get(listingKey); ok {
		return cached.([]backend.Info)
	}

	s.listingMu.Lock()
	gen := s.listingGen
	s.listingMu.Unlock()

	available := s.registry.ListAvailable()

	s.listingMu.Lock()
	defer s.listingMu.Unlock()
	if gen == s.listingGen {
		s.listings.SetDefault(listingKey, available)
	}
	return available
}

func (s *Service) invalidateListing() {
	s.listingMu.Lock()
	defer s.listingMu.Unlock()
	s.listingGen++
	s.listings.Delete(listingKey)
}

// ActiveCapabilities returns the capabilities of the active backend.
func (s *Service) ActiveCapabilities() backend.Capabilities {
	return s.registry.CapabilitiesOfActive()
}

// CapabilityReport returns the active backend's info with its capabilities.
func (s *Service) CapabilityReport() CapabilityReport {
	return CapabilityReport{
		Backend:      s.registry.Active().Info(),
		Capabilities: s.ActiveCapabilities(),
	}
}

// OperatorMetadata returns the detailed view of an operator.
func (s *Service) OperatorMetadata(name string) (OperatorMetadata, error) {
	op, err := s.catalog.Operator(name)
	if err != nil {
		return OperatorMetadata{}, err
	}
	return OperatorMetadata{
		Operator:    op.Name,
		Description: op.Description,
		AudioProperties: AudioProperties{
			FrequencyRangeHz: op.FrequencyRange,
			VolumeDB:         op.VolumeDB,
			SpatialFalloff:   op.SpatialFalloff,
			ReverbAmount:     op.ReverbAmount,
			OcclusionFactor:  op.OcclusionFactor,
			Directional:      op.Directional,
		},
		GameplayProperties: GameplayProperties{
			SpeedMultiplier: op.SpeedMultiplier,
			ArmorRating:     op.ArmorRating,
		},
		SpecialAudioCues: op.SpecialAudioCues,
	}, nil
}

// MapMetadata returns the detailed view of a map with sounds filtered to zone.
func (s *Service) MapMetadata(name, zone string) (MapMetadata, error) {
	m, err := s.catalog.Map(name)
	if err != nil {
		return MapMetadata{}, err
	}
	return MapMetadata{
		Map:         m.Name,
		Description: m.Description,
		AmbientProperties: AmbientProperties{
			FrequencyRangeHz: m.AmbientFrequencyRange,
			AmbientVolumeDB:  m.AmbientVolumeDB,
		},
		ReverbCharacteristics: m.ReverbCharacteristics,
		SpatialZones:          m.SpatialZones,
		AmbientSounds:         m.SoundsIn(zone),
	}, nil
}
