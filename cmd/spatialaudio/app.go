package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-spatialaudio/internal/config"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
	"github.com/teslashibe/go-spatialaudio/pkg/metrics"
	"github.com/teslashibe/go-spatialaudio/pkg/query"
)

// app is the fully wired local stack.
type app struct {
	registry *backend.Registry
	service  *query.Service
	prom     *prometheus.Registry
}

// buildApp wires backends, catalog and metrics from settings. Extra backend
// options apply to every variant; tests use them to inject devices.
func buildApp(s *config.Settings, logger *slog.Logger, extra ...backend.Option) (*app, error) {
	prom := prometheus.NewRegistry()
	m, err := metrics.New(prom)
	if err != nil {
		return nil, err
	}

	reg := backend.NewRegistry(backend.WithRegistryLogger(logger), backend.WithRecorder(m))

	engineOpts := append([]backend.Option{
		backend.WithDeviceName(s.Backend.OpenAL.Device),
		backend.WithOcclusionPenalty(s.Backend.OpenAL.OcclusionPenalty),
		backend.WithLogger(logger),
	}, extra...)
	rendererOpts := append([]backend.Option{
		backend.WithOcclusionPenalty(s.Backend.WindowsSpatial.OcclusionPenalty),
		backend.WithMaxObjects(s.Backend.WindowsSpatial.MaxObjects),
		backend.WithSampleRate(s.Backend.WindowsSpatial.SampleRate),
		backend.WithLogger(logger),
	}, extra...)

	for _, b := range []backend.Backend{backend.NewEngine3D(engineOpts...), backend.NewRenderer(rendererOpts...)} {
		if err := reg.Register(b); err != nil {
			return nil, err
		}
	}

	var cat *catalog.Catalog
	if s.Catalog.Path != "" {
		cat, err = catalog.LoadFile(s.Catalog.Path)
	} else {
		cat, err = catalog.Load()
	}
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	kind, err := backend.ParseKind(s.Backend.Default)
	if err != nil {
		reg.Close()
		return nil, err
	}
	if kind != backend.KindNull {
		if err := reg.SetActive(kind); err != nil {
			logger.Warn("default backend unavailable, using null backend", "backend", kind, "error", err)
		}
	}

	svc := query.New(reg, cat, query.WithLogger(logger), query.WithCacheTTL(s.Cache.TTL))
	return &app{registry: reg, service: svc, prom: prom}, nil
}

// Close releases the active backend.
func (a *app) Close() {
	a.registry.Close()
}
