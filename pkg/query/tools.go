package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
)

// Tool is an operation callers can invoke by name.
type Tool struct {
	// Name is the unique identifier for the tool (e.g., "process_spatial_audio").
	Name string `json:"name"`

	// Description explains what the tool does.
	Description string `json:"description"`

	// Parameters is the JSON schema for the tool's arguments.
	Parameters map[string]any `json:"parameters"`

	// Handler receives the parsed arguments and returns a result that
	// serializes to JSON, or a plain string.
	Handler func(ctx context.Context, args map[string]any) (any, error) `json:"-"`
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var (
	positionAxes    = []string{"x", "y", "z"}
	orientationAxes = []string{"yaw", "pitch", "roll"}
)

// vectorArgs maps each vector argument of process_spatial_audio to its axes.
var vectorArgs = []struct {
	key  string
	axes []string
}{
	{"source_position", positionAxes},
	{"listener_position", positionAxes},
	{"listener_orientation", orientationAxes},
}

func vectorSchema(description string, axes ...string) map[string]any {
	props := make(map[string]any, len(axes))
	for _, a := range axes {
		props[a] = map[string]any{"type": "number"}
	}
	s := objectSchema(props, axes...)
	s["description"] = description
	return s
}

var operatorArg = map[string]any{
	"operator": map[string]any{
		"type":        "string",
		"description": "Name of the operator (e.g., 'Ash', 'Thermite')",
	},
}

var mapArg = map[string]any{
	"type":        "string",
	"description": "Name of the map (e.g., 'Bank', 'Clubhouse')",
}

func (s *Service) registerTools() {
	s.tools = make(map[string]Tool)
	for _, t := range []Tool{
		{
			Name:        "get_operator_footsteps",
			Description: "Get basic information about operator footsteps sounds",
			Parameters:  objectSchema(operatorArg, "operator"),
			Handler:     s.toolOperatorFootsteps,
		},
		{
			Name:        "get_operator_audio_metadata",
			Description: "Get audio metadata for an operator including frequency range, volume, spatial characteristics, and special audio cues",
			Parameters:  objectSchema(operatorArg, "operator"),
			Handler:     s.toolOperatorMetadata,
		},
		{
			Name:        "get_map_spatial_sounds",
			Description: "Get basic information about spatial background sounds on a map",
			Parameters:  objectSchema(map[string]any{"map": mapArg}, "map"),
			Handler:     s.toolMapSounds,
		},
		{
			Name:        "get_map_audio_metadata",
			Description: "Get audio metadata for a map including ambient sounds, reverb characteristics, and spatial zones",
			Parameters: objectSchema(map[string]any{
				"map": mapArg,
				"zone": map[string]any{
					"type":        "string",
					"description": "Optional zone filter (e.g., 'lobby', 'exterior', 'all')",
					"default":     catalog.AllZones,
				},
			}, "map"),
			Handler: s.toolMapMetadata,
		},
		{
			Name:        "process_spatial_audio",
			Description: "Process an operator's sound with 3D spatial positioning using the active audio backend",
			Parameters: objectSchema(map[string]any{
				"operator": map[string]any{
					"type":        "string",
					"description": "Name of the operator making the sound",
				},
				"source_position":      vectorSchema("3D position of the sound source (x, y, z)", positionAxes...),
				"listener_position":    vectorSchema("3D position of the listener (x, y, z)", positionAxes...),
				"listener_orientation": vectorSchema("Orientation of the listener (yaw, pitch, roll in degrees)", orientationAxes...),
			}, "operator", "source_position", "listener_position", "listener_orientation"),
			Handler: s.toolProcess,
		},
		{
			Name:        "configure_audio_backend",
			Description: "Switch to a different audio backend (openal, windows_spatial, none)",
			Parameters: objectSchema(map[string]any{
				"backend": map[string]any{
					"type":        "string",
					"description": "Backend type: 'openal', 'windows_spatial', or 'none'",
					"enum":        kindNames(),
				},
			}, "backend"),
			Handler: s.toolConfigure,
		},
		{
			Name:        "list_audio_backends",
			Description: "List all available audio backends on this system",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(context.Context, map[string]any) (any, error) {
				return s.ListBackends(), nil
			},
		},
		{
			Name:        "get_backend_capabilities",
			Description: "Get capabilities of the currently active audio backend",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(context.Context, map[string]any) (any, error) {
				return s.CapabilityReport(), nil
			},
		},
		{
			Name:        "list_operators",
			Description: "Get a list of all available operators",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(context.Context, map[string]any) (any, error) {
				return strings.Join(s.catalog.Operators(), ", "), nil
			},
		},
		{
			Name:        "list_maps",
			Description: "Get a list of all available maps",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(context.Context, map[string]any) (any, error) {
				return strings.Join(s.catalog.Maps(), ", "), nil
			},
		},
	} {
		s.tools[t.Name] = t
		s.order = append(s.order, t.Name)
	}
}

func kindNames() []string {
	kinds := backend.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// Tools returns the tool descriptors in a stable order.
func (s *Service) Tools() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name])
	}
	return out
}

// Call invokes the named tool.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Handler(ctx, args)
}

// decodeArgs converts loosely typed arguments into a struct.
func decodeArgs(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %q is required", ErrInvalidArgument, key)
	}
	return v, nil
}

func (s *Service) toolOperatorFootsteps(_ context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "operator")
	if err != nil {
		return nil, err
	}
	op, err := s.catalog.Operator(name)
	if err != nil {
		return nil, fmt.Errorf("no footsteps data available for operator %s: %w", name, err)
	}
	return fmt.Sprintf("Operator %s: %s", op.Name, op.Description), nil
}

func (s *Service) toolOperatorMetadata(_ context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "operator")
	if err != nil {
		return nil, err
	}
	meta, err := s.OperatorMetadata(name)
	if err != nil {
		return nil, fmt.Errorf("no audio metadata available for operator %s: %w", name, err)
	}
	return meta, nil
}

func (s *Service) toolMapSounds(_ context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "map")
	if err != nil {
		return nil, err
	}
	m, err := s.catalog.Map(name)
	if err != nil {
		return nil, fmt.Errorf("no spatial sound data available for map %s: %w", name, err)
	}
	return fmt.Sprintf("Map %s: %s", m.Name, m.Description), nil
}

func (s *Service) toolMapMetadata(_ context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "map")
	if err != nil {
		return nil, err
	}
	zone, _ := args["zone"].(string)
	meta, err := s.MapMetadata(name, zone)
	if err != nil {
		return nil, fmt.Errorf("no audio metadata available for map %s: %w", name, err)
	}
	return meta, nil
}

// ParseRequest decodes loosely typed process_spatial_audio arguments.
// Every vector argument must carry all of its axes.
func ParseRequest(args map[string]any) (Request, error) {
	var req Request
	for _, v := range vectorArgs {
		if err := requireAxes(args, v.key, v.axes...); err != nil {
			return req, err
		}
	}
	if err := decodeArgs(args, &req); err != nil {
		return req, err
	}
	return req, nil
}

func requireAxes(args map[string]any, key string, axes ...string) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fmt.Errorf("%w: %q is required", ErrInvalidArgument, key)
	}
	vec, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %q must be an object", ErrInvalidArgument, key)
	}
	for _, axis := range axes {
		if vec[axis] == nil {
			return fmt.Errorf("%w: %s.%s is required", ErrInvalidArgument, key, axis)
		}
	}
	return nil
}

func (s *Service) toolProcess(ctx context.Context, args map[string]any) (any, error) {
	req, err := ParseRequest(args)
	if err != nil {
		return nil, err
	}
	out, err := s.ComputeSpatialAudio(ctx, req)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) toolConfigure(_ context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "backend")
	if err != nil {
		return nil, err
	}
	kind, err := backend.ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown backend: %s", ErrInvalidArgument, name)
	}

	ok, info, err := s.SwitchBackend(kind)
	if !ok {
		msg := fmt.Sprintf("Failed to switch to backend: %s. Backend may not be available on this system.", name)
		if errors.Is(err, backend.ErrInitFailed) {
			msg += " Fell back to " + info[backend.InfoName] + "."
		}
		return SwitchResult{Success: false, Message: msg, Backend: info}, nil
	}
	return SwitchResult{
		Success: true,
		Message: "Successfully switched to: " + info[backend.InfoName],
		Backend: info,
	}, nil
}
