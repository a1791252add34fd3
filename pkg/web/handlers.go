package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
	"github.com/teslashibe/go-spatialaudio/pkg/hub"
	"github.com/teslashibe/go-spatialaudio/pkg/query"
)

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, query.ErrUnknownTool):
		return fiber.StatusNotFound
	case errors.Is(err, query.ErrInvalidArgument), errors.Is(err, backend.ErrUnknownKind):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"active_backend": s.svc.Registry().ActiveKind(),
		"subscribers":    s.results.ClientCount(),
	})
}

func (s *Server) handleListBackends(c *fiber.Ctx) error {
	return c.JSON(s.svc.ListBackends())
}

// SwitchRequest is the body of PUT /api/backends/active
type SwitchRequest struct {
	Backend string `json:"backend"`
}

func (s *Server) handleSwitchBackend(c *fiber.Ctx) error {
	var req SwitchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	res, err := s.svc.Call(c.UserContext(), "configure_audio_backend", map[string]any{"backend": req.Backend})
	if err != nil {
		return err
	}
	sw := res.(query.SwitchResult)
	if err := s.results.Publish(hub.EventBackend, sw); err != nil {
		s.logger.Warn("publish backend switch", "error", err)
	}
	if !sw.Success {
		return c.Status(fiber.StatusConflict).JSON(sw)
	}
	return c.JSON(sw)
}

func (s *Server) handleCapabilities(c *fiber.Ctx) error {
	return c.JSON(s.svc.CapabilityReport())
}

func (s *Server) handleCompute(c *fiber.Ctx) error {
	var args map[string]any
	if err := c.BodyParser(&args); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	req, err := query.ParseRequest(args)
	if err != nil {
		return err
	}
	out, err := s.svc.ComputeSpatialAudio(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	return c.JSON(s.svc.Tools())
}

// ToolRequest is the body for invoking a tool
type ToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleCallTool(c *fiber.Ctx) error {
	name := c.Params("name")

	var req ToolRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
		}
	}

	result, err := s.svc.Call(c.UserContext(), name, req.Arguments)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"tool":   name,
		"result": result,
	})
}

func (s *Server) handleListOperators(c *fiber.Ctx) error {
	return c.JSON(s.svc.Catalog().Operators())
}

func (s *Server) handleOperator(c *fiber.Ctx) error {
	meta, err := s.svc.OperatorMetadata(c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(meta)
}

func (s *Server) handleListMaps(c *fiber.Ctx) error {
	return c.JSON(s.svc.Catalog().Maps())
}

func (s *Server) handleMap(c *fiber.Ctx) error {
	meta, err := s.svc.MapMetadata(c.Params("name"), c.Query("zone", catalog.AllZones))
	if err != nil {
		return err
	}
	return c.JSON(meta)
}

// handleResultsWS streams result and backend events until the peer leaves.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	client := hub.NewClient(s.results, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
