package mockbackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/internal/version"
	"evalgo.org/adjvalet/models"
)

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version"`
	ActivePath string `json:"active_path,omitempty"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

func (s *Server) health(c echo.Context) error {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Service:    "adjvalet-mock",
		Version:    version.Version,
		ActivePath: active,
	})
}

func (s *Server) setPath(c echo.Context) error {
	var req pathRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest("Invalid request body", err.Error())
	}

	path := strings.TrimSpace(req.Path)
	if path == "" {
		return badRequest("Invalid request body", "path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[path]; !ok {
		return notFound("ADJ path", path)
	}
	s.active = path

	s.logger.Info("active path changed", "path", path)
	return c.JSON(http.StatusOK, MessageResponse{Message: "ADJ path set to " + path})
}

func (s *Server) assemble(c echo.Context) error {
	s.mu.RLock()
	cfg, err := s.activeDocument()
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) update(c echo.Context) error {
	var cfg models.ADJConfig
	if err := json.NewDecoder(c.Request().Body).Decode(&cfg); err != nil {
		return badRequest("Invalid configuration", err.Error())
	}

	if len(cfg.Section(models.SectionPorts)) == 0 && cfg.Len() == 0 {
		return badRequest("Invalid configuration", "configuration has no ports and no boards")
	}

	if result := s.validator.ValidateConfig(&cfg); !result.Valid {
		fields := make(map[string]string, len(result.Errors))
		for _, e := range result.Errors {
			fields[e.Field] = e.Message
		}
		return &APIError{
			Code:        http.StatusBadRequest,
			Message:     "Configuration failed validation",
			FieldErrors: fields,
		}
	}

	normalized, err := edit.AssignPacketIDs(&cfg)
	if err != nil {
		return badRequest("Cannot assign packet ids", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.activeDocument(); err != nil {
		return err
	}
	s.documents[s.active] = normalized

	s.logger.Info("configuration updated", "path", s.active, "boards", normalized.Len())
	return c.JSON(http.StatusOK, normalized)
}

func (s *Server) renameBoard(c echo.Context) error {
	var req renameRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest("Invalid request body", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.activeDocument()
	if err != nil {
		return err
	}

	renamed, err := edit.RenameBoard(cfg, c.Param("name"), strings.TrimSpace(req.NewName))
	if err != nil {
		return editError(err)
	}
	s.documents[s.active] = renamed

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "Board " + c.Param("name") + " renamed to " + req.NewName,
	})
}

// activeDocument must be called with s.mu held.
func (s *Server) activeDocument() (*models.ADJConfig, error) {
	if s.active == "" {
		return nil, conflict("No ADJ path set", "POST /path first")
	}
	cfg, ok := s.documents[s.active]
	if !ok {
		return nil, notFound("ADJ path", s.active)
	}
	return cfg, nil
}
