package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/eadash/control"
	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/settings"
)

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// writeError maps service errors to status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, control.ErrInvalidCommand):
		errorResponse(c, http.StatusBadRequest, "Invalid action")
	case errors.Is(err, settings.ErrInvalidSettings):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
		errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

// bindLoose decodes an optional JSON body. An empty body decodes as {}.
func bindLoose(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// handleHealth GET /api/health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleGetStatus GET /api/status
func (s *Server) handleGetStatus(c *gin.Context) {
	st, err := s.svc.Status(c.Request.Context())
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "No status data")
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handleGetTrades GET /api/trades?limit=N
func (s *Server) handleGetTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	trades, err := s.svc.Trades(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// handleGetStats GET /api/stats
func (s *Server) handleGetStats(c *gin.Context) {
	st, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handleGetSettings GET /api/settings
func (s *Server) handleGetSettings(c *gin.Context) {
	st, err := s.svc.Settings(c.Request.Context())
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "No settings data")
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handlePostSettings POST /api/settings
//
// The body replaces the whole record; omitted fields take their defaults.
func (s *Server) handlePostSettings(c *gin.Context) {
	var p settings.Partial
	if err := bindLoose(c, &p); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.svc.ReplaceSettings(c.Request.Context(), p); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Settings updated"})
}

// handleUpdate POST /api/update
func (s *Server) handleUpdate(c *gin.Context) {
	var p ingest.Payload
	if err := bindLoose(c, &p); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.svc.Ingest(c.Request.Context(), p); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// handleControl POST /api/control/:action
func (s *Server) handleControl(c *gin.Context) {
	st, err := s.svc.Control(c.Request.Context(), c.Param("action"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": st.Message()})
}
