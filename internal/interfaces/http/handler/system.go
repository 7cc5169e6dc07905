package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler handles health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db      Pinger
	appName string
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, appName, version string) *SystemHandler {
	return &SystemHandler{db: db, appName: appName, version: version}
}

// RegisterRoutes registers system routes on the engine root, outside the
// versioned API group
func (h *SystemHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", h.Health)
	engine.GET("/readyz", h.Ready)
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     h.appName,
		"version": h.version,
	})
}

// Ready reports whether the service can reach its database
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
