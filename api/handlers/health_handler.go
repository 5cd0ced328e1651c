package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/showcase-dl/internal/domain"
)

// HealthHandler reports liveness of the running pipeline
type HealthHandler struct {
	registry *domain.Registry
}

func NewHealthHandler(registry *domain.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

type HealthResponse struct {
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Videos int    `json:"videos"`
}

// Health handles GET /health. It stays 200 while draining so pollers can
// watch a shutdown through to the end.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	if h.registry.IsShuttingDown() {
		status = "draining"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status: status,
		Stage:  h.registry.Stage().String(),
		Videos: h.registry.Len(),
	})
}
