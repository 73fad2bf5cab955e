package http

import (
	"net/http"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const healthMessage = "Serveur backend fonctionnel"

type HealthHandler struct {
	credentials ports.CredentialService
	settings    domain.ViewerSettings
}

func NewHealthHandler(credentials ports.CredentialService, settings domain.ViewerSettings) *HealthHandler {
	return &HealthHandler{
		credentials: credentials,
		settings:    settings,
	}
}

// Health always answers 200; configured tells whether listing can work.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    healthMessage,
		"configured": h.credentials.Configured(),
	})
}

func (h *HealthHandler) ViewerConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.settings,
	})
}
