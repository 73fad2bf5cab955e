package http

import (
	"context"
	"net/http"

	"multiview/internal/core/ports"
	apperrors "multiview/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	streamService ports.StreamService
}

func NewStreamHandler(streamService ports.StreamService) *StreamHandler {
	return &StreamHandler{
		streamService: streamService,
	}
}

// ListStreams answers with every live stream of the category, most watched
// first, or a failure envelope. A client disconnect does not abort the
// upstream calls, so a refreshed token or category id still lands in the
// shared cache.
func (h *StreamHandler) ListStreams(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	streams, err := h.streamService.ListStreams(ctx)
	if err != nil {
		// logged by ErrorHandlerMiddleware
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   apperrors.PublicMessage(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    streams,
	})
}

// Status reports what the shared session currently holds without calling
// Twitch.
func (h *StreamHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.streamService.CacheStatus(),
	})
}
