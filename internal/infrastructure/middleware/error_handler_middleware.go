package middleware

import (
	"net/http"

	apperrors "multiview/pkg/errors"
	"multiview/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware logs the last error attached with c.Error and, when
// the handler wrote nothing, answers with the {success:false, error} envelope.
func ErrorHandlerMiddleware(log *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		status := http.StatusInternalServerError
		if appErr := apperrors.GetAppError(err); appErr != nil {
			if appErr.HTTPStatus != 0 {
				status = appErr.HTTPStatus
			}
			log.LogError(ctx, err, "application error",
				zap.String("code", string(appErr.Code)),
				zap.String("message", appErr.Message),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		} else {
			log.LogError(ctx, err, "unhandled error",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   apperrors.PublicMessage(err),
		})
	}
}

// RecoveryMiddleware recovers from panics and answers with a generic 500.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				appErr := apperrors.NewInternalError("Erreur interne du serveur")
				c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
					"success": false,
					"error":   appErr.Message,
				})
			}
		}()

		c.Next()
	}
}
