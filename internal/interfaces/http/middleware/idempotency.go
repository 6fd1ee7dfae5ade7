package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

const idempotencyKeyPrefix = "command:"

// Idempotency suppresses duplicate commands keyed by the request ID.
// The first request with a given ID wins the mark and is processed;
// retries inside the TTL are acknowledged without reaching a handler.
// A failed command holds its key for the TTL as a retry cooldown, so
// clients must send a fresh request ID to reissue a failed command.
// Store failures fail open: availability over strict deduplication.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || store == nil || !isCommand(c.Request.Method) {
			c.Next()
			return
		}

		requestID := GetRequestID(c)
		if requestID == "" {
			c.Next()
			return
		}

		key := idempotencyKeyPrefix + requestID
		newlyMarked, err := store.MarkProcessed(c.Request.Context(), key, cfg.TTL)
		if err != nil {
			logger.Warn("idempotency store unavailable, processing without dedup",
				zap.String("request_id", requestID),
				zap.Error(err))
			c.Next()
			return
		}

		if !newlyMarked {
			logger.Info("duplicate command suppressed",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path))
			c.Header("X-Idempotent-Replay", "true")
			c.AbortWithStatusJSON(http.StatusOK, dto.SuccessResponse(nil))
			return
		}

		c.Next()
	}
}

func isCommand(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
