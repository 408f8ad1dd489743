package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/internal/domain"
)

// userIDHeader carries the authenticated user id. Session handling itself
// lives at the edge in front of this service.
const userIDHeader = "X-User-ID"

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindState, domain.KindInvalidSignature:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the stable {kind, message} error shape. Store-specific
// error text never reaches the client.
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(statusFor(de.Kind), gin.H{"error": gin.H{"kind": string(de.Kind), "message": de.Message}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": string(domain.KindDependency), "message": "internal error"}})
}

func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"kind": "Unauthorized", "message": "missing user identity"}})
		return "", false
	}
	return userID, true
}
