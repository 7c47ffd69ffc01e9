// Package httpapi holds the response envelope shared by all route handlers.
// Every response body is either {"success":true,"data":...} or
// {"success":false,"error":"..."}.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/pkg/logger"
)

// Dev controls whether internal error detail is echoed back to clients.
// Set once at startup from the server environment.
var Dev bool

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// Fail writes the envelope for err using the apperr status mapping. Internal
// errors are logged and masked outside development; client-caused errors
// carry their message through.
func Fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		if Dev {
			c.JSON(status, gin.H{"success": false, "error": "Internal server error", "detail": msg})
			return
		}
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}
