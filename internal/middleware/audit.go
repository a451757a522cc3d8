package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pmb-api/internal/models"
)

// Audit attaches the caller's IP address and user agent to the request
// context so audit entries written by services can record them.
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			ctx := models.WithRequestOrigin(c.Request.Context(), models.RequestOrigin{
				IPAddress: c.ClientIP(),
				UserAgent: c.GetHeader("User-Agent"),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
