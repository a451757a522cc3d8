package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/middleware"
	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindStrict decodes the JSON body into dest, rejecting unknown fields.
func bindStrict(c *gin.Context, dest interface{}, what string) error {
	if c.Request.Body == nil {
		return appErrors.Clone(appErrors.ErrValidation, "missing "+what+" payload")
	}
	if err := dto.DecodeStrict(c.Request.Body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+what+" payload: "+err.Error())
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, key+" must be a number"), map[string]string{key: "number"})
	}
	return v, nil
}
