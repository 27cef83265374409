package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		return 0, appErrors.Clone(appErrors.ErrIncorrectValue, fmt.Sprintf("the value '%s' for field '%s' is not valid", raw, name))
	}
	return value, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
