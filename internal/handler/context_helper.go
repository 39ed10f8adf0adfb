package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt parses an integer query parameter, falling back on bad input.
func queryInt(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
