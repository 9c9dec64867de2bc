package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetPathParamAsIntInRange parses a path parameter as an integer within [min, max].
func GetPathParamAsIntInRange(c *gin.Context, paramName string, min, max int) (int, error) {
	paramValue := c.Param(paramName)
	if paramValue == "" {
		return 0, fmt.Errorf("missing %s", paramName)
	}

	intValue, err := strconv.Atoi(paramValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", paramName)
	}

	if intValue < min || intValue > max {
		return 0, fmt.Errorf("%s must be between %d and %d", paramName, min, max)
	}

	return intValue, nil
}

// ParseUUIDPair parses two creature ids from a request.
func ParseUUIDPair(first, second string) (uuid.UUID, uuid.UUID, error) {
	a, err := uuid.Parse(first)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid creature1Id")
	}
	b, err := uuid.Parse(second)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid creature2Id")
	}
	return a, b, nil
}
