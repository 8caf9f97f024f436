package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	return parseUint(c.Param(key), key)
}

func parseUint(raw, key string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// linkErrorStatus 将服务层错误映射为 HTTP 状态码与面向用户的说明。
func linkErrorStatus(err error) (int, string) {
	var storeErr *service.StoreError
	switch {
	case errors.Is(err, service.ErrLinkNotFound):
		return http.StatusNotFound, "link not found"
	case errors.Is(err, service.ErrLinkInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &storeErr):
		return http.StatusBadGateway, "link store unavailable: " + storeErr.Err.Error()
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}

func handleLinkError(c *gin.Context, err error) {
	status, message := linkErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("link operation failed")
	}
	respondError(c, status, message)
}

func uintToString(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}
