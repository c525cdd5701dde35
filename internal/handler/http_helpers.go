package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
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

// parseDateQuery 解析 yyyy-MM-dd 格式的查询参数，缺省时返回 fallback。
// 解析失败会直接响应 400 并返回 ok=false。
func parseDateQuery(c *gin.Context, key string, fallback time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}

	parsed, err := time.Parse(dateFormat, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式应为 yyyy-MM-dd")
		return time.Time{}, false
	}
	return parsed, true
}
