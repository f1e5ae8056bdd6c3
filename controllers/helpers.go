package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// pagination is the shared list-response pagination block
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// parsePagination reads page/limit query params with sane defaults
func parsePagination(c *gin.Context) (page, limit, skip int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

func newPagination(page, limit int, total int64) pagination {
	pages := (total + int64(limit) - 1) / int64(limit)
	return pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// isDuplicateKeyError detects unique-constraint violations from the
// driver error text. Works with both PostgreSQL and SQLite.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
