package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

// 错误码常量，与客户端约定的错误分类一致
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeUnauth     = "UNAUTHORIZED"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeRateLimit  = "RATE_LIMIT_EXCEEDED"
	CodeDatabase   = "DATABASE_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

const contextUserKey = "__current_user"

// FieldDetail 描述单个字段的校验错误
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, items interface{}, p service.Pagination, total int64) {
	respondOK(c, gin.H{
		"items":      items,
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": p.TotalPages(total),
	})
}

func respondError(c *gin.Context, status int, code, message string, details ...FieldDetail) {
	body := gin.H{"success": false, "error": message, "code": code}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}

// respondServiceError 把服务层错误映射到错误分类，未识别的错误按 500 处理。
func (a *API) respondServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, CodeValidation, verr.Message,
			FieldDetail{Field: verr.Field, Message: verr.Message})
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "记录不存在")
	case errors.Is(err, service.ErrTimerRunning):
		respondError(c, http.StatusConflict, CodeConflict, "已有进行中的计时")
	case errors.Is(err, service.ErrNoRunningTimer):
		respondError(c, http.StatusNotFound, CodeNotFound, "没有进行中的计时")
	case errors.Is(err, service.ErrBatchTooLarge):
		respondError(c, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("单次批量更新最多 %d 条", service.MaxBatchSize))
	case errors.Is(err, service.ErrTagExists):
		respondError(c, http.StatusBadRequest, CodeValidation, "标签已存在")
	default:
		a.log.Error("unexpected service error", "path", c.FullPath(), "err", err)
		message := "服务器内部错误"
		if a.exposeErrors {
			message = err.Error()
		}
		respondError(c, http.StatusInternalServerError, CodeDatabase, message)
	}
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseUintQuerySlice(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			parsed, err := strconv.ParseUint(trimmed, 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(parsed))
		}
	}
	return ids
}

func parseOptionalUintQuery(c *gin.Context, key string) *uint {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}

func parseOptionalBoolQuery(c *gin.Context, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

func parsePagination(c *gin.Context) service.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	p := service.Pagination{Page: page, Limit: limit}
	p.Normalize()
	return p
}

// currentUser 返回认证中间件写入的用户，缺失说明路由编排有误。
func currentUser(c *gin.Context) *db.User {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*db.User)
	if !ok {
		return nil
	}
	return user
}
