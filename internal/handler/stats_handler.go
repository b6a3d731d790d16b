package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

// cachedStats 读穿缓存：统计接口只读且容忍一个 TTL 内的陈旧值。
func (a *API) cachedStats(key string, fetch func() (interface{}, error)) (interface{}, error) {
	if data, found := a.statsCache.Get(key); found {
		return data, nil
	}

	data, err := fetch()
	if err != nil {
		return nil, err
	}

	a.statsCache.Set(key, data, gocache.DefaultExpiration)
	return data, nil
}

// GetStats 获取概览统计
func (a *API) GetStats(c *gin.Context) {
	user := currentUser(c)

	data, err := a.cachedStats(fmt.Sprintf("stats:overview:%d", user.ID), func() (interface{}, error) {
		stats, err := a.stats.Overview(user.ID, time.Now())
		if err != nil {
			return nil, err
		}
		return gin.H{
			"skills":        stats.SkillCounts,
			"projects":      stats.ProjectCounts,
			"resources":     stats.ResourceCount,
			"activeDays":    stats.ActiveDays,
			"currentStreak": stats.CurrentStreak,
		}, nil
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, data)
}

// GetProgress 获取 84 天窗口的周进度
func (a *API) GetProgress(c *gin.Context) {
	user := currentUser(c)

	data, err := a.cachedStats(fmt.Sprintf("stats:progress:%d", user.ID), func() (interface{}, error) {
		buckets, err := a.stats.Progress(user.ID, time.Now())
		if err != nil {
			return nil, err
		}
		weeks := make([]gin.H, 0, len(buckets))
		for _, b := range buckets {
			weeks = append(weeks, gin.H{
				"week":           b.Week,
				"activityCount":  b.ActivityCount,
				"progressPoints": b.ProgressPoints,
			})
		}
		return gin.H{"weeks": weeks}, nil
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, data)
}

// GetActivities 获取动态列表，start/end 按 2006-01-02 解析
func (a *API) GetActivities(c *gin.Context) {
	user := currentUser(c)

	filter := service.ActivityFilter{
		Pagination: parsePagination(c),
		Type:       c.Query("type"),
	}

	if raw := c.Query("start"); raw != "" {
		start, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "无效的开始日期")
			return
		}
		filter.Start = start
	}
	if raw := c.Query("end"); raw != "" {
		end, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "无效的结束日期")
			return
		}
		filter.End = end
	}

	result, err := a.activities.List(user.ID, filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondList(c, activityListJSON(result.Items), filter.Pagination, result.Total)
}

// GetHeatmap 获取热力图数据，默认回溯 84 天，缺失日期不补零
func (a *API) GetHeatmap(c *gin.Context) {
	user := currentUser(c)

	days, err := strconv.Atoi(c.DefaultQuery("days", "84"))
	if err != nil || days <= 0 || days > 366 {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的天数参数")
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -(days - 1))

	entries, err := a.activities.HeatmapRange(user.ID, start, end)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"date":      entry.Date.Format("2006-01-02"),
			"count":     entry.Count,
			"breakdown": entry.Breakdown,
		})
	}

	respondOK(c, out)
}

func activityJSON(activity db.Activity) gin.H {
	return gin.H{
		"id":              activity.ID,
		"date":            activity.Date.Format("2006-01-02"),
		"type":            activity.Type,
		"description":     activity.Description,
		"skillId":         activity.SkillID,
		"projectId":       activity.ProjectID,
		"durationMinutes": activity.DurationMinutes,
		"createdAt":       activity.CreatedAt,
	}
}

func activityListJSON(activities []db.Activity) []gin.H {
	out := make([]gin.H, 0, len(activities))
	for _, activity := range activities {
		out = append(out, activityJSON(activity))
	}
	return out
}
