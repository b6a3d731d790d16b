package handler

import (
	"net/http"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type timeEntryRequest struct {
	SkillID   *uint  `json:"skillId"`
	ProjectID *uint  `json:"projectId"`
	TagIDs    []uint `json:"tagIds"`
}

func timeEntryJSON(entry db.TimeEntry) gin.H {
	return gin.H{
		"id":              entry.ID,
		"skillId":         entry.SkillID,
		"projectId":       entry.ProjectID,
		"startedAt":       entry.StartedAt,
		"endedAt":         entry.EndedAt,
		"durationSeconds": entry.DurationSeconds,
		"running":         entry.Running,
		"tags":            tagListJSON(entry.Tags),
		"createdAt":       entry.CreatedAt,
		"updatedAt":       entry.UpdatedAt,
	}
}

func timeEntryListJSON(entries []db.TimeEntry) []gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, timeEntryJSON(entry))
	}
	return out
}

// GetTimeEntries 获取计时记录列表
func (a *API) GetTimeEntries(c *gin.Context) {
	user := currentUser(c)

	filter := service.TimeEntryFilter{
		Pagination: parsePagination(c),
		SkillID:    parseOptionalUintQuery(c, "skillId"),
		ProjectID:  parseOptionalUintQuery(c, "projectId"),
		Running:    parseOptionalBoolQuery(c, "running"),
	}

	result, err := a.timeEntries.List(user.ID, filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondList(c, timeEntryListJSON(result.Items), filter.Pagination, result.Total)
}

// StartTimeEntry 开始计时，已有进行中的计时时返回 409
func (a *API) StartTimeEntry(c *gin.Context) {
	user := currentUser(c)

	var req timeEntryRequest
	// 允许空请求体：不关联任何技能/项目直接开始计时
	_ = c.ShouldBindJSON(&req)

	entry, err := a.timeEntries.Start(user.ID, service.TimeEntryInput{
		SkillID:   req.SkillID,
		ProjectID: req.ProjectID,
		TagIDs:    req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondCreated(c, timeEntryJSON(*entry))
}

// StopTimeEntry 停止当前计时并计算时长
func (a *API) StopTimeEntry(c *gin.Context) {
	user := currentUser(c)

	entry, err := a.timeEntries.Stop(user.ID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, timeEntryJSON(*entry))
}

// DeleteTimeEntry 删除计时记录
func (a *API) DeleteTimeEntry(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的计时记录 ID")
		return
	}

	if err := a.timeEntries.Delete(user.ID, id); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}
