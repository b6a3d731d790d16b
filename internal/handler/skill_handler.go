package handler

import (
	"net/http"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type skillRequest struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	Icon       string `json:"icon"`
	ProjectIDs []uint `json:"projectIds"`
	TagIDs     []uint `json:"tagIds"`
}

type skillBatchRequest struct {
	Items []service.SkillBatchItem `json:"items" binding:"required"`
}

func tagJSON(tag db.Tag) gin.H {
	return gin.H{"id": tag.ID, "name": tag.Name, "color": tag.Color}
}

func tagListJSON(tags []db.Tag) []gin.H {
	out := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tagJSON(tag))
	}
	return out
}

func skillJSON(skill db.Skill) gin.H {
	projectIDs := make([]uint, 0, len(skill.Projects))
	for _, p := range skill.Projects {
		projectIDs = append(projectIDs, p.ID)
	}
	return gin.H{
		"id":         skill.ID,
		"name":       skill.Name,
		"category":   skill.Category,
		"status":     skill.Status,
		"icon":       skill.Icon,
		"projectIds": projectIDs,
		"tags":       tagListJSON(skill.Tags),
		"createdAt":  skill.CreatedAt,
		"updatedAt":  skill.UpdatedAt,
	}
}

func skillListJSON(skills []db.Skill) []gin.H {
	out := make([]gin.H, 0, len(skills))
	for _, skill := range skills {
		out = append(out, skillJSON(skill))
	}
	return out
}

// GetSkills 获取技能列表
func (a *API) GetSkills(c *gin.Context) {
	user := currentUser(c)

	filter := service.SkillFilter{
		Pagination: parsePagination(c),
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		TagIDs:     parseUintQuerySlice(c.QueryArray("tagIds")),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	result, err := a.skills.List(user.ID, filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondList(c, skillListJSON(result.Items), filter.Pagination, result.Total)
}

// GetSkill 获取单个技能
func (a *API) GetSkill(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的技能 ID")
		return
	}

	skill, err := a.skills.Get(user.ID, id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, skillJSON(*skill))
}

// CreateSkill 创建新技能
func (a *API) CreateSkill(c *gin.Context) {
	user := currentUser(c)

	var req skillRequest
	if !bindJSON(c, &req, "技能名称不能为空") {
		return
	}

	skill, err := a.skills.Create(user.ID, service.SkillInput{
		Name:       req.Name,
		Category:   req.Category,
		Status:     req.Status,
		Icon:       req.Icon,
		ProjectIDs: req.ProjectIDs,
		TagIDs:     req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondCreated(c, skillJSON(*skill))
}

// UpdateSkill 全量更新技能
func (a *API) UpdateSkill(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的技能 ID")
		return
	}

	var req skillRequest
	if !bindJSON(c, &req, "技能名称不能为空") {
		return
	}

	skill, err := a.skills.Update(user.ID, id, service.SkillInput{
		Name:       req.Name,
		Category:   req.Category,
		Status:     req.Status,
		Icon:       req.Icon,
		ProjectIDs: req.ProjectIDs,
		TagIDs:     req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, skillJSON(*skill))
}

// DeleteSkill 删除技能
func (a *API) DeleteSkill(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的技能 ID")
		return
	}

	if err := a.skills.Delete(user.ID, id); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

// BatchUpdateSkills 批量更新技能，逐条返回结果
func (a *API) BatchUpdateSkills(c *gin.Context) {
	user := currentUser(c)

	var req skillBatchRequest
	if !bindJSON(c, &req, "批量更新请求格式错误") {
		return
	}

	result, err := a.skills.BatchUpdate(user.ID, req.Items)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"updated": skillListJSON(result.Updated),
		"errors":  result.Errors,
	})
}
