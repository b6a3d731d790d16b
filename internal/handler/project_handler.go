package handler

import (
	"net/http"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type projectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	GithubURL   string   `json:"githubUrl"`
	DemoURL     string   `json:"demoUrl"`
	TechStack   []string `json:"techStack"`
	SkillIDs    []uint   `json:"skillIds"`
	TagIDs      []uint   `json:"tagIds"`
}

type projectBatchRequest struct {
	Items []service.ProjectBatchItem `json:"items" binding:"required"`
}

func projectJSON(project db.Project) gin.H {
	skillIDs := make([]uint, 0, len(project.Skills))
	for _, s := range project.Skills {
		skillIDs = append(skillIDs, s.ID)
	}
	return gin.H{
		"id":          project.ID,
		"name":        project.Name,
		"description": project.Description,
		"status":      project.Status,
		"githubUrl":   project.GithubURL,
		"demoUrl":     project.DemoURL,
		"techStack":   service.DecodeTechStack(project.TechStack),
		"skillIds":    skillIDs,
		"tags":        tagListJSON(project.Tags),
		"createdAt":   project.CreatedAt,
		"updatedAt":   project.UpdatedAt,
	}
}

func projectListJSON(projects []db.Project) []gin.H {
	out := make([]gin.H, 0, len(projects))
	for _, project := range projects {
		out = append(out, projectJSON(project))
	}
	return out
}

// GetProjects 获取项目列表
func (a *API) GetProjects(c *gin.Context) {
	user := currentUser(c)

	filter := service.ProjectFilter{
		Pagination: parsePagination(c),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		TagIDs:     parseUintQuerySlice(c.QueryArray("tagIds")),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	result, err := a.projects.List(user.ID, filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondList(c, projectListJSON(result.Items), filter.Pagination, result.Total)
}

// GetProject 获取单个项目
func (a *API) GetProject(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的项目 ID")
		return
	}

	project, err := a.projects.Get(user.ID, id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, projectJSON(*project))
}

// CreateProject 创建新项目
func (a *API) CreateProject(c *gin.Context) {
	user := currentUser(c)

	var req projectRequest
	if !bindJSON(c, &req, "项目名称不能为空") {
		return
	}

	project, err := a.projects.Create(user.ID, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		GithubURL:   req.GithubURL,
		DemoURL:     req.DemoURL,
		TechStack:   req.TechStack,
		SkillIDs:    req.SkillIDs,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondCreated(c, projectJSON(*project))
}

// UpdateProject 全量更新项目
func (a *API) UpdateProject(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的项目 ID")
		return
	}

	var req projectRequest
	if !bindJSON(c, &req, "项目名称不能为空") {
		return
	}

	project, err := a.projects.Update(user.ID, id, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		GithubURL:   req.GithubURL,
		DemoURL:     req.DemoURL,
		TechStack:   req.TechStack,
		SkillIDs:    req.SkillIDs,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, projectJSON(*project))
}

// DeleteProject 删除项目并级联维护技能状态
func (a *API) DeleteProject(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的项目 ID")
		return
	}

	if err := a.projects.Delete(user.ID, id); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

// BatchUpdateProjects 批量更新项目，逐条返回结果
func (a *API) BatchUpdateProjects(c *gin.Context) {
	user := currentUser(c)

	var req projectBatchRequest
	if !bindJSON(c, &req, "批量更新请求格式错误") {
		return
	}

	result, err := a.projects.BatchUpdate(user.ID, req.Items)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"updated": projectListJSON(result.Updated),
		"errors":  result.Errors,
	})
}
