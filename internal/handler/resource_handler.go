package handler

import (
	"bytes"
	"net/http"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	notesSanitizer = bluemonday.UGCPolicy()
)

type resourceRequest struct {
	Title     string `json:"title" binding:"required"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	SkillID   *uint  `json:"skillId"`
	ProjectID *uint  `json:"projectId"`
	Notes     string `json:"notes"`
	Read      bool   `json:"read"`
	Favorite  bool   `json:"favorite"`
	TagIDs    []uint `json:"tagIds"`
}

type resourceBatchRequest struct {
	Items []service.ResourceBatchItem `json:"items" binding:"required"`
}

func resourceJSON(resource db.Resource) gin.H {
	return gin.H{
		"id":        resource.ID,
		"title":     resource.Title,
		"url":       resource.URL,
		"type":      resource.Type,
		"skillId":   resource.SkillID,
		"projectId": resource.ProjectID,
		"notes":     resource.Notes,
		"read":      resource.Read,
		"favorite":  resource.Favorite,
		"tags":      tagListJSON(resource.Tags),
		"createdAt": resource.CreatedAt,
		"updatedAt": resource.UpdatedAt,
	}
}

func resourceListJSON(resources []db.Resource) []gin.H {
	out := make([]gin.H, 0, len(resources))
	for _, resource := range resources {
		out = append(out, resourceJSON(resource))
	}
	return out
}

// GetResources 获取资源列表
func (a *API) GetResources(c *gin.Context) {
	user := currentUser(c)

	filter := service.ResourceFilter{
		Pagination: parsePagination(c),
		Type:       c.Query("type"),
		SkillID:    parseOptionalUintQuery(c, "skillId"),
		ProjectID:  parseOptionalUintQuery(c, "projectId"),
		Read:       parseOptionalBoolQuery(c, "read"),
		Favorite:   parseOptionalBoolQuery(c, "favorite"),
		Search:     c.Query("search"),
		TagIDs:     parseUintQuerySlice(c.QueryArray("tagIds")),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	result, err := a.resources.List(user.ID, filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondList(c, resourceListJSON(result.Items), filter.Pagination, result.Total)
}

// GetResource 获取单个资源
func (a *API) GetResource(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的资源 ID")
		return
	}

	resource, err := a.resources.Get(user.ID, id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, resourceJSON(*resource))
}

// GetResourceNotesPreview 渲染资源备注的 Markdown 并消毒后返回 HTML
func (a *API) GetResourceNotesPreview(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的资源 ID")
		return
	}

	resource, err := a.resources.Get(user.ID, id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(resource.Notes), &buf); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"id":   resource.ID,
		"html": notesSanitizer.Sanitize(buf.String()),
	})
}

// CreateResource 创建新资源
func (a *API) CreateResource(c *gin.Context) {
	user := currentUser(c)

	var req resourceRequest
	if !bindJSON(c, &req, "资源标题不能为空") {
		return
	}

	resource, err := a.resources.Create(user.ID, service.ResourceInput{
		Title:     req.Title,
		URL:       req.URL,
		Type:      req.Type,
		SkillID:   req.SkillID,
		ProjectID: req.ProjectID,
		Notes:     req.Notes,
		Read:      req.Read,
		Favorite:  req.Favorite,
		TagIDs:    req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondCreated(c, resourceJSON(*resource))
}

// UpdateResource 全量更新资源
func (a *API) UpdateResource(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的资源 ID")
		return
	}

	var req resourceRequest
	if !bindJSON(c, &req, "资源标题不能为空") {
		return
	}

	resource, err := a.resources.Update(user.ID, id, service.ResourceInput{
		Title:     req.Title,
		URL:       req.URL,
		Type:      req.Type,
		SkillID:   req.SkillID,
		ProjectID: req.ProjectID,
		Notes:     req.Notes,
		Read:      req.Read,
		Favorite:  req.Favorite,
		TagIDs:    req.TagIDs,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, resourceJSON(*resource))
}

// DeleteResource 删除资源
func (a *API) DeleteResource(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的资源 ID")
		return
	}

	if err := a.resources.Delete(user.ID, id); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

// BatchUpdateResources 批量更新资源，逐条返回结果
func (a *API) BatchUpdateResources(c *gin.Context) {
	user := currentUser(c)

	var req resourceBatchRequest
	if !bindJSON(c, &req, "批量更新请求格式错误") {
		return
	}

	result, err := a.resources.BatchUpdate(user.ID, req.Items)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"updated": resourceListJSON(result.Updated),
		"errors":  result.Errors,
	})
}
