package handler

import (
	"net/http"

	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// GetTags 获取标签列表
func (a *API) GetTags(c *gin.Context) {
	user := currentUser(c)

	tags, err := a.tags.List(user.ID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, tagListJSON(tags))
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	user := currentUser(c)

	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Create(user.ID, service.TagInput{Name: req.Name, Color: req.Color})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondCreated(c, tagJSON(*tag))
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的标签 ID")
		return
	}

	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Update(user.ID, id, service.TagInput{Name: req.Name, Color: req.Color})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, tagJSON(*tag))
}

// DeleteTag 删除标签
func (a *API) DeleteTag(c *gin.Context) {
	user := currentUser(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "无效的标签 ID")
		return
	}

	if err := a.tags.Delete(user.ID, id); err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}
