package handler

import (
	"encoding/json"

	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	DisplayName *string          `json:"displayName"`
	Preferences *json.RawMessage `json:"preferences"`
}

func userJSON(user db.User) gin.H {
	var prefs interface{}
	if user.Preferences != "" {
		_ = json.Unmarshal([]byte(user.Preferences), &prefs)
	}
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"role":        user.Role,
		"preferences": prefs,
		"createdAt":   user.CreatedAt,
	}
}

// GetMe 获取当前用户档案
func (a *API) GetMe(c *gin.Context) {
	user := currentUser(c)
	respondOK(c, userJSON(*user))
}

// UpdateMe 更新当前用户档案
func (a *API) UpdateMe(c *gin.Context) {
	user := currentUser(c)

	var req profileRequest
	if !bindJSON(c, &req, "档案更新请求格式错误") {
		return
	}

	input := service.ProfileInput{DisplayName: req.DisplayName}
	if req.Preferences != nil {
		raw := string(*req.Preferences)
		input.Preferences = &raw
	}

	updated, err := a.users.UpdateProfile(user.ID, input)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	respondOK(c, userJSON(*updated))
}
