package client

import (
	"encoding/json"
	"time"
)

// Tag 是服务端标签的客户端视图
type Tag struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Skill 是服务端技能的客户端视图
type Skill struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Icon       string    `json:"icon"`
	ProjectIDs []uint    `json:"projectIds"`
	Tags       []Tag     `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Project 是服务端项目的客户端视图
type Project struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	GithubURL   string    `json:"githubUrl"`
	DemoURL     string    `json:"demoUrl"`
	TechStack   []string  `json:"techStack"`
	SkillIDs    []uint    `json:"skillIds"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Resource 是服务端学习资源的客户端视图
type Resource struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	SkillID   *uint     `json:"skillId"`
	ProjectID *uint     `json:"projectId"`
	Notes     string    `json:"notes"`
	Read      bool      `json:"read"`
	Favorite  bool      `json:"favorite"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SkillInput 是创建/更新技能的请求体
type SkillInput struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Status     string `json:"status,omitempty"`
	Icon       string `json:"icon,omitempty"`
	ProjectIDs []uint `json:"projectIds,omitempty"`
	TagIDs     []uint `json:"tagIds,omitempty"`
}

// ProjectInput 是创建/更新项目的请求体
type ProjectInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	GithubURL   string   `json:"githubUrl,omitempty"`
	DemoURL     string   `json:"demoUrl,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
	SkillIDs    []uint   `json:"skillIds,omitempty"`
	TagIDs      []uint   `json:"tagIds,omitempty"`
}

// ResourceInput 是创建/更新资源的请求体
type ResourceInput struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Type      string `json:"type,omitempty"`
	SkillID   *uint  `json:"skillId,omitempty"`
	ProjectID *uint  `json:"projectId,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Read      bool   `json:"read"`
	Favorite  bool   `json:"favorite"`
	TagIDs    []uint `json:"tagIds,omitempty"`
}

// Page 是分页列表响应的通用形态
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListOptions 控制列表查询的分页与过滤
type ListOptions struct {
	Page      int
	Limit     int
	Status    string
	Category  string
	Search    string
	SortBy    string
	SortOrder string
}

// BatchItemError 是批量更新中单条失败的描述
type BatchItemError struct {
	ID      uint   `json:"id"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// BatchResult 是一次批量更新的汇总结果
type BatchResult struct {
	Updated []json.RawMessage `json:"updated"`
	Errors  []BatchItemError  `json:"errors"`
}

// OverviewStats 是统计概览
type OverviewStats struct {
	SkillCounts   map[string]int64 `json:"skills"`
	ProjectCounts map[string]int64 `json:"projects"`
	ResourceCount int64            `json:"resources"`
	ActiveDays    int              `json:"activeDays"`
	CurrentStreak int              `json:"currentStreak"`
}

// HeatmapEntry 是热力图中的一天
type HeatmapEntry struct {
	Date      string         `json:"date"`
	Count     int            `json:"count"`
	Breakdown map[string]int `json:"breakdown"`
}

// WeeklyBucket 是进度曲线中的一周
type WeeklyBucket struct {
	Week           string `json:"week"`
	ActivityCount  int    `json:"activityCount"`
	ProgressPoints int    `json:"progressPoints"`
}

// User 是当前用户的资料
type User struct {
	ID          uint            `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Role        string          `json:"role"`
	Preferences json.RawMessage `json:"preferences"`
}
