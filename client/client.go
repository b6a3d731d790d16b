package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxBatchChunk 是服务端单次批量更新的上限，超出的请求在客户端拆分
const maxBatchChunk = 50

// APIError 是服务端返回的业务错误，
// 与网络层错误区分开：后者按原样返回 *url.Error 等传输错误。
type APIError struct {
	Status  int           `json:"-"`
	Code    string        `json:"code"`
	Message string        `json:"error"`
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail 指出校验错误落在哪个字段
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsNotFound 判断 err 是否为服务端 404
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Client 是 API 的 HTTP 客户端
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option 定制 Client
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// New 构造 Client。baseURL 形如 http://host:port，token 是 Bearer 令牌。
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details []FieldDetail   `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求体失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Code: "INTERNAL_ERROR", Message: fmt.Sprintf("无法解析响应: %s", strings.TrimSpace(string(raw)))}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error, Details: env.Details}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.SortBy != "" {
		q.Set("sortBy", o.SortBy)
	}
	if o.SortOrder != "" {
		q.Set("sortOrder", o.SortOrder)
	}
	return q
}

// ListSkills 拉取技能分页列表
func (c *Client) ListSkills(ctx context.Context, opts ListOptions) (*Page[Skill], error) {
	var page Page[Skill]
	if err := c.do(ctx, http.MethodGet, "/skills", opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateSkill 创建技能，返回服务端权威版本
func (c *Client) CreateSkill(ctx context.Context, input SkillInput) (*Skill, error) {
	var skill Skill
	if err := c.do(ctx, http.MethodPost, "/skills", nil, input, &skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// UpdateSkill 整体更新技能
func (c *Client) UpdateSkill(ctx context.Context, id uint, input SkillInput) (*Skill, error) {
	var skill Skill
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/skills/%d", id), nil, input, &skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// DeleteSkill 删除技能
func (c *Client) DeleteSkill(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/skills/%d", id), nil, nil, nil)
}

// BatchUpdateSkills 批量局部更新技能，超过服务端上限时自动分片
func (c *Client) BatchUpdateSkills(ctx context.Context, items []PendingItem) (*BatchResult, error) {
	return c.batchUpdate(ctx, "/skills/batch-update", items)
}

// ListProjects 拉取项目分页列表
func (c *Client) ListProjects(ctx context.Context, opts ListOptions) (*Page[Project], error) {
	var page Page[Project]
	if err := c.do(ctx, http.MethodGet, "/projects", opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateProject 创建项目，返回服务端权威版本
func (c *Client) CreateProject(ctx context.Context, input ProjectInput) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject 整体更新项目
func (c *Client) UpdateProject(ctx context.Context, id uint, input ProjectInput) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", id), nil, input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject 删除项目
func (c *Client) DeleteProject(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil, nil)
}

// BatchUpdateProjects 批量局部更新项目，超过服务端上限时自动分片
func (c *Client) BatchUpdateProjects(ctx context.Context, items []PendingItem) (*BatchResult, error) {
	return c.batchUpdate(ctx, "/projects/batch-update", items)
}

// ListResources 拉取资源分页列表
func (c *Client) ListResources(ctx context.Context, opts ListOptions) (*Page[Resource], error) {
	var page Page[Resource]
	if err := c.do(ctx, http.MethodGet, "/resources", opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateResource 创建资源，返回服务端权威版本
func (c *Client) CreateResource(ctx context.Context, input ResourceInput) (*Resource, error) {
	var resource Resource
	if err := c.do(ctx, http.MethodPost, "/resources", nil, input, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// UpdateResource 整体更新资源
func (c *Client) UpdateResource(ctx context.Context, id uint, input ResourceInput) (*Resource, error) {
	var resource Resource
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/resources/%d", id), nil, input, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// DeleteResource 删除资源
func (c *Client) DeleteResource(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/resources/%d", id), nil, nil, nil)
}

// BatchUpdateResources 批量局部更新资源，超过服务端上限时自动分片
func (c *Client) BatchUpdateResources(ctx context.Context, items []PendingItem) (*BatchResult, error) {
	return c.batchUpdate(ctx, "/resources/batch-update", items)
}

func (c *Client) batchUpdate(ctx context.Context, path string, items []PendingItem) (*BatchResult, error) {
	merged := &BatchResult{}
	for start := 0; start < len(items); start += maxBatchChunk {
		end := start + maxBatchChunk
		if end > len(items) {
			end = len(items)
		}
		var result BatchResult
		body := map[string]interface{}{"items": items[start:end]}
		if err := c.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
			return nil, err
		}
		merged.Updated = append(merged.Updated, result.Updated...)
		merged.Errors = append(merged.Errors, result.Errors...)
	}
	return merged, nil
}

// Overview 拉取统计概览
func (c *Client) Overview(ctx context.Context) (*OverviewStats, error) {
	var stats OverviewStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Progress 拉取每周进度曲线
func (c *Client) Progress(ctx context.Context) ([]WeeklyBucket, error) {
	var data struct {
		Weeks []WeeklyBucket `json:"weeks"`
	}
	if err := c.do(ctx, http.MethodGet, "/stats/progress", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Weeks, nil
}

// Heatmap 拉取最近 days 天的活动热力图
func (c *Client) Heatmap(ctx context.Context, days int) ([]HeatmapEntry, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var entries []HeatmapEntry
	if err := c.do(ctx, http.MethodGet, "/activities/heatmap", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Me 拉取当前用户资料
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
