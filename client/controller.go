package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/devtrack/gate"
)

// SyncState 描述本地修改与服务端的同步状态
type SyncState int32

const (
	// SyncIdle 没有待同步的修改
	SyncIdle SyncState = iota
	// SyncPending 有修改在防抖窗口中等待提交
	SyncPending
	// SyncFlushing 正在提交
	SyncFlushing
	// SyncFailed 上次提交失败，本地状态已回退为服务端版本
	SyncFailed
)

func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncFlushing:
		return "flushing"
	case SyncFailed:
		return "failed"
	default:
		return "idle"
	}
}

// GateError 表示本地预检未通过，修改不会被记录
type GateError struct {
	Reason string
}

func (e *GateError) Error() string {
	return e.Reason
}

// FlushSummary 是一次提交的结果，通过 OnSync 回调通知上层
type FlushSummary struct {
	Flushed int
	Errors  []BatchItemError
	Err     error
}

// Adapter 把某类实体接入 Controller
type Adapter[T any] interface {
	// ID 返回实体主键
	ID(item T) uint
	// Apply 把局部更新浅合并到实体上，返回更新后的副本
	Apply(item T, fields map[string]interface{}) T
	// Validate 在记录修改前做本地预检，返回非 nil 则拒绝该修改
	Validate(item T, fields map[string]interface{}) error
	// CacheKey 是该集合在本地缓存中的键
	CacheKey() string
	// Reload 从服务端拉取完整集合
	Reload(ctx context.Context, api *Client) ([]T, error)
	// Flush 把积累的局部更新提交给服务端
	Flush(ctx context.Context, api *Client, items []PendingItem) (*BatchResult, error)
	// Delete 删除单个实体
	Delete(ctx context.Context, api *Client, id uint) error
}

// ControllerOptions 定制 Controller
type ControllerOptions struct {
	// Debounce 是提交前的防抖窗口，默认 DefaultDebounce
	Debounce time.Duration
	// FlushTimeout 是单次提交的超时，默认 10 秒
	FlushTimeout time.Duration
	// OnSync 在每次提交（成功或失败）后被调用
	OnSync func(FlushSummary)
}

// Controller 维护一类实体的乐观本地副本：
// 修改先应用到内存和缓存，经防抖窗口后批量提交；
// 提交失败时丢弃缓存并从服务端重新拉取，本地状态绝不长期偏离服务端。
type Controller[T any] struct {
	api     *Client
	cache   *Cache
	adapter Adapter[T]
	acc     *Accumulator
	timeout time.Duration
	onSync  func(FlushSummary)

	mu    sync.Mutex
	items []T
	state SyncState
}

// NewController 构造 Controller
func NewController[T any](api *Client, cache *Cache, adapter Adapter[T], opts ControllerOptions) *Controller[T] {
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = 10 * time.Second
	}
	c := &Controller[T]{
		api:     api,
		cache:   cache,
		adapter: adapter,
		timeout: opts.FlushTimeout,
		onSync:  opts.OnSync,
	}
	c.acc = NewAccumulator(opts.Debounce, c.flush)
	return c
}

// Load 加载集合：缓存新鲜则直接返回，否则从服务端拉取。
// 拉取失败时退回过期缓存（若有），给离线场景留一条活路。
func (c *Controller[T]) Load(ctx context.Context) ([]T, error) {
	var cached []T
	stale, ok := c.cache.Load(c.adapter.CacheKey(), &cached)
	if ok && !stale {
		c.setItems(cached)
		return c.Items(), nil
	}

	fresh, err := c.adapter.Reload(ctx, c.api)
	if err != nil {
		if ok {
			c.setItems(cached)
			return c.Items(), nil
		}
		return nil, err
	}

	c.setItems(fresh)
	c.cache.Save(c.adapter.CacheKey(), fresh)
	return c.Items(), nil
}

// Items 返回当前本地副本的快照
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]T, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

// State 返回当前同步状态
func (c *Controller[T]) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update 乐观地应用一条局部更新：先改内存和缓存，再排队等待批量提交。
// 预检失败时返回 *GateError，本地状态不变。
func (c *Controller[T]) Update(id uint, fields map[string]interface{}) error {
	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return &APIError{Status: 404, Code: "NOT_FOUND", Message: "本地副本中不存在该记录"}
	}
	if err := c.adapter.Validate(c.items[idx], fields); err != nil {
		c.mu.Unlock()
		return err
	}
	c.items[idx] = c.adapter.Apply(c.items[idx], fields)
	c.state = SyncPending
	snapshot := make([]T, len(c.items))
	copy(snapshot, c.items)
	c.mu.Unlock()

	c.cache.Save(c.adapter.CacheKey(), snapshot)
	c.acc.Record(id, fields)
	return nil
}

// Delete 乐观地删除实体：先从本地副本移除，服务端失败则重新拉取恢复
func (c *Controller[T]) Delete(ctx context.Context, id uint) error {
	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return &APIError{Status: 404, Code: "NOT_FOUND", Message: "本地副本中不存在该记录"}
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	snapshot := make([]T, len(c.items))
	copy(snapshot, c.items)
	c.mu.Unlock()

	c.cache.Save(c.adapter.CacheKey(), snapshot)
	if err := c.adapter.Delete(ctx, c.api, id); err != nil {
		c.reconcile(ctx)
		return err
	}
	return nil
}

// CreateWith 走服务端优先的创建：等服务端返回权威版本后再加入本地副本
func (c *Controller[T]) CreateWith(ctx context.Context, create func(context.Context, *Client) (T, error)) (T, error) {
	created, err := create(ctx, c.api)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.items = append(c.items, created)
	snapshot := make([]T, len(c.items))
	copy(snapshot, c.items)
	c.mu.Unlock()

	c.cache.Save(c.adapter.CacheKey(), snapshot)
	return created, nil
}

// Hide 在界面隐藏时立即提交积累的修改
func (c *Controller[T]) Hide() {
	c.acc.Hide()
}

// Close 停止防抖计时器并做最后一次提交
func (c *Controller[T]) Close() {
	c.acc.Close()
}

func (c *Controller[T]) flush(items []PendingItem) {
	c.setState(SyncFlushing)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result, err := c.adapter.Flush(ctx, c.api, items)
	summary := FlushSummary{Flushed: len(items), Err: err}
	if result != nil {
		summary.Errors = result.Errors
	}

	if err != nil || len(summary.Errors) > 0 {
		// 部分或全部失败：乐观副本已不可信，丢弃缓存并回到服务端版本
		c.setState(SyncFailed)
		c.reconcile(ctx)
	} else {
		c.setState(SyncIdle)
	}

	if c.onSync != nil {
		c.onSync(summary)
	}
}

// reconcile 丢弃缓存并从服务端重新拉取，失败时保留当前副本等待下次机会。
// 拉取成功即与服务端对齐，failed 状态随之解除。
func (c *Controller[T]) reconcile(ctx context.Context) {
	c.cache.Clear(c.adapter.CacheKey())
	fresh, err := c.adapter.Reload(ctx, c.api)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.items = fresh
	if c.state == SyncFailed {
		c.state = SyncIdle
	}
	c.mu.Unlock()

	c.cache.Save(c.adapter.CacheKey(), fresh)
}

func (c *Controller[T]) setItems(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *Controller[T]) setState(state SyncState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Controller[T]) indexOfLocked(id uint) int {
	for i := range c.items {
		if c.adapter.ID(c.items[i]) == id {
			return i
		}
	}
	return -1
}

// SkillAdapter 把技能集合接入 Controller。
// Projects 提供技能关联项目的状态，用于掌握状态的本地预检；
// 为 nil 时跳过预检，由服务端兜底。
type SkillAdapter struct {
	Projects func(ids []uint) []gate.ProjectRef
}

func (SkillAdapter) ID(s Skill) uint  { return s.ID }
func (SkillAdapter) CacheKey() string { return "skills" }

func (SkillAdapter) Apply(s Skill, fields map[string]interface{}) Skill {
	if v, ok := fields["name"].(string); ok {
		s.Name = v
	}
	if v, ok := fields["category"].(string); ok {
		s.Category = v
	}
	if v, ok := fields["status"].(string); ok {
		s.Status = v
	}
	if v, ok := fields["icon"].(string); ok {
		s.Icon = v
	}
	return s
}

func (a SkillAdapter) Validate(s Skill, fields map[string]interface{}) error {
	status, ok := fields["status"].(string)
	if !ok {
		return nil
	}
	var linked []gate.ProjectRef
	if a.Projects != nil {
		linked = a.Projects(s.ProjectIDs)
	} else if status == gate.SkillMastered {
		// 没有项目状态可查，交给服务端判定
		return nil
	}
	if verdict := gate.CheckSkillStatus(status, linked); !verdict.Valid {
		return &GateError{Reason: verdict.Reason}
	}
	return nil
}

func (SkillAdapter) Reload(ctx context.Context, api *Client) ([]Skill, error) {
	page, err := api.ListSkills(ctx, ListOptions{Limit: 100})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (SkillAdapter) Flush(ctx context.Context, api *Client, items []PendingItem) (*BatchResult, error) {
	return api.BatchUpdateSkills(ctx, items)
}

func (SkillAdapter) Delete(ctx context.Context, api *Client, id uint) error {
	return api.DeleteSkill(ctx, id)
}

// ProjectAdapter 把项目集合接入 Controller
type ProjectAdapter struct{}

func (ProjectAdapter) ID(p Project) uint { return p.ID }
func (ProjectAdapter) CacheKey() string  { return "projects" }

func (ProjectAdapter) Apply(p Project, fields map[string]interface{}) Project {
	if v, ok := fields["name"].(string); ok {
		p.Name = v
	}
	if v, ok := fields["description"].(string); ok {
		p.Description = v
	}
	if v, ok := fields["status"].(string); ok {
		p.Status = v
	}
	if v, ok := fields["githubUrl"].(string); ok {
		p.GithubURL = v
	}
	if v, ok := fields["demoUrl"].(string); ok {
		p.DemoURL = v
	}
	return p
}

func (ProjectAdapter) Validate(p Project, fields map[string]interface{}) error {
	status, ok := fields["status"].(string)
	if !ok {
		status = p.Status
	}
	github := p.GithubURL
	if v, ok := fields["githubUrl"].(string); ok {
		github = v
	}
	demo := p.DemoURL
	if v, ok := fields["demoUrl"].(string); ok {
		demo = v
	}
	if verdict := gate.CheckProjectStatus(status, github, demo); !verdict.Valid {
		return &GateError{Reason: verdict.Reason}
	}
	return nil
}

func (ProjectAdapter) Reload(ctx context.Context, api *Client) ([]Project, error) {
	page, err := api.ListProjects(ctx, ListOptions{Limit: 100})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (ProjectAdapter) Flush(ctx context.Context, api *Client, items []PendingItem) (*BatchResult, error) {
	return api.BatchUpdateProjects(ctx, items)
}

func (ProjectAdapter) Delete(ctx context.Context, api *Client, id uint) error {
	return api.DeleteProject(ctx, id)
}

// ResourceAdapter 把学习资源集合接入 Controller
type ResourceAdapter struct{}

func (ResourceAdapter) ID(r Resource) uint { return r.ID }
func (ResourceAdapter) CacheKey() string   { return "resources" }

func (ResourceAdapter) Apply(r Resource, fields map[string]interface{}) Resource {
	if v, ok := fields["title"].(string); ok {
		r.Title = v
	}
	if v, ok := fields["url"].(string); ok {
		r.URL = v
	}
	if v, ok := fields["type"].(string); ok {
		r.Type = v
	}
	if v, ok := fields["notes"].(string); ok {
		r.Notes = v
	}
	if v, ok := fields["read"].(bool); ok {
		r.Read = v
	}
	if v, ok := fields["favorite"].(bool); ok {
		r.Favorite = v
	}
	return r
}

func (ResourceAdapter) Validate(r Resource, fields map[string]interface{}) error {
	if v, ok := fields["title"].(string); ok && strings.TrimSpace(v) == "" {
		return &GateError{Reason: "资源标题不能为空"}
	}
	return nil
}

func (ResourceAdapter) Reload(ctx context.Context, api *Client) ([]Resource, error) {
	page, err := api.ListResources(ctx, ListOptions{Limit: 100})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (ResourceAdapter) Flush(ctx context.Context, api *Client, items []PendingItem) (*BatchResult, error) {
	return api.BatchUpdateResources(ctx, items)
}

func (ResourceAdapter) Delete(ctx context.Context, api *Client, id uint) error {
	return api.DeleteResource(ctx, id)
}
