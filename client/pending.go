package client

import (
	"sync"
	"time"
)

// DefaultDebounce 是批量提交前的等待窗口
const DefaultDebounce = 2000 * time.Millisecond

// PendingItem 是一条待提交的局部更新
type PendingItem struct {
	ID   uint                   `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// Accumulator 收集对同一批实体的局部更新，在防抖窗口结束后
// 一次性交给 flush 回调。同一实体的多次更新做浅合并，后写覆盖先写。
type Accumulator struct {
	mu       sync.Mutex
	items    map[uint]map[string]interface{}
	order    []uint
	timer    *time.Timer
	debounce time.Duration
	flush    func([]PendingItem)
	closed   bool
}

// NewAccumulator 构造 Accumulator，debounce 不合法时使用默认值。
func NewAccumulator(debounce time.Duration, flush func([]PendingItem)) *Accumulator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Accumulator{
		items:    make(map[uint]map[string]interface{}),
		debounce: debounce,
		flush:    flush,
	}
}

// Record 记录一条局部更新并重置防抖计时器
func (a *Accumulator) Record(id uint, fields map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	existing, ok := a.items[id]
	if !ok {
		existing = make(map[string]interface{}, len(fields))
		a.items[id] = existing
		a.order = append(a.order, id)
	}
	for k, v := range fields {
		existing[k] = v
	}

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

// Drain 原子地取走所有待提交项并停止计时器。
// 每条更新恰好被取走一次：要么在这里，要么在计时器触发的 flush 里。
func (a *Accumulator) Drain() []PendingItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drainLocked()
}

func (a *Accumulator) drainLocked() []PendingItem {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if len(a.items) == 0 {
		return nil
	}

	drained := make([]PendingItem, 0, len(a.order))
	for _, id := range a.order {
		drained = append(drained, PendingItem{ID: id, Data: a.items[id]})
	}
	a.items = make(map[uint]map[string]interface{})
	a.order = nil
	return drained
}

// Hide 在界面隐藏时立即提交，不等防抖窗口
func (a *Accumulator) Hide() {
	a.fire()
}

// Close 停止计时器并做最后一次提交，此后 Record 不再生效
func (a *Accumulator) Close() {
	a.mu.Lock()
	a.closed = true
	drained := a.drainLocked()
	a.mu.Unlock()

	if len(drained) > 0 && a.flush != nil {
		a.flush(drained)
	}
}

func (a *Accumulator) fire() {
	drained := a.Drain()
	if len(drained) > 0 && a.flush != nil {
		a.flush(drained)
	}
}
