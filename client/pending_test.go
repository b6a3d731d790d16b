package client

import (
	"sync"
	"testing"
	"time"
)

func TestAccumulatorMergesUpdates(t *testing.T) {
	acc := NewAccumulator(time.Hour, nil)

	acc.Record(1, map[string]interface{}{"name": "Go", "status": "learning"})
	acc.Record(1, map[string]interface{}{"status": "mastered"})
	acc.Record(2, map[string]interface{}{"name": "Rust"})

	drained := acc.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 pending items, got %d", len(drained))
	}

	// 同一实体浅合并，后写覆盖先写
	if drained[0].ID != 1 || drained[0].Data["status"] != "mastered" || drained[0].Data["name"] != "Go" {
		t.Fatalf("unexpected merged item: %+v", drained[0])
	}
	if drained[1].ID != 2 {
		t.Fatalf("expected insertion order, got %+v", drained[1])
	}
}

func TestAccumulatorDrainIsExactlyOnce(t *testing.T) {
	acc := NewAccumulator(time.Hour, nil)
	acc.Record(1, map[string]interface{}{"name": "Go"})

	if drained := acc.Drain(); len(drained) != 1 {
		t.Fatalf("expected 1 item on first drain, got %d", len(drained))
	}
	if drained := acc.Drain(); drained != nil {
		t.Fatalf("expected second drain to be empty, got %+v", drained)
	}
}

func TestAccumulatorDebounceFires(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]PendingItem
	done := make(chan struct{}, 1)

	acc := NewAccumulator(30*time.Millisecond, func(items []PendingItem) {
		mu.Lock()
		flushed = append(flushed, items)
		mu.Unlock()
		done <- struct{}{}
	})

	acc.Record(1, map[string]interface{}{"name": "Go"})
	// 第二次记录重置计时器，两次更新落入同一批
	time.Sleep(10 * time.Millisecond)
	acc.Record(1, map[string]interface{}{"status": "learning"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected flush within debounce window")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 1 {
		t.Fatalf("expected single flush, got %d", len(flushed))
	}
	if len(flushed[0]) != 1 || flushed[0][0].Data["status"] != "learning" {
		t.Fatalf("unexpected flushed batch: %+v", flushed[0])
	}
}

func TestAccumulatorHideFlushesImmediately(t *testing.T) {
	done := make(chan []PendingItem, 1)
	acc := NewAccumulator(time.Hour, func(items []PendingItem) {
		done <- items
	})

	acc.Record(1, map[string]interface{}{"name": "Go"})
	acc.Hide()

	select {
	case items := <-done:
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
	case <-time.After(time.Second):
		t.Fatal("expected immediate flush on hide")
	}

	// 没有待提交项时不触发回调
	acc.Hide()
	select {
	case items := <-done:
		t.Fatalf("unexpected flush: %+v", items)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAccumulatorCloseStopsRecording(t *testing.T) {
	done := make(chan []PendingItem, 1)
	acc := NewAccumulator(time.Hour, func(items []PendingItem) {
		done <- items
	})

	acc.Record(1, map[string]interface{}{"name": "Go"})
	acc.Close()

	select {
	case items := <-done:
		if len(items) != 1 {
			t.Fatalf("expected final flush with 1 item, got %d", len(items))
		}
	case <-time.After(time.Second):
		t.Fatal("expected final flush on close")
	}

	acc.Record(2, map[string]interface{}{"name": "Rust"})
	if drained := acc.Drain(); drained != nil {
		t.Fatalf("expected records after close to be ignored, got %+v", drained)
	}
}
