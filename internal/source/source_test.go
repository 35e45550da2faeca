package source

import (
	"testing"

	"github.com/verte-zerg/gradebook/internal/model"
)

func TestNotifierPublishAndCancel(t *testing.T) {
	n := NewNotifier()
	var got []*model.Payload
	sub := n.Subscribe(EventLoadGrades, func(p *model.Payload) {
		got = append(got, p)
	})
	other := n.Subscribe("other", func(*model.Payload) {
		t.Fatalf("unexpected delivery on other event")
	})
	defer other.Cancel()

	payload := &model.Payload{GPA: 3}
	if count := n.Publish(EventLoadGrades, payload); count != 1 {
		t.Fatalf("expected 1 listener, got %d", count)
	}
	if len(got) != 1 || got[0] != payload {
		t.Fatalf("unexpected deliveries: %v", got)
	}

	sub.Cancel()
	sub.Cancel()
	if n.Listeners(EventLoadGrades) != 0 {
		t.Fatalf("expected listener removed")
	}
	if count := n.Publish(EventLoadGrades, payload); count != 0 {
		t.Fatalf("expected no listeners after cancel, got %d", count)
	}
	if len(got) != 1 {
		t.Fatalf("expected no delivery after cancel, got %d", len(got))
	}
}

func TestNotifierCancelKeepsOthers(t *testing.T) {
	n := NewNotifier()
	calls := map[string]int{}
	a := n.Subscribe(EventLoadGrades, func(*model.Payload) { calls["a"]++ })
	n.Subscribe(EventLoadGrades, func(*model.Payload) { calls["b"]++ })
	a.Cancel()
	n.Publish(EventLoadGrades, nil)
	if calls["a"] != 0 || calls["b"] != 1 {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestCacheStoreAndTryGetCached(t *testing.T) {
	n := NewNotifier()
	c := NewCache(n)
	if _, ok := c.TryGetCached(); ok {
		t.Fatalf("expected empty cache")
	}

	var delivered *model.Payload
	deliveries := 0
	sub := c.OnReady(func(p *model.Payload) {
		delivered = p
		deliveries++
	})
	defer sub.Cancel()

	payload := &model.Payload{GPA: 3.2, Terms: []model.Term{{Code: "202301"}}}
	c.Store(payload)
	if deliveries != 1 || delivered == nil || delivered.GPA != 3.2 || !delivered.Loaded {
		t.Fatalf("expected one loaded delivery, got %d", deliveries)
	}
	cached, ok := c.TryGetCached()
	if !ok || cached != delivered || len(cached.Terms) != 1 {
		t.Fatalf("expected delivered payload in cache")
	}
	if payload.Loaded {
		t.Fatalf("expected caller payload left untouched")
	}

	c.Store(nil)
	if deliveries != 2 || delivered != nil {
		t.Fatalf("expected failure delivery")
	}
	if _, ok := c.TryGetCached(); ok {
		t.Fatalf("expected cache cleared after failed load")
	}

	c.Store(payload)
	c.Reset()
	if _, ok := c.TryGetCached(); ok {
		t.Fatalf("expected cache cleared after reset")
	}
}
