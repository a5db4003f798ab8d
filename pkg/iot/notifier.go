package iot

import (
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

type SnapshotListener func(models.AnalyticsSnapshot)

// subscriber owns one listener's delivery queue. A single drain goroutine
// runs at a time, so the listener sees snapshots in publish order.
type subscriber struct {
	cb      SnapshotListener
	mu      sync.Mutex
	queue   []models.AnalyticsSnapshot
	running bool
	closed  bool
}

func (s *subscriber) enqueue(snapshot models.AnalyticsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, snapshot)
	if !s.running {
		s.running = true
		go s.drain()
	}
}

func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		deliver(s.cb, next)
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
}

// Notifier fans changed snapshots out to listeners. It remembers the last
// published snapshot so an unchanged rollup is never broadcast twice.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	last        *models.AnalyticsSnapshot
}

func NewNotifier() *Notifier {
	return &Notifier{
		subscribers: make(map[uint64]*subscriber),
	}
}

// OnSnapshotChanged registers cb and returns a function that removes it.
// Snapshots still queued for cb are dropped on removal.
func (n *Notifier) OnSnapshotChanged(cb SnapshotListener) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	sub := &subscriber{cb: cb}
	n.subscribers[id] = sub

	return func() {
		n.mu.Lock()
		delete(n.subscribers, id)
		n.mu.Unlock()
		sub.close()
	}
}

// Last returns the most recently published snapshot, if any.
func (n *Notifier) Last() (models.AnalyticsSnapshot, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return models.AnalyticsSnapshot{}, false
	}
	return *n.last, true
}

// Publish notifies every listener if snapshot differs from the previous one
// in any counted field, and reports whether it did. Each listener runs off
// the caller's goroutine and receives snapshots in the order they were
// published; a panicking listener is logged and keeps its subscription.
func (n *Notifier) Publish(snapshot models.AnalyticsSnapshot) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last != nil && n.last.SameCounts(snapshot) {
		return false
	}
	n.last = &snapshot
	for _, sub := range n.subscribers {
		sub.enqueue(snapshot)
	}
	return true
}

func deliver(l SnapshotListener, snapshot models.AnalyticsSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			common.GetLoggerWith(
				common.LoggerNameIOTCore,
				zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTNotifier),
			).Error("Snapshot listener panicked", zap.Any("panic", r))
		}
	}()
	l(snapshot)
}
