package services

import (
	"sync"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/interfaces/services"
)

// TransientNotifier is a FIFO of short-lived status messages. Each entry
// expires on its own timer; the queue is visible while non-empty.
// Subscribers see every change in the order it was made.
type TransientNotifier struct {
	// changeMu serializes a change with its delivery to subscribers.
	changeMu        sync.Mutex
	mu              sync.Mutex
	clock           Clock
	defaultDuration time.Duration
	successDuration time.Duration
	entries         []entities.Notification
	timers          map[int64]Timer
	lastID          int64
	subscribers     map[int]func([]entities.Notification)
	nextSub         int
}

var _ services.Notifier = (*TransientNotifier)(nil)

// NewNotifier creates a notifier. Zero durations fall back to 5s (default)
// and 3s (success).
func NewNotifier(clock Clock, cfg entities.NotificationConfig) *TransientNotifier {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 5 * time.Second
	}
	if cfg.SuccessDuration <= 0 {
		cfg.SuccessDuration = 3 * time.Second
	}
	return &TransientNotifier{
		clock:           clock,
		defaultDuration: cfg.DefaultDuration,
		successDuration: cfg.SuccessDuration,
		timers:          make(map[int64]Timer),
		subscribers:     make(map[int]func([]entities.Notification)),
	}
}

// Notify queues a message. A zero duration uses the default duration.
func (n *TransientNotifier) Notify(message string, severity entities.Severity, duration time.Duration) entities.Notification {
	if duration <= 0 {
		duration = n.defaultDuration
	}

	n.changeMu.Lock()
	defer n.changeMu.Unlock()

	n.mu.Lock()
	now := n.clock.Now()
	id := now.UnixMilli()
	if id <= n.lastID {
		id = n.lastID + 1
	}
	n.lastID = id

	entry := entities.Notification{
		ID:        id,
		Message:   message,
		Severity:  severity,
		Duration:  duration,
		CreatedAt: now,
	}
	n.entries = append(n.entries, entry)
	n.timers[id] = n.clock.AfterFunc(duration, func() { n.Dismiss(id) })
	snapshot := n.snapshot()
	n.mu.Unlock()

	n.publish(snapshot)
	return entry
}

// Success queues a success message with the success duration
func (n *TransientNotifier) Success(message string) entities.Notification {
	return n.Notify(message, entities.SeveritySuccess, n.successDuration)
}

// Warning queues a warning with the default duration
func (n *TransientNotifier) Warning(message string) entities.Notification {
	return n.Notify(message, entities.SeverityWarning, 0)
}

// Error queues an error with the default duration
func (n *TransientNotifier) Error(message string) entities.Notification {
	return n.Notify(message, entities.SeverityError, 0)
}

// Dismiss removes a single entry. Other entries keep their timers.
func (n *TransientNotifier) Dismiss(id int64) bool {
	n.changeMu.Lock()
	defer n.changeMu.Unlock()

	n.mu.Lock()
	idx := -1
	for i, e := range n.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.entries = append(n.entries[:idx:idx], n.entries[idx+1:]...)
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	snapshot := n.snapshot()
	n.mu.Unlock()

	n.publish(snapshot)
	return true
}

// ClearAll empties the queue immediately and cancels every timer
func (n *TransientNotifier) ClearAll() {
	n.changeMu.Lock()
	defer n.changeMu.Unlock()

	n.mu.Lock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.entries = nil
	n.mu.Unlock()

	n.publish(nil)
}

// Entries returns the queued notifications, oldest first
func (n *TransientNotifier) Entries() []entities.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshot()
}

// Visible reports whether any notification is queued
func (n *TransientNotifier) Visible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries) > 0
}

// Subscribe registers fn to receive the queue after every change. fn runs
// synchronously and must not change the notifier. The returned function
// unsubscribes.
func (n *TransientNotifier) Subscribe(fn func([]entities.Notification)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextSub
	n.nextSub++
	n.subscribers[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers, id)
	}
}

func (n *TransientNotifier) snapshot() []entities.Notification {
	if len(n.entries) == 0 {
		return nil
	}
	out := make([]entities.Notification, len(n.entries))
	copy(out, n.entries)
	return out
}

func (n *TransientNotifier) publish(entries []entities.Notification) {
	n.mu.Lock()
	subs := make([]func([]entities.Notification), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(entries)
	}
}
