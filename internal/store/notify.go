package store

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultNotificationTimeout is how long a notification stays visible.
const DefaultNotificationTimeout = 3000 * time.Millisecond

// Severity of a notification.
type Severity string

// Severities.
const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Message  string
	Severity Severity
}

// NotificationHandler observes a notification being shown (visible=true)
// or hidden (visible=false). Handlers run on the goroutine that caused the
// change, or on a timer goroutine for auto-dismissal.
type NotificationHandler func(n Notification, visible bool)

// Notifier holds at most one visible notification. Showing a new one replaces
// the previous one and restarts the dismissal timer.
type Notifier struct {
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	current  Notification
	visible  bool
	seq      uint64
	timer    *time.Timer
	handlers []NotificationHandler
}

// NewNotifier creates a notifier that hides notifications after timeout.
// A zero timeout keeps them until Dismiss is called.
func NewNotifier(timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		timeout: timeout,
		logger:  logger.With("component", "notifier"),
	}
}

// RegisterHandler adds a handler for show/hide changes.
func (n *Notifier) RegisterHandler(h NotificationHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Success shows a success notification.
func (n *Notifier) Success(msg string) {
	n.Show(Notification{Message: msg, Severity: SeveritySuccess})
}

// Error shows an error notification.
func (n *Notifier) Error(msg string) {
	n.Show(Notification{Message: msg, Severity: SeverityError})
}

// Show makes note the visible notification.
func (n *Notifier) Show(note Notification) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = note
	n.visible = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.timeout > 0 {
		n.timer = time.AfterFunc(n.timeout, func() { n.expire(seq) })
	}
	handlers := n.snapshotHandlers()
	n.mu.Unlock()

	n.logger.Debug("notification shown", "message", note.Message, "severity", note.Severity)
	for _, h := range handlers {
		h(note, true)
	}
}

// Dismiss hides the visible notification, if any.
func (n *Notifier) Dismiss() {
	n.hide(0)
}

// Current returns the visible notification.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current, n.visible
}

func (n *Notifier) expire(seq uint64) {
	n.hide(seq)
}

// hide hides the current notification. A non-zero seq only hides the
// notification it was scheduled for, so a stale timer cannot hide a newer one.
func (n *Notifier) hide(seq uint64) {
	n.mu.Lock()
	if !n.visible || (seq != 0 && seq != n.seq) {
		n.mu.Unlock()
		return
	}
	n.visible = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	note := n.current
	handlers := n.snapshotHandlers()
	n.mu.Unlock()

	for _, h := range handlers {
		h(note, false)
	}
}

// snapshotHandlers must be called with n.mu held.
func (n *Notifier) snapshotHandlers() []NotificationHandler {
	handlers := make([]NotificationHandler, len(n.handlers))
	copy(handlers, n.handlers)
	return handlers
}
