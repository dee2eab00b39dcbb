package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Severity classifies a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notifier receives user-visible outcomes of cart operations. Delivery is
// fire-and-forget.
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, severity Severity)

// Notify calls f.
func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(string, Severity) {})

// LogNotifier writes notifications to lg at debug level, errors at warn.
func LogNotifier(lg *zap.Logger) Notifier {
	return NotifierFunc(func(message string, severity Severity) {
		if severity == SeverityError {
			lg.Warn("Cart notification", zap.String("message", message))
			return
		}
		lg.Debug("Cart notification", zap.String("message", message), zap.String("severity", string(severity)))
	})
}

// Notification is a buffered message.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// inboxLimit bounds the buffered notifications of one request.
const inboxLimit = 32

// Inbox buffers notifications until the UI layer drains them, forwarding
// each one to next as well. Once full, the oldest message is dropped. The
// HTTP layer keeps one Inbox per request so concurrent requests on a session
// never see each other's messages.
type Inbox struct {
	next Notifier

	mu    sync.Mutex
	queue []Notification
}

// NewInbox returns an Inbox forwarding to next, which may be nil.
func NewInbox(next Notifier) *Inbox {
	if next == nil {
		next = Discard
	}
	return &Inbox{next: next}
}

// Notify buffers the message and forwards it.
func (b *Inbox) Notify(message string, severity Severity) {
	b.mu.Lock()
	if len(b.queue) == inboxLimit {
		b.queue = b.queue[1:]
	}
	b.queue = append(b.queue, Notification{Message: message, Severity: severity})
	b.mu.Unlock()

	b.next.Notify(message, severity)
}

// Drain returns and forgets the buffered messages.
func (b *Inbox) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.queue
	b.queue = nil
	return out
}

type notifierKey struct{}

// WithNotifier returns a context whose cart operations also report to n,
// in addition to the store's own notifier.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

func notifierFrom(ctx context.Context) Notifier {
	n, _ := ctx.Value(notifierKey{}).(Notifier)
	return n
}
