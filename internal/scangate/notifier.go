package scangate

import (
	"sync"
	"time"
)

// Kind classifies a notification. Processing is sticky: it stays up until
// the scan it belongs to resolves. The other kinds auto-dismiss.
type Kind string

const (
	KindProcessing Kind = "processing"
	KindSuccess    Kind = "success"
	KindWarning    Kind = "warning"
	KindError      Kind = "error"
)

// Sink receives notifier output. Implementations render however they like
// (terminal line, status bar, LED). Show replaces whatever was visible.
type Sink interface {
	Show(kind Kind, icon, message string)
	Clear()
}

const defaultDismissAfter = 2500 * time.Millisecond

// Notifier shows at most one notification at a time. Terminal
// notifications (success, warning, error) are dismissed automatically
// after a fixed interval unless a newer notification replaces them first.
type Notifier struct {
	mu           sync.Mutex
	sink         Sink
	dismissAfter time.Duration

	// generation invalidates the pending dismissal timer of a replaced
	// notification: the timer fires, sees a newer generation, and does
	// nothing.
	generation uint64
	timer      *time.Timer
}

func NewNotifier(sink Sink, opts ...NotifierOption) *Notifier {
	n := &Notifier{sink: sink, dismissAfter: defaultDismissAfter}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type NotifierOption func(*Notifier)

// WithDismissAfter overrides how long terminal notifications stay up.
func WithDismissAfter(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.dismissAfter = d }
}

// Show displays a notification, replacing the current one. Terminal kinds
// schedule their own dismissal; a processing notification stays until
// replaced.
func (n *Notifier) Show(kind Kind, icon, message string) {
	n.mu.Lock()
	n.generation++
	gen := n.generation
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if kind != KindProcessing {
		n.timer = time.AfterFunc(n.dismissAfter, func() {
			n.dismiss(gen)
		})
	}
	n.mu.Unlock()

	n.sink.Show(kind, icon, message)
}

func (n *Notifier) dismiss(gen uint64) {
	n.mu.Lock()
	if gen != n.generation {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.mu.Unlock()

	n.sink.Clear()
}
