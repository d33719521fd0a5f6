package scanner

import (
	"time"

	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/types"
)

// Listener receives progress events for one scan.
type Listener interface {
	OnProgress(event types.ProgressEvent) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event types.ProgressEvent) error

func (f ListenerFunc) OnProgress(event types.ProgressEvent) error {
	return f(event)
}

// ChannelListener forwards events to a channel without blocking. Events are
// dropped when the channel is full.
func ChannelListener(ch chan<- types.ProgressEvent) Listener {
	return ListenerFunc(func(event types.ProgressEvent) error {
		select {
		case ch <- event:
		default:
			zap.S().Debugw("progress channel full, dropping event", "scan_id", event.ScanID, "message", event.Message)
		}
		return nil
	})
}

// notifier delivers events to the listeners of one scan. A listener that
// errors or panics is logged and skipped; the others still receive the event.
type notifier struct {
	scanID    string
	listeners []Listener
	now       func() time.Time
}

func newNotifier(scanID string, listeners []Listener, now func() time.Time) *notifier {
	return &notifier{scanID: scanID, listeners: listeners, now: now}
}

func (n *notifier) notify(message string, data map[string]any) {
	if len(n.listeners) == 0 {
		return
	}
	event := types.ProgressEvent{
		ScanID:    n.scanID,
		Message:   message,
		Data:      data,
		Timestamp: n.now(),
	}
	for _, l := range n.listeners {
		if l != nil {
			n.deliver(l, event)
		}
	}
}

func (n *notifier) deliver(l Listener, event types.ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Warnw("progress listener panicked", "scan_id", n.scanID, "panic", r)
		}
	}()
	if err := l.OnProgress(event); err != nil {
		zap.S().Warnw("progress listener failed", "scan_id", n.scanID, "error", err)
	}
}
