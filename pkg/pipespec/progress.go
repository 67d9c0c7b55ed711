package pipespec

import "sync/atomic"

// ProgressObserver is the sink the extraction worker pushes progress
// into and reads cancellation from. Report must not block; Cancelled is
// polled cooperatively at loop boundaries and must be safe to call from
// another goroutine.
type ProgressObserver interface {
	// Report receives a percentage (0-100) and a status message.
	Report(percent int, message string)
	// Cancelled reports whether the observer has requested
	// cancellation.
	Cancelled() bool
}

// NopObserver discards progress and never cancels.
type NopObserver struct{}

// Report implements ProgressObserver.
func (NopObserver) Report(int, string) {}

// Cancelled implements ProgressObserver.
func (NopObserver) Cancelled() bool { return false }

// Update is one progress notification.
type Update struct {
	Percent int
	Message string
}

// ChannelObserver bridges the worker to a consumer over a one-way,
// non-blocking channel. When the consumer lags, older updates are
// dropped so the channel always carries the latest value; no
// back-pressure reaches the worker.
type ChannelObserver struct {
	ch        chan Update
	cancelled atomic.Bool
}

// NewChannelObserver creates an observer with a single-slot latest-value
// channel.
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan Update, 1)}
}

// Report implements ProgressObserver without ever blocking the worker.
func (o *ChannelObserver) Report(percent int, message string) {
	u := Update{Percent: percent, Message: message}
	select {
	case o.ch <- u:
		return
	default:
	}
	// Slot full: displace the stale update.
	select {
	case <-o.ch:
	default:
	}
	select {
	case o.ch <- u:
	default:
	}
}

// Updates returns the consumer side of the channel.
func (o *ChannelObserver) Updates() <-chan Update { return o.ch }

// Cancel requests cooperative cancellation of the run.
func (o *ChannelObserver) Cancel() { o.cancelled.Store(true) }

// Cancelled implements ProgressObserver.
func (o *ChannelObserver) Cancelled() bool { return o.cancelled.Load() }
