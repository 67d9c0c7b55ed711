package pipespec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelObserverLatestValue(t *testing.T) {
	obs := NewChannelObserver()

	// The worker never blocks; a lagging consumer sees the latest
	// update, not the oldest.
	obs.Report(10, "first")
	obs.Report(20, "second")
	obs.Report(30, "third")

	select {
	case u := <-obs.Updates():
		assert.Equal(t, 30, u.Percent)
		assert.Equal(t, "third", u.Message)
	default:
		t.Fatal("expected a pending update")
	}

	select {
	case u := <-obs.Updates():
		t.Fatalf("unexpected second update: %+v", u)
	default:
	}
}

func TestChannelObserverCancel(t *testing.T) {
	obs := NewChannelObserver()
	require.False(t, obs.Cancelled())
	obs.Cancel()
	assert.True(t, obs.Cancelled())
}

func TestNopObserver(t *testing.T) {
	var obs NopObserver
	obs.Report(50, "ignored")
	assert.False(t, obs.Cancelled())
}
