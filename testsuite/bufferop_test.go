package testsuite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/bufferop"
	"github.com/lexcodex/espxls/espxerr"
)

// TestChannelOrdering checks that sends arrive in the order they were made, followed by Finished.
func TestChannelOrdering(t *testing.T) {
	ch := bufferop.NewChannel()
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, bufferop.ShowMessage(0, "one")))
	require.NoError(t, ch.Send(ctx, bufferop.ShowMessage(0, "two")))
	require.NoError(t, ch.Send(ctx, bufferop.ShowMessage(0, "three")))
	require.NoError(t, ch.Finish(ctx))

	var got []string
	for status := range ch.Receive() {
		if status.Kind == bufferop.StatusFinished {
			break
		}
		got = append(got, status.Op.Message)
	}
	require.Equal(t, []string{"one", "two", "three"}, got)
}

// TestBackpressureTimesOutOn56thSend checks that with a
// non-draining receiver, the channel's capacity (55) fills and the
// 56th send times out within 1.1s.
func TestBackpressureTimesOutOn56thSend(t *testing.T) {
	ch := bufferop.NewChannel()
	ctx := context.Background()

	for i := 0; i < bufferop.Capacity; i++ {
		require.NoError(t, ch.Send(ctx, bufferop.ShowMessage(0, "filler")))
	}

	start := time.Now()
	err := ch.Send(ctx, bufferop.ShowMessage(0, "overflow"))
	elapsed := time.Since(start)

	require.True(t, errors.Is(err, espxerr.ErrBufferOpTimeout))
	require.LessOrEqual(t, elapsed, 1100*time.Millisecond)
}
