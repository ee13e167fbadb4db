package http

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

func event(n int) assetclient.Event {
	return assetclient.Event{
		Kind:      assetclient.EventConfirmed,
		Operation: cards.PendingOperation{TxID: fmt.Sprintf("0x%d", n), AssetID: uint64(n)},
		At:        time.Unix(int64(n), 0),
	}
}

func TestEventLogKeepsNewestFirst(t *testing.T) {
	l := NewEventLog(3, nil)
	require.Empty(t, l.Recent())

	l.Add(event(1))
	l.Add(event(2))
	got := l.Recent()
	require.Len(t, got, 2)
	require.Equal(t, "0x2", got[0].TxID)
	require.Equal(t, "0x1", got[1].TxID)

	l.Add(event(3))
	l.Add(event(4))
	got = l.Recent()
	require.Len(t, got, 3)
	require.Equal(t, []string{"0x4", "0x3", "0x2"}, []string{got[0].TxID, got[1].TxID, got[2].TxID})
}

func TestEventLogConsume(t *testing.T) {
	l := NewEventLog(10, nil)
	ch := make(chan assetclient.Event, 2)
	ch <- event(1)
	ch <- event(2)
	close(ch)

	done := make(chan struct{})
	go func() {
		l.Consume(context.Background(), ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not return after channel close")
	}
	require.Len(t, l.Recent(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Consume(ctx, make(chan assetclient.Event))
}
