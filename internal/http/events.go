package http

import (
	"context"
	"sync"
	"time"

	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
)

type eventView struct {
	Kind    assetclient.EventKind `json:"kind"`
	TxID    string                `json:"txId"`
	AssetID uint64                `json:"assetId,omitempty"`
	Name    string                `json:"name"`
	At      time.Time             `json:"at"`
	Message string                `json:"message,omitempty"`
	TxURL   string                `json:"txUrl,omitempty"`
}

// EventLog keeps the most recent settlement events for the UI.
type EventLog struct {
	mu    sync.Mutex
	buf   []eventView
	next  int
	full  bool
	txURL func(string) string
}

func NewEventLog(size int, txURL func(string) string) *EventLog {
	if size <= 0 {
		size = defaultEventLogSize
	}
	if txURL == nil {
		txURL = func(string) string { return "" }
	}
	return &EventLog{buf: make([]eventView, size), txURL: txURL}
}

func (l *EventLog) Add(ev assetclient.Event) {
	v := eventView{
		Kind:    ev.Kind,
		TxID:    ev.Operation.TxID,
		AssetID: ev.Operation.AssetID,
		Name:    ev.Operation.Name,
		At:      ev.At,
		Message: ev.Message(),
		TxURL:   l.txURL(ev.Operation.TxID),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = v
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the buffered events, newest first.
func (l *EventLog) Recent() []eventView {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.buf)
	}
	out := make([]eventView, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.buf[(l.next-i+len(l.buf))%len(l.buf)])
	}
	return out
}

// Consume drains events into the log until ctx ends or the channel closes.
func (l *EventLog) Consume(ctx context.Context, events <-chan assetclient.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.Add(ev)
		}
	}
}
