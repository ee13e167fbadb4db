package chains

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

// HeaderCache serves the latest header from memory and refreshes it in the background.
// Every other call goes straight to the wrapped client.
type HeaderCache struct {
	latestHeader             atomic.Pointer[types.Header]
	timeReceivedLatestHeader atomic.Pointer[time.Time]
	EVMClient
}

// NewHeaderCache fetches the current header and keeps it fresh until ctx ends.
func NewHeaderCache(ctx context.Context, client EVMClient, refresh time.Duration) (*HeaderCache, error) {
	if refresh <= 0 {
		return nil, errors.Newf("invalid header refresh interval %s", refresh)
	}
	hc := &HeaderCache{EVMClient: client}
	if err := hc.refresh(ctx); err != nil {
		return nil, err
	}

	go hc.maintain(ctx, refresh)
	return hc, nil
}

func (hc *HeaderCache) maintain(ctx context.Context, refresh time.Duration) {
	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = refresh
	cfg.InitialDelayBeforeRetrying = refresh / 10

	timer := time.NewTimer(refresh)
	defer timer.Stop()
	numCallsToChain := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("header cache exiting", "numCallsToChain", numCallsToChain)
			return
		case <-timer.C:
			_, _ = retry.Retry(ctx, cfg,
				func(ctx context.Context) ([]interface{}, error) {
					numCallsToChain++
					return nil, hc.refresh(ctx)
				},
				nil, // always retry
				"refresh latest header")
			timer.Reset(refresh)
		}
	}
}

func (hc *HeaderCache) refresh(ctx context.Context) error {
	header, err := hc.EVMClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "get latest header")
	}
	received := time.Now().UTC()
	hc.latestHeader.Store(header)
	hc.timeReceivedLatestHeader.Store(&received)
	return nil
}

// HeaderByNumber answers nil (latest) from the cache.
func (hc *HeaderCache) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if number == nil {
		if h := hc.latestHeader.Load(); h != nil {
			return h, nil
		}
	}
	return hc.EVMClient.HeaderByNumber(ctx, number)
}

// Age is how long ago the cached header was received.
func (hc *HeaderCache) Age() time.Duration {
	t := hc.timeReceivedLatestHeader.Load()
	if t == nil {
		return 0
	}
	return time.Since(*t)
}
