package assetclient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
	"github.com/xsphere-io/cardlegends-client/internal/contracts/cardlegends"
)

const (
	playerA  = "0x00000000000000000000000000000000000000Aa"
	playerB  = "0x00000000000000000000000000000000000000bB"
	contract = "0x2222222222222222222222222222222222222222"
)

var errNetworkDown = errors.New("gateway unreachable")

// fakeNetwork is an in-memory chain that speaks the real contract encoding.
type fakeNetwork struct {
	codec *cardlegends.Codec

	mu        sync.Mutex
	cards     map[uint64]cards.Asset
	nextID    uint64
	txs       map[string]TxStatus
	submitted []Payload
	txSeq     int

	submitErr     error
	submitKeepsID bool
	blockOnSubmit bool
	listFailures  int
	getCardErr    error
	statusErr     error
	countErr      error
	listCalls     int
	getCardCalls  int
	listGate      chan struct{}
	listEntered   chan struct{}
	statusGate    chan struct{}
	statusEntered chan struct{}
}

func newFakeNetwork(codec *cardlegends.Codec) *fakeNetwork {
	return &fakeNetwork{
		codec:  codec,
		cards:  make(map[uint64]cards.Asset),
		nextID: 1,
		txs:    make(map[string]TxStatus),
	}
}

func (f *fakeNetwork) SubmitTransaction(ctx context.Context, payload Payload) (string, error) {
	f.mu.Lock()
	f.txSeq++
	txID := fmt.Sprintf("0x%064x", f.txSeq)
	f.submitted = append(f.submitted, payload)
	block := f.blockOnSubmit
	err := f.submitErr
	keep := f.submitKeepsID
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		if keep {
			f.mu.Lock()
			f.txs[txID] = TxStatus{State: TxPending}
			f.mu.Unlock()
			return txID, ctx.Err()
		}
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.txs[txID] = TxStatus{State: TxPending}
	f.mu.Unlock()
	return txID, nil
}

func (f *fakeNetwork) QueryContract(ctx context.Context, function string, args ...interface{}) ([]byte, error) {
	switch function {
	case cardlegends.MethodGetPlayerCards:
		f.mu.Lock()
		f.listCalls++
		gate, entered := f.listGate, f.listEntered
		fail := f.listFailures > 0
		if fail {
			f.listFailures--
		}
		f.mu.Unlock()

		if entered != nil {
			entered <- struct{}{}
		}
		if gate != nil {
			<-gate
		}
		if fail {
			return nil, errNetworkDown
		}

		player := args[0].(common.Address)
		f.mu.Lock()
		var ids []uint64
		for id, a := range f.cards {
			if strings.EqualFold(a.Owner, player.Hex()) {
				ids = append(ids, id)
			}
		}
		f.mu.Unlock()
		// newest first, so ordering is up to the client
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
		return f.codec.EncodeAssetIDsResult(ids)

	case cardlegends.MethodCardCount:
		f.mu.Lock()
		n, err := f.nextID-1, f.countErr
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return f.codec.EncodeCountResult(n)

	case cardlegends.MethodGetCard:
		id := args[0].(uint64)
		f.mu.Lock()
		f.getCardCalls++
		err := f.getCardErr
		a, ok := f.cards[id]
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if !ok {
			return f.codec.EncodeAssetResult(nil)
		}
		return f.codec.EncodeAssetResult(&a)
	}
	return nil, errors.Newf("unexpected function %s", function)
}

func (f *fakeNetwork) TransactionStatus(ctx context.Context, txID string) (TxStatus, error) {
	f.mu.Lock()
	gate, entered := f.statusGate, f.statusEntered
	err := f.statusErr
	st, ok := f.txs[txID]
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return TxStatus{}, err
	}
	if !ok {
		return TxStatus{State: TxPending}, nil
	}
	return st, nil
}

// mint places a card on chain and returns its id.
func (f *fakeNetwork) mint(owner, name string, rarity cards.Rarity, power uint32) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.cards[id] = cards.Asset{
		ID:     id,
		Name:   name,
		Rarity: rarity,
		Power:  power,
		Owner:  common.HexToAddress(owner).Hex(),
		Status: cards.StatusConfirmed,
	}
	return id
}

// confirm lands the mint carried by tx and marks the transaction successful.
func (f *fakeNetwork) confirm(op *cards.PendingOperation) uint64 {
	id := f.mint(op.Owner, op.Name, op.Rarity, op.Power)
	f.setStatus(op.TxID, TxStatus{State: TxConfirmed, AssetID: id})
	return id
}

func (f *fakeNetwork) setStatus(txID string, st TxStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs[txID] = st
}

func (f *fakeNetwork) set(fn func(f *fakeNetwork)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeNetwork) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeNetwork) submittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memJournal struct {
	mu  sync.Mutex
	ops map[string]cards.PendingOperation
}

func newMemJournal() *memJournal {
	return &memJournal{ops: make(map[string]cards.PendingOperation)}
}

func (j *memJournal) Save(op cards.PendingOperation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops[op.TxID] = op
	return nil
}

func (j *memJournal) Delete(txID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.ops, txID)
	return nil
}

func (j *memJournal) LoadAll() ([]cards.PendingOperation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]cards.PendingOperation, 0, len(j.ops))
	for _, op := range j.ops {
		out = append(out, op)
	}
	return out, nil
}

func (j *memJournal) get(txID string) (cards.PendingOperation, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	op, ok := j.ops[txID]
	return op, ok
}
