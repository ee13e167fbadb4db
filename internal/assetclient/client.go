// Package assetclient is the single point of contact between the game and the
// Card Legends contract. It submits mints, serves owned-card reads from a cache
// and tracks submitted transactions until the chain settles them.
package assetclient

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
	"github.com/xsphere-io/cardlegends-client/internal/contracts/cardlegends"
)

type Client struct {
	cfg     Config
	network Network
	codec   Codec
	journal Journal
	now     func() time.Time
	events  chan Event

	mu         sync.Mutex
	account    string
	pending    map[string]*cards.PendingOperation
	unresolved map[string]*cards.PendingOperation

	// cache holds confirmed assets of account; valid until the next invalidation.
	cache      []cards.Asset
	cacheValid bool
	// generation moves on every invalidation so a fetch that started earlier cannot refill the cache.
	generation uint64
	lastGood   []cards.Asset
	// highest is the largest card id seen in a listing or a confirmed receipt, for any owner.
	highest uint64

	reconciling atomic.Bool
}

func New(cfg Config, network Network, codec Codec, opts ...Option) (*Client, error) {
	if network == nil || codec == nil {
		return nil, errors.New("assetclient: network and codec are required")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "assetclient config")
	}

	c := &Client{
		cfg:        cfg,
		network:    network,
		codec:      codec,
		now:        time.Now,
		events:     make(chan Event, defaultEventBuffer),
		pending:    make(map[string]*cards.PendingOperation),
		unresolved: make(map[string]*cards.PendingOperation),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.restore(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) restore() error {
	if c.journal == nil {
		return nil
	}
	ops, err := c.journal.LoadAll()
	if err != nil {
		return errors.Wrap(err, "restore operations")
	}
	for i := range ops {
		op := ops[i]
		switch op.State {
		case cards.StateSubmitted:
			c.pending[op.TxID] = &op
		case cards.StateUnknown:
			c.unresolved[op.TxID] = &op
		default:
			if err := c.journal.Delete(op.TxID); err != nil {
				log.Warn("drop settled operation from journal", "tx", op.TxID, "error", err)
			}
		}
	}
	if len(ops) > 0 {
		log.Info("restored operations", "pending", len(c.pending), "unresolved", len(c.unresolved))
	}
	return nil
}

// Connect registers the active account and drops cached assets of a previous one.
func (c *Client) Connect(address string) {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		address = common.HexToAddress(address).Hex()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.EqualFold(c.account, address) {
		return
	}
	c.account = address
	c.resetCacheLocked()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = ""
	c.resetCacheLocked()
}

// Account returns the connected address.
func (c *Client) Account() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account, c.account != ""
}

func (c *Client) IsConnected() bool {
	_, ok := c.Account()
	return ok
}

// Refresh drops the read cache so the next ListOwned goes to the network.
func (c *Client) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) resetCacheLocked() {
	c.invalidateLocked()
	c.lastGood = nil
}

func (c *Client) invalidateLocked() {
	c.generation++
	c.cache = nil
	c.cacheValid = false
}

// Mint submits a mintCard transaction for the connected account.
//
// On success the returned operation is tracked until Reconcile settles it.
// When the context ends after the transaction was signed, the operation is
// still recorded and returned together with an ErrTimeout error.
func (c *Client) Mint(ctx context.Context, name string, rarity cards.Rarity, power int64) (*cards.PendingOperation, error) {
	owner, ok := c.Account()
	if !ok {
		return nil, ErrNotConnected
	}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, invalidInput("name is empty")
	case utf8.RuneCountInString(name) > cards.MaxNameLength:
		return nil, invalidInput("name longer than %d characters", cards.MaxNameLength)
	case !rarity.Valid():
		return nil, invalidInput("unknown rarity %d", uint8(rarity))
	case power < 0 || uint64(power) > cards.MaxPower:
		return nil, invalidInput("power %d out of range [0, %d]", power, cards.MaxPower)
	}

	data, err := c.codec.EncodeMint(owner, name, rarity, uint32(power))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "encode mint"), ErrInvalidInput)
	}

	payload := Payload{
		To:       c.cfg.ContractAddress,
		Function: cardlegends.MethodMintCard,
		Data:     data,
		GasLimit: c.cfg.MintGasLimit,
		ChainID:  c.cfg.ChainID,
	}

	op := cards.PendingOperation{
		Kind:       cards.OperationMint,
		State:      cards.StateSubmitted,
		Owner:      owner,
		Name:       name,
		Rarity:     rarity,
		Power:      uint32(power),
		BaselineID: c.baseline(ctx),
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	txID, err := c.network.SubmitTransaction(submitCtx, payload)
	cancel()

	if err != nil {
		if !isContextErr(err) {
			return nil, errors.Mark(errors.Wrap(err, "submit mint"), ErrSubmissionFailed)
		}
		timeoutErr := errors.Mark(errors.Wrap(err, "submit mint"), ErrTimeout)
		if txID == "" {
			return nil, timeoutErr
		}
		op.TxID = txID
		op.SubmittedAt = c.now()
		c.track(op)
		log.Warn("mint delivery unconfirmed, tracking transaction", "tx", txID, "error", err)
		return &op, timeoutErr
	}
	if txID == "" {
		return nil, errors.Mark(errors.New("network returned an empty transaction id"), ErrSubmissionFailed)
	}

	op.TxID = txID
	op.SubmittedAt = c.now()
	c.track(op)
	log.Info("mint submitted", "tx", txID, "owner", owner, "name", name, "rarity", rarity.String(), "power", power)
	return &op, nil
}

func (c *Client) track(op cards.PendingOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := op
	c.pending[op.TxID] = &stored
	c.invalidateLocked()
	c.saveLocked(stored)
}

// baseline is the highest card id that exists before a new mint is sent.
// Card ids start at 1, so the contract's cardCount is that id. When the count
// cannot be read the highest id this client has seen is used instead.
func (c *Client) baseline(ctx context.Context) uint64 {
	c.mu.Lock()
	known := c.highest
	c.mu.Unlock()

	qctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	raw, err := c.network.QueryContract(qctx, cardlegends.MethodCardCount)
	if err == nil {
		var count uint64
		if count, err = c.codec.DecodeCount(raw); err == nil {
			c.raiseHighest(count)
			return max(count, known)
		}
	}
	log.Warn("card count unavailable, using known highest id", "highest", known, "error", err)
	return known
}

func (c *Client) raiseHighest(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raiseHighestLocked(id)
}

func (c *Client) raiseHighestLocked(id uint64) {
	if id > c.highest {
		c.highest = id
	}
}

// ListOwned returns the connected account's cards ordered by id, followed by
// optimistic entries for mints that have not shown up on chain yet.
//
// On a query failure the last good result (or nothing) is returned merged
// with the optimistic entries, together with an ErrQueryFailed error.
func (c *Client) ListOwned(ctx context.Context) ([]cards.Asset, error) {
	c.mu.Lock()
	owner := c.account
	if owner == "" {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	if c.cacheValid {
		out := c.mergeLocked(c.cache, owner)
		c.mu.Unlock()
		return out, nil
	}
	gen := c.generation
	c.mu.Unlock()

	confirmed, err := c.fetchOwned(ctx, owner)

	c.mu.Lock()
	defer c.mu.Unlock()
	sameAccount := c.account == owner

	if err != nil {
		var base []cards.Asset
		if sameAccount {
			base = c.lastGood
		}
		log.Warn("list owned cards failed", "owner", owner, "error", err)
		return c.mergeLocked(base, owner), err
	}

	for _, a := range confirmed {
		c.raiseHighestLocked(a.ID)
	}
	if sameAccount {
		c.lastGood = confirmed
		if gen == c.generation {
			c.cache = confirmed
			c.cacheValid = true
		}
	}
	return c.mergeLocked(confirmed, owner), nil
}

func (c *Client) fetchOwned(ctx context.Context, owner string) ([]cards.Asset, error) {
	qctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	raw, err := c.network.QueryContract(qctx, cardlegends.MethodGetPlayerCards, common.HexToAddress(owner))
	if err != nil {
		return nil, queryFailed(err, "query owned card ids")
	}
	ids, err := c.codec.DecodeAssetIDs(raw)
	if err != nil {
		return nil, queryFailed(err, "decode owned card ids")
	}

	seen := make(map[uint64]struct{}, len(ids))
	p := pool.NewWithResults[cards.Asset]().
		WithContext(qctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(c.cfg.FetchConcurrency)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		p.Go(func(ctx context.Context) (cards.Asset, error) {
			a, err := c.queryAsset(ctx, id)
			if err != nil {
				return cards.Asset{}, err
			}
			if a == nil {
				return cards.Asset{}, errors.Newf("listed card %d does not exist", id)
			}
			return *a, nil
		})
	}

	assets, err := p.Wait()
	if err != nil {
		return nil, queryFailed(err, "query owned cards")
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

// GetByID reads one card regardless of owner. A nil asset means no such card.
func (c *Client) GetByID(ctx context.Context, id uint64) (*cards.Asset, error) {
	qctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	a, err := c.queryAsset(qctx, id)
	if err != nil {
		return nil, queryFailed(err, "get card")
	}
	return a, nil
}

func (c *Client) queryAsset(ctx context.Context, id uint64) (*cards.Asset, error) {
	raw, err := c.network.QueryContract(ctx, cardlegends.MethodGetCard, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getCard(%d)", id)
	}
	a, err := c.codec.DecodeAsset(id, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode card %d", id)
	}
	return a, nil
}

// mergeLocked appends one optimistic entry per tracked mint of owner that no
// confirmed asset accounts for yet. Each confirmed asset absorbs at most one mint.
func (c *Client) mergeLocked(confirmed []cards.Asset, owner string) []cards.Asset {
	out := make([]cards.Asset, 0, len(confirmed)+len(c.pending)+len(c.unresolved))
	out = append(out, confirmed...)

	ops := c.operationsLocked(owner)
	used := make([]bool, len(confirmed))
	for _, op := range ops {
		if op.Kind != cards.OperationMint {
			continue
		}
		matched := false
		for i := range confirmed {
			if !used[i] && op.Matches(confirmed[i]) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, op.Optimistic())
		}
	}
	return out
}

// operationsLocked lists pending and unresolved operations in submission order.
// An empty owner selects all of them.
func (c *Client) operationsLocked(owner string) []cards.PendingOperation {
	ops := make([]cards.PendingOperation, 0, len(c.pending)+len(c.unresolved))
	for _, set := range []map[string]*cards.PendingOperation{c.pending, c.unresolved} {
		for _, op := range set {
			if owner != "" && !strings.EqualFold(op.Owner, owner) {
				continue
			}
			ops = append(ops, *op)
		}
	}
	sortOperations(ops)
	return ops
}

func sortOperations(ops []cards.PendingOperation) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].SubmittedAt.Equal(ops[j].SubmittedAt) {
			return ops[i].SubmittedAt.Before(ops[j].SubmittedAt)
		}
		return ops[i].TxID < ops[j].TxID
	})
}

// Operations returns every tracked operation, pending and unresolved, oldest first.
func (c *Client) Operations() []cards.PendingOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operationsLocked("")
}

// PendingCount reports how many operations still await a chain status.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) saveLocked(op cards.PendingOperation) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Save(op); err != nil {
		log.Error("journal save failed", "tx", op.TxID, "error", err)
	}
}

func (c *Client) deleteLocked(txID string) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Delete(txID); err != nil {
		log.Error("journal delete failed", "tx", txID, "error", err)
	}
}
