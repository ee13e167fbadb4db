// Package journal keeps unresolved mint operations on disk so they survive a restart.
package journal

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

const maxRetries = 5

type Journal struct {
	store *badgerhold.Store
}

// Open opens the journal in dir. An empty dir keeps it in memory.
func Open(dir string, logger badger.Logger) (*Journal, error) {
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open operation journal: %w", err)
	}
	return &Journal{store: store}, nil
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

func (j *Journal) Save(op cards.PendingOperation) error {
	rec := toRecord(op)
	err := j.store.Upsert(rec.TxID, rec)
	for attempts := 1; errors.Is(err, badger.ErrConflict) && attempts <= maxRetries; attempts++ {
		time.Sleep(50 * time.Millisecond)
		err = j.store.Upsert(rec.TxID, rec)
	}
	if err != nil {
		return fmt.Errorf("failed to save operation %s: %w", op.TxID, err)
	}
	return nil
}

// Delete is a no-op for unknown ids.
func (j *Journal) Delete(txID string) error {
	err := j.store.Delete(txID, &record{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete operation %s: %w", txID, err)
	}
	return nil
}

// LoadAll returns every stored operation, oldest first.
func (j *Journal) LoadAll() ([]cards.PendingOperation, error) {
	var recs []record
	if err := j.store.Find(&recs, nil); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	ops := make([]cards.PendingOperation, 0, len(recs))
	for _, rec := range recs {
		ops = append(ops, rec.toOperation())
	}
	sort.Slice(ops, func(i, k int) bool { return ops[i].SubmittedAt.Before(ops[k].SubmittedAt) })
	return ops, nil
}

func (j *Journal) Close() error {
	return j.store.Close()
}

type record struct {
	TxID        string `badgerhold:"key"`
	Kind        string
	State       string
	Owner       string
	Name        string
	Rarity      uint8
	Power       uint32
	SubmittedAt int64
	BaselineID  uint64
	AssetID     uint64
}

func toRecord(op cards.PendingOperation) record {
	return record{
		TxID:        op.TxID,
		Kind:        string(op.Kind),
		State:       string(op.State),
		Owner:       op.Owner,
		Name:        op.Name,
		Rarity:      uint8(op.Rarity),
		Power:       op.Power,
		SubmittedAt: op.SubmittedAt.UnixNano(),
		BaselineID:  op.BaselineID,
		AssetID:     op.AssetID,
	}
}

func (r record) toOperation() cards.PendingOperation {
	return cards.PendingOperation{
		TxID:        r.TxID,
		Kind:        cards.OperationKind(r.Kind),
		State:       cards.OperationState(r.State),
		Owner:       r.Owner,
		Name:        r.Name,
		Rarity:      cards.Rarity(r.Rarity),
		Power:       r.Power,
		SubmittedAt: time.Unix(0, r.SubmittedAt).UTC(),
		BaselineID:  r.BaselineID,
		AssetID:     r.AssetID,
	}
}
