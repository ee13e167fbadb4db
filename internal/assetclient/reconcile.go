package assetclient

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

type EventKind string

const (
	EventConfirmed     EventKind = "confirmed"
	EventMintFailed    EventKind = "mint_failed"
	EventIndeterminate EventKind = "indeterminate"
)

// Event reports a terminal transition of a tracked operation.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Operation cards.PendingOperation `json:"operation"`
	At        time.Time              `json:"at"`
	// Err is ErrMintFailed or ErrIndeterminateOperation for the non-happy kinds.
	Err error `json:"-"`
}

// Message is the human readable form of Err.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Reconcile checks every pending operation older than the poll interval and
// settles the ones the chain has an answer for. Operations without an answer
// past the operation timeout become Unknown and stop being polled.
//
// A call made while another one is still running returns immediately with no events.
// The returned error aggregates status queries that failed this round.
func (c *Client) Reconcile(ctx context.Context) ([]Event, error) {
	if !c.reconciling.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer c.reconciling.Store(false)

	now := c.now()
	c.mu.Lock()
	var due []cards.PendingOperation
	for _, op := range c.pending {
		if now.Sub(op.SubmittedAt) >= c.cfg.PollInterval {
			due = append(due, *op)
		}
	}
	c.mu.Unlock()
	sortOperations(due)

	var (
		events []Event
		errs   error
	)
	for _, op := range due {
		if err := ctx.Err(); err != nil {
			return events, errors.CombineErrors(errs, queryFailed(err, "reconcile interrupted"))
		}

		expired := now.Sub(op.SubmittedAt) >= c.cfg.OperationTimeout
		status, err := c.status(ctx, op.TxID)
		if err != nil {
			if !expired {
				errs = errors.CombineErrors(errs, queryFailed(err, "transaction status "+op.TxID))
				continue
			}
			status = TxStatus{State: TxPending}
		}

		var ev *Event
		switch status.State {
		case TxConfirmed:
			ev = c.settleConfirmed(op.TxID, status.AssetID, now)
		case TxFailed:
			ev = c.settleFailed(op.TxID, now)
		default:
			if expired {
				ev = c.settleUnknown(op.TxID, now)
			}
		}
		if ev != nil {
			events = append(events, *ev)
			c.publish(*ev)
		}
	}
	return events, errs
}

func (c *Client) status(ctx context.Context, txID string) (TxStatus, error) {
	sctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return c.network.TransactionStatus(sctx, txID)
}

// The settle helpers re-check membership under the lock: a concurrent Dismiss
// or Retry may already have moved the operation.

func (c *Client) settleConfirmed(txID string, assetID uint64, at time.Time) *Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, ok := c.pending[txID]
	if !ok {
		op, ok = c.unresolved[txID]
	}
	if !ok {
		return nil
	}
	delete(c.pending, txID)
	delete(c.unresolved, txID)
	c.deleteLocked(txID)
	c.invalidateLocked()

	settled := *op
	settled.State = cards.StateConfirmed
	if assetID != 0 {
		settled.AssetID = assetID
	}
	c.raiseHighestLocked(settled.AssetID)
	log.Info("mint confirmed", "tx", txID, "card", settled.AssetID, "name", settled.Name)
	return &Event{Kind: EventConfirmed, Operation: settled, At: at}
}

func (c *Client) settleFailed(txID string, at time.Time) *Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, ok := c.pending[txID]
	if !ok {
		op, ok = c.unresolved[txID]
	}
	if !ok {
		return nil
	}
	delete(c.pending, txID)
	delete(c.unresolved, txID)
	c.deleteLocked(txID)

	settled := *op
	settled.State = cards.StateFailed
	log.Warn("mint failed on chain", "tx", txID, "name", settled.Name)
	return &Event{
		Kind:      EventMintFailed,
		Operation: settled,
		At:        at,
		Err:       errors.Mark(errors.Newf("mint %s reverted", txID), ErrMintFailed),
	}
}

func (c *Client) settleUnknown(txID string, at time.Time) *Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, ok := c.pending[txID]
	if !ok {
		return nil
	}
	delete(c.pending, txID)
	op.State = cards.StateUnknown
	c.unresolved[txID] = op
	c.saveLocked(*op)

	log.Warn("mint outcome unknown", "tx", txID, "submitted_at", op.SubmittedAt, "timeout", c.cfg.OperationTimeout)
	return &Event{
		Kind:      EventIndeterminate,
		Operation: *op,
		At:        at,
		Err: errors.Mark(
			errors.Newf("mint %s not settled after %s", txID, c.cfg.OperationTimeout),
			ErrIndeterminateOperation,
		),
	}
}

func (c *Client) publish(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Warn("event buffer full, dropping event", "kind", string(ev.Kind), "tx", ev.Operation.TxID)
	}
}

// Retry asks the chain again about an Unknown operation.
// A confirmed or failed transaction is settled right away (failed returns
// ErrMintFailed); one the chain still knows nothing about goes back to the
// pending set with a fresh timeout window.
func (c *Client) Retry(ctx context.Context, txID string) (*cards.PendingOperation, error) {
	c.mu.Lock()
	_, ok := c.unresolved[txID]
	c.mu.Unlock()
	if !ok {
		return nil, errors.Mark(errors.Newf("operation %s is not awaiting retry", txID), ErrUnknownOperation)
	}

	status, err := c.status(ctx, txID)
	if err != nil {
		return nil, queryFailed(err, "transaction status "+txID)
	}

	now := c.now()
	switch status.State {
	case TxConfirmed:
		ev := c.settleConfirmed(txID, status.AssetID, now)
		if ev == nil {
			return nil, errors.Mark(errors.Newf("operation %s already settled", txID), ErrUnknownOperation)
		}
		c.publish(*ev)
		return &ev.Operation, nil
	case TxFailed:
		ev := c.settleFailed(txID, now)
		if ev == nil {
			return nil, errors.Mark(errors.Newf("operation %s already settled", txID), ErrUnknownOperation)
		}
		c.publish(*ev)
		return &ev.Operation, ev.Err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.unresolved[txID]
	if !ok {
		return nil, errors.Mark(errors.Newf("operation %s already settled", txID), ErrUnknownOperation)
	}
	delete(c.unresolved, txID)
	op.State = cards.StateSubmitted
	op.SubmittedAt = now
	c.pending[txID] = op
	c.saveLocked(*op)
	log.Info("tracking mint again", "tx", txID)

	resumed := *op
	return &resumed, nil
}

// Dismiss forgets an Unknown operation. Its optimistic entry disappears from ListOwned.
func (c *Client) Dismiss(txID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.unresolved[txID]; !ok {
		return errors.Mark(errors.Newf("operation %s is not awaiting retry", txID), ErrUnknownOperation)
	}
	delete(c.unresolved, txID)
	c.deleteLocked(txID)
	log.Info("dismissed unknown mint", "tx", txID)
	return nil
}
