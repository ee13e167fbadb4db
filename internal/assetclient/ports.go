package assetclient

import (
	"context"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

// Payload is a contract call ready to be signed and broadcast.
type Payload struct {
	To       string
	Function string
	Data     []byte
	GasLimit uint64
	ChainID  uint64
}

type TxState int

const (
	TxPending TxState = iota
	TxConfirmed
	TxFailed
)

func (s TxState) String() string {
	switch s {
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	default:
		return "pending"
	}
}

// TxStatus is what the network knows about a submitted transaction.
type TxStatus struct {
	State TxState
	// AssetID is the minted card id when the receipt carried it.
	AssetID uint64
}

// Network is the chain gateway. Implementations must be safe for concurrent use.
type Network interface {
	// SubmitTransaction signs and broadcasts payload and returns the transaction id.
	// When the transaction was signed but the context ended while it was being
	// delivered, the id is returned together with the context error.
	SubmitTransaction(ctx context.Context, payload Payload) (string, error)
	QueryContract(ctx context.Context, function string, args ...interface{}) ([]byte, error)
	TransactionStatus(ctx context.Context, txID string) (TxStatus, error)
}

// Codec turns call arguments and return data into contract encodings and back.
type Codec interface {
	EncodeMint(owner string, name string, rarity cards.Rarity, power uint32) ([]byte, error)
	DecodeAsset(id uint64, raw []byte) (*cards.Asset, error)
	DecodeAssetIDs(raw []byte) ([]uint64, error)
	DecodeCount(raw []byte) (uint64, error)
}

// Journal persists operations that have not been resolved yet.
type Journal interface {
	Save(op cards.PendingOperation) error
	Delete(txID string) error
	LoadAll() ([]cards.PendingOperation, error)
}
