package cards

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxNameLength bounds the card name in runes.
	MaxNameLength = 64
	// MaxPower is the largest power the contract stores (uint32).
	MaxPower = uint64(^uint32(0))
)

// Rarity is stored on chain as 1..4.
type Rarity uint8

const (
	RarityCommon    Rarity = 1
	RarityRare      Rarity = 2
	RarityEpic      Rarity = 3
	RarityLegendary Rarity = 4
)

var rarityNames = map[Rarity]string{
	RarityCommon:    "Common",
	RarityRare:      "Rare",
	RarityEpic:      "Epic",
	RarityLegendary: "Legendary",
}

func (r Rarity) Valid() bool {
	_, ok := rarityNames[r]
	return ok
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rarity(%d)", uint8(r))
}

// ParseRarity accepts the rarity name (any case) or its numeric value.
func ParseRarity(s string) (Rarity, error) {
	s = strings.TrimSpace(s)
	for r, name := range rarityNames {
		if strings.EqualFold(name, s) || s == fmt.Sprintf("%d", uint8(r)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	parsed, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AssetStatus tells confirmed chain state apart from optimistic entries.
type AssetStatus string

const (
	StatusConfirmed AssetStatus = "confirmed"
	StatusPending   AssetStatus = "pending"
	StatusUnknown   AssetStatus = "unknown"
)

type Asset struct {
	ID     uint64      `json:"id"` // 0 until the mint is confirmed
	Name   string      `json:"name"`
	Rarity Rarity      `json:"rarity"`
	Power  uint32      `json:"power"`
	Owner  string      `json:"owner"`
	Status AssetStatus `json:"status"`

	// TxID is set on optimistic entries only.
	TxID string `json:"txId,omitempty"`
}

func (a Asset) Pending() bool {
	return a.Status == StatusPending
}

type OperationKind string

const OperationMint OperationKind = "mint"

type OperationState string

const (
	StateSubmitted OperationState = "submitted"
	StateConfirmed OperationState = "confirmed"
	StateFailed    OperationState = "failed"
	StateUnknown   OperationState = "unknown"
)

func (s OperationState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateUnknown
}

// PendingOperation is a submitted mutation awaiting chain confirmation.
type PendingOperation struct {
	TxID        string         `json:"txId"`
	Kind        OperationKind  `json:"kind"`
	State       OperationState `json:"state"`
	Owner       string         `json:"owner"`
	Name        string         `json:"name"`
	Rarity      Rarity         `json:"rarity"`
	Power       uint32         `json:"power"`
	SubmittedAt time.Time      `json:"submittedAt"`

	// BaselineID is the highest card id on chain at submit time; the minted card comes after it.
	BaselineID uint64 `json:"baselineId"`
	// AssetID is filled once the mint is confirmed and the id could be read.
	AssetID uint64 `json:"assetId,omitempty"`
}

// Optimistic renders the operation as a not-yet-confirmed asset.
func (op PendingOperation) Optimistic() Asset {
	status := StatusPending
	if op.State == StateUnknown {
		status = StatusUnknown
	}
	return Asset{
		ID:     op.AssetID,
		Name:   op.Name,
		Rarity: op.Rarity,
		Power:  op.Power,
		Owner:  op.Owner,
		Status: status,
		TxID:   op.TxID,
	}
}

// Matches reports whether a confirmed asset carries the attributes this mint asked for.
func (op PendingOperation) Matches(a Asset) bool {
	if op.AssetID != 0 {
		return a.ID == op.AssetID
	}
	return a.ID > op.BaselineID &&
		a.Name == op.Name &&
		a.Rarity == op.Rarity &&
		a.Power == op.Power &&
		strings.EqualFold(a.Owner, op.Owner)
}
