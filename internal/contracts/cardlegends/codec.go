package cardlegends

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

// Codec packs call data and decodes return data of the Card Legends contract.
type Codec struct {
	abi abi.ABI
}

func NewCodec() (*Codec, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, errors.Wrap(err, "parse card legends abi")
	}
	return &Codec{abi: parsed}, nil
}

// Pack encodes a call to method with args (selector included).
func (c *Codec) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}
	return data, nil
}

// EncodeMint builds the mintCard call data.
func (c *Codec) EncodeMint(owner string, name string, rarity cards.Rarity, power uint32) ([]byte, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}
	if !rarity.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", uint8(rarity))
	}
	return c.Pack(MethodMintCard, common.HexToAddress(owner), name, uint8(rarity), power)
}

// DecodeAsset decodes getCard return data. A nil asset means the contract has no card with id.
func (c *Codec) DecodeAsset(id uint64, raw []byte) (*cards.Asset, error) {
	out, err := c.unpack(MethodGetCard, raw)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("getCard: expected 5 values, got %d", len(out))
	}

	exists, ok := out[0].(bool)
	if !ok {
		return nil, fmt.Errorf("getCard: exists is %T", out[0])
	}
	if !exists {
		return nil, nil
	}

	name, ok := out[1].(string)
	if !ok {
		return nil, fmt.Errorf("getCard: name is %T", out[1])
	}
	rarity, ok := out[2].(uint8)
	if !ok {
		return nil, fmt.Errorf("getCard: rarity is %T", out[2])
	}
	power, ok := out[3].(uint32)
	if !ok {
		return nil, fmt.Errorf("getCard: power is %T", out[3])
	}
	owner, ok := out[4].(common.Address)
	if !ok {
		return nil, fmt.Errorf("getCard: owner is %T", out[4])
	}
	if !cards.Rarity(rarity).Valid() {
		return nil, fmt.Errorf("getCard: card %d has invalid rarity %d", id, rarity)
	}

	return &cards.Asset{
		ID:     id,
		Name:   name,
		Rarity: cards.Rarity(rarity),
		Power:  power,
		Owner:  owner.Hex(),
		Status: cards.StatusConfirmed,
	}, nil
}

// DecodeAssetIDs decodes getPlayerCards return data.
func (c *Codec) DecodeAssetIDs(raw []byte) ([]uint64, error) {
	out, err := c.unpack(MethodGetPlayerCards, raw)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getPlayerCards: expected 1 value, got %d", len(out))
	}
	ids, ok := out[0].([]uint64)
	if !ok {
		return nil, fmt.Errorf("getPlayerCards: ids is %T", out[0])
	}
	return ids, nil
}

// DecodeCount decodes cardCount return data.
func (c *Codec) DecodeCount(raw []byte) (uint64, error) {
	out, err := c.unpack(MethodCardCount, raw)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("cardCount: expected 1 value, got %d", len(out))
	}
	n, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("cardCount: value is %T", out[0])
	}
	return n, nil
}

// MintedIDFromLogs returns the id from the first CardMinted event emitted by contract.
func (c *Codec) MintedIDFromLogs(contract common.Address, logs []*types.Log) (uint64, bool) {
	ev, ok := c.abi.Events[EventCardMinted]
	if !ok {
		return 0, false
	}
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) < 2 {
			continue
		}
		if l.Topics[0] != ev.ID {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64(), true
	}
	return 0, false
}

// EncodeAssetResult produces getCard return data; nil encodes a missing card.
// Used by test networks and local simulators.
func (c *Codec) EncodeAssetResult(a *cards.Asset) ([]byte, error) {
	m := c.abi.Methods[MethodGetCard]
	if a == nil {
		return m.Outputs.Pack(false, "", uint8(0), uint32(0), common.Address{})
	}
	return m.Outputs.Pack(true, a.Name, uint8(a.Rarity), a.Power, common.HexToAddress(a.Owner))
}

// EncodeAssetIDsResult produces getPlayerCards return data.
func (c *Codec) EncodeAssetIDsResult(ids []uint64) ([]byte, error) {
	if ids == nil {
		ids = []uint64{}
	}
	return c.abi.Methods[MethodGetPlayerCards].Outputs.Pack(ids)
}

// EncodeCountResult produces cardCount return data.
func (c *Codec) EncodeCountResult(n uint64) ([]byte, error) {
	return c.abi.Methods[MethodCardCount].Outputs.Pack(n)
}

func (c *Codec) unpack(method string, raw []byte) ([]interface{}, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("unknown method %q", method)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty return data", method)
	}
	out, err := m.Outputs.Unpack(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	return out, nil
}

// IsViewMethod reports whether method can be served with eth_call.
func (c *Codec) IsViewMethod(method string) bool {
	m, ok := c.abi.Methods[method]
	if !ok {
		return false
	}
	return strings.EqualFold(m.StateMutability, "view") || strings.EqualFold(m.StateMutability, "pure")
}
