package cardlegends

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

const owner = "0x1111111111111111111111111111111111111111"

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec()
	require.NoError(t, err)
	return c
}

func TestEncodeMint(t *testing.T) {
	c := newCodec(t)

	data, err := c.EncodeMint(owner, "Cosmic Warrior", cards.RarityLegendary, 850)
	require.NoError(t, err)

	parsed, err := ABI()
	require.NoError(t, err)
	m := parsed.Methods[MethodMintCard]
	require.Equal(t, m.ID, data[:4])

	args, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(owner), args[0])
	require.Equal(t, "Cosmic Warrior", args[1])
	require.Equal(t, uint8(4), args[2])
	require.Equal(t, uint32(850), args[3])

	_, err = c.EncodeMint("not-an-address", "x", cards.RarityCommon, 1)
	require.Error(t, err)
	_, err = c.EncodeMint(owner, "x", cards.Rarity(0), 1)
	require.Error(t, err)
}

func TestDecodeAsset(t *testing.T) {
	c := newCodec(t)

	want := &cards.Asset{ID: 9, Name: "Void Drake", Rarity: cards.RarityEpic, Power: 610, Owner: common.HexToAddress(owner).Hex(), Status: cards.StatusConfirmed}
	raw, err := c.EncodeAssetResult(want)
	require.NoError(t, err)

	got, err := c.DecodeAsset(9, raw)
	require.NoError(t, err)
	require.Equal(t, want, got)

	raw, err = c.EncodeAssetResult(nil)
	require.NoError(t, err)
	got, err = c.DecodeAsset(10, raw)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = c.DecodeAsset(1, nil)
	require.Error(t, err)
	_, err = c.DecodeAsset(1, []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestDecodeAssetRejectsUnknownRarity(t *testing.T) {
	c := newCodec(t)
	parsed, err := ABI()
	require.NoError(t, err)

	raw, err := parsed.Methods[MethodGetCard].Outputs.Pack(true, "Glitch", uint8(7), uint32(1), common.HexToAddress(owner))
	require.NoError(t, err)

	_, err = c.DecodeAsset(1, raw)
	require.Error(t, err)
}

func TestDecodeAssetIDs(t *testing.T) {
	c := newCodec(t)

	raw, err := c.EncodeAssetIDsResult([]uint64{3, 1, 7})
	require.NoError(t, err)
	ids, err := c.DecodeAssetIDs(raw)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 1, 7}, ids)

	raw, err = c.EncodeAssetIDsResult(nil)
	require.NoError(t, err)
	ids, err = c.DecodeAssetIDs(raw)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestDecodeCount(t *testing.T) {
	c := newCodec(t)
	parsed, err := ABI()
	require.NoError(t, err)

	raw, err := parsed.Methods[MethodCardCount].Outputs.Pack(uint64(42))
	require.NoError(t, err)
	n, err := c.DecodeCount(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestMintedIDFromLogs(t *testing.T) {
	c := newCodec(t)
	parsed, err := ABI()
	require.NoError(t, err)

	contract := common.HexToAddress("0x2222222222222222222222222222222222222222")
	ev := parsed.Events[EventCardMinted]

	logs := []*types.Log{
		{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Topics: []common.Hash{ev.ID, common.BigToHash(big.NewInt(1))}},
		{Address: contract, Topics: []common.Hash{ev.ID, common.BigToHash(big.NewInt(12)), common.HexToHash(owner)}},
	}

	id, ok := c.MintedIDFromLogs(contract, logs)
	require.True(t, ok)
	require.Equal(t, uint64(12), id)

	_, ok = c.MintedIDFromLogs(contract, logs[:1])
	require.False(t, ok)
}

func TestIsViewMethod(t *testing.T) {
	c := newCodec(t)
	require.True(t, c.IsViewMethod(MethodGetCard))
	require.True(t, c.IsViewMethod(MethodGetPlayerCards))
	require.False(t, c.IsViewMethod(MethodMintCard))
	require.False(t, c.IsViewMethod("nope"))
}
