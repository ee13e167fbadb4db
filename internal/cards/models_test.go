package cards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRarity(t *testing.T) {
	cases := map[string]Rarity{
		"Common":    RarityCommon,
		"rare":      RarityRare,
		" EPIC ":    RarityEpic,
		"4":         RarityLegendary,
		"legendary": RarityLegendary,
	}
	for in, want := range cases {
		got, err := ParseRarity(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseRarity("mythic")
	require.Error(t, err)
	_, err = ParseRarity("0")
	require.Error(t, err)
}

func TestRarityOrdering(t *testing.T) {
	require.Less(t, uint8(RarityCommon), uint8(RarityRare))
	require.Less(t, uint8(RarityRare), uint8(RarityEpic))
	require.Less(t, uint8(RarityEpic), uint8(RarityLegendary))
	require.False(t, Rarity(5).Valid())
}

func TestRarityJSON(t *testing.T) {
	b, err := json.Marshal(Asset{ID: 3, Name: "Cosmic Warrior", Rarity: RarityLegendary, Power: 850})
	require.NoError(t, err)
	require.Contains(t, string(b), `"rarity":"Legendary"`)

	var a Asset
	require.NoError(t, json.Unmarshal(b, &a))
	require.Equal(t, RarityLegendary, a.Rarity)

	_, err = json.Marshal(Asset{Rarity: 9})
	require.Error(t, err)
}

func TestPendingOperationMatches(t *testing.T) {
	op := PendingOperation{
		TxID:       "0xabc",
		Owner:      "0x00000000000000000000000000000000000000aa",
		Name:       "Cosmic Warrior",
		Rarity:     RarityLegendary,
		Power:      850,
		BaselineID: 4,
		State:      StateSubmitted,
	}

	minted := Asset{ID: 5, Name: "Cosmic Warrior", Rarity: RarityLegendary, Power: 850, Owner: "0x00000000000000000000000000000000000000AA"}
	require.True(t, op.Matches(minted))

	older := minted
	older.ID = 2
	require.False(t, op.Matches(older))

	other := minted
	other.Power = 851
	require.False(t, op.Matches(other))

	op.AssetID = 7
	require.False(t, op.Matches(minted))
	minted.ID = 7
	require.True(t, op.Matches(minted))

	opt := op.Optimistic()
	require.Equal(t, StatusPending, opt.Status)
	require.True(t, opt.Pending())
	op.State = StateUnknown
	require.Equal(t, StatusUnknown, op.Optimistic().Status)
}
