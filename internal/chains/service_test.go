package chains

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testChains() *AllChainsConfig {
	return &AllChainsConfig{Networks: map[string]NetworkConfig{
		"Devnet": {
			ChainID:  31337,
			Explorer: "https://explorer.local/",
			RPCs: []RPC{
				{Name: "primary", URL: "http://127.0.0.1:8545"},
				{Name: "backup", URL: " http://127.0.0.1:9545 "},
			},
		},
		"mainnet": {ChainID: 1, ChainIDHex: "0x1", RPCs: []RPC{{Name: "infura", URL: "https://mainnet.example"}}},
		"broken":  {ChainID: 5},
	}}
}

func TestNormalize(t *testing.T) {
	cfg := testChains()
	cfg.Normalize()

	dev, ok := cfg.Networks["devnet"]
	require.True(t, ok)
	require.Equal(t, "devnet", dev.Name)
	require.Equal(t, "0x7a69", dev.ChainIDHex)
	require.Equal(t, "http://127.0.0.1:9545", dev.RPCs[1].URL)
}

func TestResolveNetwork(t *testing.T) {
	svc, err := NewService(ChainConfig{Chains: testChains(), PreferredRPCName: "BACKUP"})
	require.NoError(t, err)

	r, err := svc.ResolveNetworkByName(" DEVNET ")
	require.NoError(t, err)
	require.Equal(t, "backup", r.RPCName)
	require.Equal(t, "http://127.0.0.1:9545", r.URL)
	require.Equal(t, "https://explorer.local/tx/0xabc", r.TxURL("0xabc"))

	r, err = svc.ResolveNetworkByChainID(1)
	require.NoError(t, err)
	require.Equal(t, "mainnet", r.NetworkName)
	require.Equal(t, "infura", r.RPCName)
	require.Empty(t, r.TxURL("0xabc"))

	r, err = svc.ResolveNetworkByChainIDHex("0x7A69")
	require.NoError(t, err)
	require.Equal(t, "devnet", r.NetworkName)

	_, err = svc.ResolveNetworkByName("unknown")
	require.Error(t, err)
	_, err = svc.ResolveNetworkByName("broken")
	require.Error(t, err)
	_, err = svc.ResolveNetworkByChainID(0)
	require.Error(t, err)
}

func TestResolveEndpointOverride(t *testing.T) {
	svc, err := NewService(ChainConfig{Chains: testChains(), EndpointOverride: "http://node:8545"})
	require.NoError(t, err)

	r, err := svc.ResolveNetworkByName("broken")
	require.NoError(t, err)
	require.Equal(t, "override", r.RPCName)
	require.Equal(t, "http://node:8545", r.URL)
}

func TestClientForNetworkCachesAndCloses(t *testing.T) {
	var dials atomic.Int32
	fake := newFakeEVM()
	svc, err := newService(ChainConfig{Chains: testChains()}, func(ctx context.Context, url string) (EVMClient, error) {
		dials.Add(1)
		require.Equal(t, "http://127.0.0.1:8545", url)
		return fake, nil
	})
	require.NoError(t, err)

	c1, r, err := svc.ClientForNetwork(context.Background(), "devnet")
	require.NoError(t, err)
	require.Equal(t, uint64(31337), r.ChainID)
	c2, _, err := svc.ClientForNetwork(context.Background(), "devnet")
	require.NoError(t, err)
	require.Same(t, c1, c2)
	require.EqualValues(t, 1, dials.Load())

	require.NoError(t, svc.Close())
	require.True(t, fake.closed)
}

func TestClientForNetworkDialError(t *testing.T) {
	svc, err := newService(ChainConfig{Chains: testChains()}, func(context.Context, string) (EVMClient, error) {
		return nil, errors.New("connection refused")
	})
	require.NoError(t, err)

	_, _, err = svc.ClientForNetwork(context.Background(), "devnet")
	require.Error(t, err)
}

func TestNewServiceRequiresNetworks(t *testing.T) {
	_, err := NewService(ChainConfig{})
	require.Error(t, err)
}

func TestHeaderCache(t *testing.T) {
	fake := newFakeEVM()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hc, err := NewHeaderCache(ctx, fake, 20*time.Millisecond)
	require.NoError(t, err)

	h, err := hc.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, h.BaseFee)

	require.Eventually(t, func() bool { return fake.headerCount() >= 3 }, 2*time.Second, 10*time.Millisecond)
	h2, err := hc.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	require.True(t, h2.Number.Cmp(h.Number) > 0)

	_, err = NewHeaderCache(ctx, fake, 0)
	require.Error(t, err)
}
