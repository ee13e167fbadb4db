package chains

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AllChainsConfig is the set of networks the client knows how to reach.
type AllChainsConfig struct {
	Networks map[string]NetworkConfig `json:"networks" yaml:"networks" mapstructure:"networks"`
}

// NetworkConfig describes a network and its RPC endpoints.
type NetworkConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID    uint64 `json:"chainId" yaml:"chain_id" mapstructure:"chain_id"`
	ChainIDHex string `json:"chainIdHex" yaml:"chain_id_hex" mapstructure:"chain_id_hex"`
	RPCs       []RPC  `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
	Explorer   string `json:"explorer" yaml:"explorer" mapstructure:"explorer"`
}

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// ResolvedChain is a network with one RPC endpoint picked.
type ResolvedChain struct {
	NetworkName string
	ChainID     uint64
	ChainIDHex  string
	Explorer    string

	RPCName string
	URL     string
}

// TxURL links a transaction in the network's explorer, or "" without one.
func (r ResolvedChain) TxURL(txID string) string {
	if r.Explorer == "" || txID == "" {
		return ""
	}
	return strings.TrimRight(r.Explorer, "/") + "/tx/" + txID
}

// Normalize lower-cases network keys and fills Name and ChainIDHex.
func (mc *AllChainsConfig) Normalize() {
	if mc == nil {
		return
	}
	out := make(map[string]NetworkConfig, len(mc.Networks))
	for name, n := range mc.Networks {
		key := strings.ToLower(strings.TrimSpace(name))
		n.Name = key
		n.ChainIDHex = strings.ToLower(strings.TrimSpace(n.ChainIDHex))
		if n.ChainIDHex == "" && n.ChainID != 0 {
			n.ChainIDHex = "0x" + new(big.Int).SetUint64(n.ChainID).Text(16)
		}
		for i := range n.RPCs {
			n.RPCs[i].Name = strings.TrimSpace(n.RPCs[i].Name)
			n.RPCs[i].URL = strings.TrimSpace(n.RPCs[i].URL)
		}
		n.Explorer = strings.TrimSpace(n.Explorer)
		out[key] = n
	}
	mc.Networks = out
}

// EVMClient is the subset of ethclient.Client the provider relies on.
type EVMClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}
