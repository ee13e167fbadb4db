package chains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

type ChainConfig struct {
	Chains *AllChainsConfig
	// PreferredRPCName picks an RPC by name; the first one is used otherwise.
	PreferredRPCName string
	// EndpointOverride replaces the resolved RPC URL when set.
	EndpointOverride string
	// HeaderRefreshInterval enables the latest-header cache when positive.
	HeaderRefreshInterval time.Duration
}

// DialFunc connects to an RPC endpoint. Replaced in tests.
type DialFunc func(ctx context.Context, url string) (EVMClient, error)

func dialEthClient(ctx context.Context, url string) (EVMClient, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Service resolves configured networks and keeps one dialed client per network.
type Service struct {
	cfg  ChainConfig
	dial DialFunc

	mu               sync.Mutex
	clientsByNetwork map[string]EVMClient
	stopHeaders      []context.CancelFunc
}

func NewService(cfg ChainConfig) (*Service, error) {
	return newService(cfg, dialEthClient)
}

func newService(cfg ChainConfig, dial DialFunc) (*Service, error) {
	if cfg.Chains == nil || len(cfg.Chains.Networks) == 0 {
		return nil, errors.New("chains config is empty")
	}
	cfg.Chains.Normalize()
	return &Service{
		cfg:              cfg,
		dial:             dial,
		clientsByNetwork: make(map[string]EVMClient),
	}, nil
}

// ClientForNetwork returns (and caches) the client for networkName.
func (s *Service) ClientForNetwork(ctx context.Context, networkName string) (EVMClient, ResolvedChain, error) {
	resolved, err := s.ResolveNetworkByName(networkName)
	if err != nil {
		return nil, ResolvedChain{}, err
	}
	key := resolved.NetworkName

	s.mu.Lock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		s.mu.Unlock()
		return existing, resolved, nil
	}
	s.mu.Unlock()

	// dial outside the lock
	dialed, err := s.dial(ctx, resolved.URL)
	if err != nil {
		return nil, ResolvedChain{}, fmt.Errorf("dial %q (%s): %w", key, resolved.RPCName, err)
	}

	var client EVMClient = dialed
	var stop context.CancelFunc
	if s.cfg.HeaderRefreshInterval > 0 {
		hctx, cancel := context.WithCancel(context.Background())
		cached, err := NewHeaderCache(hctx, dialed, s.cfg.HeaderRefreshInterval)
		if err != nil {
			cancel()
			dialed.Close()
			return nil, ResolvedChain{}, err
		}
		client, stop = cached, cancel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		// raced with another caller; keep theirs
		if stop != nil {
			stop()
		}
		client.Close()
		return existing, resolved, nil
	}
	s.clientsByNetwork[key] = client
	if stop != nil {
		s.stopHeaders = append(s.stopHeaders, stop)
	}
	log.Info("connected to chain", "network", key, "rpc", resolved.RPCName, "chain_id", resolved.ChainID)
	return client, resolved, nil
}

// Close closes every cached client.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stop := range s.stopHeaders {
		stop()
	}
	s.stopHeaders = nil
	for key, c := range s.clientsByNetwork {
		if c != nil {
			c.Close()
		}
		delete(s.clientsByNetwork, key)
	}
	return nil
}

func (s *Service) ResolveNetworkByName(networkName string) (ResolvedChain, error) {
	key := strings.ToLower(strings.TrimSpace(networkName))
	if key == "" {
		return ResolvedChain{}, errors.New("network name is empty")
	}
	network, ok := s.cfg.Chains.Networks[key]
	if !ok {
		return ResolvedChain{}, fmt.Errorf("unknown network %q", networkName)
	}
	return s.resolveFromNetworkConfig(key, network)
}

func (s *Service) ResolveNetworkByChainID(chainID uint64) (ResolvedChain, error) {
	if chainID == 0 {
		return ResolvedChain{}, errors.New("chainID is 0")
	}
	for name, network := range s.cfg.Chains.Networks {
		if network.ChainID == chainID {
			return s.resolveFromNetworkConfig(name, network)
		}
	}
	return ResolvedChain{}, fmt.Errorf("unknown chainID %d", chainID)
}

func (s *Service) ResolveNetworkByChainIDHex(chainIDHex string) (ResolvedChain, error) {
	chainIDHex = strings.ToLower(strings.TrimSpace(chainIDHex))
	if chainIDHex == "" {
		return ResolvedChain{}, errors.New("chainIdHex is empty")
	}
	for name, network := range s.cfg.Chains.Networks {
		if network.ChainIDHex == chainIDHex {
			return s.resolveFromNetworkConfig(name, network)
		}
	}
	return ResolvedChain{}, fmt.Errorf("unknown chainIdHex %q", chainIDHex)
}

func (s *Service) resolveFromNetworkConfig(networkName string, network NetworkConfig) (ResolvedChain, error) {
	if network.ChainID == 0 {
		return ResolvedChain{}, fmt.Errorf("network %q has no chain id", networkName)
	}

	out := ResolvedChain{
		NetworkName: networkName,
		ChainID:     network.ChainID,
		ChainIDHex:  network.ChainIDHex,
		Explorer:    network.Explorer,
	}

	if override := strings.TrimSpace(s.cfg.EndpointOverride); override != "" {
		out.RPCName = "override"
		out.URL = override
		return out, nil
	}

	var selected *RPC
	if preferred := strings.TrimSpace(s.cfg.PreferredRPCName); preferred != "" {
		for i := range network.RPCs {
			if strings.EqualFold(network.RPCs[i].Name, preferred) {
				selected = &network.RPCs[i]
				break
			}
		}
	}
	if selected == nil {
		if len(network.RPCs) == 0 {
			return ResolvedChain{}, fmt.Errorf("network %q has no RPCs configured", networkName)
		}
		selected = &network.RPCs[0]
	}
	if selected.URL == "" {
		return ResolvedChain{}, fmt.Errorf("network %q rpc %q url is empty", networkName, selected.Name)
	}

	out.RPCName = selected.Name
	out.URL = selected.URL
	return out, nil
}
