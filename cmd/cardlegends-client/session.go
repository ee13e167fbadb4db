package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/quantumauth-io/quantum-go-utils/log"

	clientconfig "github.com/xsphere-io/cardlegends-client/cmd/cardlegends-client/config"
	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
	"github.com/xsphere-io/cardlegends-client/internal/chains"
	"github.com/xsphere-io/cardlegends-client/internal/constants"
	"github.com/xsphere-io/cardlegends-client/internal/contracts/cardlegends"
	"github.com/xsphere-io/cardlegends-client/internal/journal"
	"github.com/xsphere-io/cardlegends-client/internal/wallet"
)

// session is everything a command needs to talk to the contract.
type session struct {
	cfg      *clientconfig.Config
	chains   *chains.Service
	resolved chains.ResolvedChain
	provider *chains.Provider
	journal  *journal.Journal
	client   *assetclient.Client
}

type sessionOptions struct {
	signer wallet.Signer
	// journalDir enables the persistent journal when set.
	journalDir string
	// headerCache keeps the latest block header fresh in the background.
	headerCache bool
}

func newSession(ctx context.Context, cfg *clientconfig.Config, opts sessionOptions) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	chainCfg := chains.ChainConfig{
		Chains:           cfg.Chains(),
		PreferredRPCName: cfg.Chain.RPC,
		EndpointOverride: cfg.Chain.Endpoint,
	}
	if opts.headerCache {
		chainCfg.HeaderRefreshInterval = cfg.Chain.HeaderRefreshInterval
	}
	svc, err := chains.NewService(chainCfg)
	if err != nil {
		return nil, err
	}
	rt := &session{cfg: cfg, chains: svc}

	eth, resolved, err := svc.ClientForNetwork(ctx, cfg.Chain.Tag)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.resolved = resolved

	codec, err := cardlegends.NewCodec()
	if err != nil {
		rt.Close()
		return nil, err
	}
	provider, err := chains.NewProvider(eth, resolved.ChainID, cfg.Chain.ContractAddress, opts.signer, codec)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if err := provider.Verify(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("network %s: %w", resolved.NetworkName, err)
	}
	rt.provider = provider

	var clientOpts []assetclient.Option
	if opts.journalDir != "" {
		j, err := journal.Open(opts.journalDir, journal.Logger{})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		rt.journal = j
		clientOpts = append(clientOpts, assetclient.WithJournal(j))
	}

	client, err := assetclient.New(assetclient.Config{
		ContractAddress:  cfg.Chain.ContractAddress,
		ChainID:          resolved.ChainID,
		MintGasLimit:     cfg.Chain.MintGasLimit,
		PollInterval:     cfg.Chain.PollInterval,
		OperationTimeout: cfg.Chain.OperationTimeout,
		RequestTimeout:   cfg.Chain.RequestTimeout,
		FetchConcurrency: cfg.Chain.FetchConcurrency,
	}, provider, codec, clientOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.client = client

	log.Info("card legends client ready",
		"network", resolved.NetworkName,
		"chain_id", resolved.ChainID,
		"rpc", resolved.RPCName,
		"contract", cfg.Chain.ContractAddress,
	)
	return rt, nil
}

func journalDir(cfg *clientconfig.Config) (string, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, constants.JournalDirName), nil
}

func (rt *session) Close() {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			log.Error("failed to close journal", "error", err)
		}
	}
	if err := rt.chains.Close(); err != nil {
		log.Error("failed to close chain clients", "error", err)
	}
}
