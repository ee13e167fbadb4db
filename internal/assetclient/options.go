package assetclient

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/xsphere-io/cardlegends-client/internal/constants"
)

const (
	DefaultPollInterval     = 5 * time.Second
	DefaultOperationTimeout = 2 * time.Minute
	DefaultRequestTimeout   = 15 * time.Second
	DefaultFetchConcurrency = 8
	defaultEventBuffer      = 64
)

type Config struct {
	ContractAddress string
	ChainID         uint64
	MintGasLimit    uint64

	// PollInterval is the minimum age of a pending operation before its status is checked.
	PollInterval time.Duration
	// OperationTimeout bounds how long an operation may stay unconfirmed before it becomes Unknown.
	OperationTimeout time.Duration
	// RequestTimeout bounds every single network call.
	RequestTimeout time.Duration

	FetchConcurrency int
}

func (c *Config) applyDefaults() {
	if c.MintGasLimit == 0 {
		c.MintGasLimit = constants.DefaultMintGasLimit
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = DefaultOperationTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = DefaultFetchConcurrency
	}
}

func (c Config) validate() error {
	if !common.IsHexAddress(c.ContractAddress) {
		return errors.Newf("invalid contract address %q", c.ContractAddress)
	}
	if c.ChainID == 0 {
		return errors.New("chain id is required")
	}
	if c.MintGasLimit < constants.MinGasLimit {
		return errors.Newf("mint gas limit %d below %d", c.MintGasLimit, constants.MinGasLimit)
	}
	if c.PollInterval < 0 || c.OperationTimeout < 0 || c.RequestTimeout < 0 {
		return errors.New("durations must be positive")
	}
	if c.OperationTimeout < c.PollInterval {
		return errors.Newf("operation timeout %s shorter than poll interval %s", c.OperationTimeout, c.PollInterval)
	}
	return nil
}

type Option func(*Client)

// WithJournal persists unresolved operations and restores them on start.
func WithJournal(j Journal) Option {
	return func(c *Client) { c.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithEventBuffer sizes the Events channel. Events are dropped when it is full.
func WithEventBuffer(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.events = make(chan Event, n)
		}
	}
}
