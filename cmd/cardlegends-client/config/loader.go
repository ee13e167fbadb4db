package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/xsphere-io/cardlegends-client/internal/chains"
	"github.com/xsphere-io/cardlegends-client/internal/constants"
	"github.com/xsphere-io/cardlegends-client/internal/securefile"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

// EnvPrefix namespaces environment overrides: chain.contract_address is
// read from CARDLEGENDS_CHAIN_CONTRACT_ADDRESS.
const EnvPrefix = "CARDLEGENDS"

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

type ClientSettings struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	DataDir        string   `mapstructure:"data_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ChainSettings struct {
	Tag                   string        `mapstructure:"tag"`
	Endpoint              string        `mapstructure:"endpoint"`
	RPC                   string        `mapstructure:"rpc"`
	ContractAddress       string        `mapstructure:"contract_address"`
	MintGasLimit          uint64        `mapstructure:"mint_gas_limit"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	OperationTimeout      time.Duration `mapstructure:"operation_timeout"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	HeaderRefreshInterval time.Duration `mapstructure:"header_refresh_interval"`
	FetchConcurrency      int           `mapstructure:"fetch_concurrency"`
}

type WalletSettings struct {
	Password string `mapstructure:"password"`
}

type Config struct {
	Client   ClientSettings                  `mapstructure:"client"`
	Chain    ChainSettings                   `mapstructure:"chain"`
	Wallet   WalletSettings                  `mapstructure:"wallet"`
	Networks map[string]chains.NetworkConfig `mapstructure:"networks"`

	// File is the user config that was merged in, if any.
	File string `mapstructure:"-"`
}

// Load layers the embedded defaults, a user config file and CARDLEGENDS_*
// environment variables, then applies overrides (command-line flags).
// An empty configFile searches the default locations.
func Load(configFile string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	file, err := findConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "merge config %s", file)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.File = file
	cfg.normalize()
	return &cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, "config file %s", explicit)
		}
		return explicit, nil
	}

	candidates, err := securefile.ConfigPathCandidates(constants.AppName, constants.ConfigFile)
	if err != nil {
		return "", err
	}
	candidates = append(candidates, constants.ConfigFile)
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

func (c *Config) normalize() {
	c.Chain.Tag = strings.ToLower(strings.TrimSpace(c.Chain.Tag))
	c.Chain.Endpoint = strings.TrimSpace(c.Chain.Endpoint)
	c.Chain.ContractAddress = strings.TrimSpace(c.Chain.ContractAddress)
	c.Client.DataDir = strings.TrimSpace(c.Client.DataDir)

	all := &chains.AllChainsConfig{Networks: c.Networks}
	all.Normalize()
	c.Networks = all.Networks
}

// Chains returns the networks section in the form the chain service expects.
func (c *Config) Chains() *chains.AllChainsConfig {
	return &chains.AllChainsConfig{Networks: c.Networks}
}

// Validate checks the settings needed to talk to the chain.
func (c *Config) Validate() error {
	if c.Client.Port <= 0 || c.Client.Port > 65535 {
		return fmt.Errorf("client.port %d is out of range", c.Client.Port)
	}
	if c.Chain.Tag == "" {
		return errors.New("chain.tag is empty")
	}
	if _, ok := c.Networks[c.Chain.Tag]; !ok {
		return fmt.Errorf("chain.tag %q does not match a configured network", c.Chain.Tag)
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("chain.contract_address %q is not a hex address", c.Chain.ContractAddress)
	}
	if c.Chain.MintGasLimit < constants.MinGasLimit {
		return fmt.Errorf("chain.mint_gas_limit must be at least %d", constants.MinGasLimit)
	}
	durations := map[string]time.Duration{
		"chain.poll_interval":           c.Chain.PollInterval,
		"chain.operation_timeout":       c.Chain.OperationTimeout,
		"chain.request_timeout":         c.Chain.RequestTimeout,
		"chain.header_refresh_interval": c.Chain.HeaderRefreshInterval,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if c.Chain.OperationTimeout < c.Chain.PollInterval {
		return errors.New("chain.operation_timeout must not be shorter than chain.poll_interval")
	}
	if c.Chain.FetchConcurrency <= 0 {
		return errors.New("chain.fetch_concurrency must be positive")
	}
	return nil
}

// DataDir is client.data_dir, or the per-user config directory when unset.
func (c *Config) DataDir() (string, error) {
	if c.Client.DataDir != "" {
		return c.Client.DataDir, nil
	}
	candidates, err := securefile.ConfigPathCandidates(constants.AppName, constants.WalletFile)
	if err != nil {
		return "", err
	}
	return filepath.Dir(candidates[0]), nil
}
