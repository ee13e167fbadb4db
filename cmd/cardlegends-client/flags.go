package main

import (
	"github.com/urfave/cli/v2"
)

const (
	configFlagName   = "config"
	datadirFlagName  = "datadir"
	chainFlagName    = "chain"
	endpointFlagName = "endpoint"
	contractFlagName = "contract"
	hostFlagName     = "host"
	portFlagName     = "port"
	ownerFlagName    = "owner"
)

var (
	configFlag = &cli.StringFlag{
		Name:  configFlagName,
		Usage: "path to a config file layered over the built-in defaults",
	}
	datadirFlag = &cli.StringFlag{
		Name:  datadirFlagName,
		Usage: "directory holding the wallet and the operation journal",
	}
	chainFlag = &cli.StringFlag{
		Name:  chainFlagName,
		Usage: "network tag from the networks section (devnet, sepolia, mainnet)",
	}
	endpointFlag = &cli.StringFlag{
		Name:  endpointFlagName,
		Usage: "RPC endpoint that replaces the network's configured RPCs",
	}
	contractFlag = &cli.StringFlag{
		Name:  contractFlagName,
		Usage: "Card Legends contract address",
	}
	hostFlag = &cli.StringFlag{
		Name:  hostFlagName,
		Usage: "local API listen host",
	}
	portFlag = &cli.IntFlag{
		Name:  portFlagName,
		Usage: "local API listen port",
	}
	ownerFlag = &cli.StringFlag{
		Name:  ownerFlagName,
		Usage: "account whose cards are listed (defaults to the wallet account)",
	}
)

// flagOverrides maps the flags that were set to their config keys.
func flagOverrides(c *cli.Context) map[string]interface{} {
	out := map[string]interface{}{}
	stringFlags := map[string]string{
		datadirFlagName:  "client.data_dir",
		chainFlagName:    "chain.tag",
		endpointFlagName: "chain.endpoint",
		contractFlagName: "chain.contract_address",
		hostFlagName:     "client.host",
	}
	for flag, key := range stringFlags {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	if c.IsSet(portFlagName) {
		out["client.port"] = c.Int(portFlagName)
	}
	return out
}
