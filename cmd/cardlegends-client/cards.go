package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	clientconfig "github.com/xsphere-io/cardlegends-client/cmd/cardlegends-client/config"
	"github.com/xsphere-io/cardlegends-client/internal/wallet"
)

var cardsCommand = cli.Command{
	Name:  "cards",
	Usage: "Read cards straight from the contract",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List the cards owned by an account",
			Flags:  []cli.Flag{ownerFlag},
			Action: cardsListAction,
		},
		{
			Name:      "get",
			Usage:     "Show a single card",
			ArgsUsage: "<id>",
			Action:    cardsGetAction,
		},
	},
}

func cardsListAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	owner, err := resolveOwner(c, cfg)
	if err != nil {
		return err
	}

	rt, err := newSession(c.Context, cfg, sessionOptions{signer: wallet.WatchOnly(owner)})
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.client.Connect(owner.Hex())
	list, err := rt.client.ListOwned(c.Context)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func cardsGetAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one card id")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid card id %q", c.Args().First())
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := newSession(c.Context, cfg, sessionOptions{signer: wallet.WatchOnly{}})
	if err != nil {
		return err
	}
	defer rt.Close()

	card, err := rt.client.GetByID(c.Context, id)
	if err != nil {
		return err
	}
	if card == nil {
		return fmt.Errorf("card %d does not exist", id)
	}
	return printJSON(card)
}

// resolveOwner is --owner, or the wallet account when the flag is absent.
func resolveOwner(c *cli.Context, cfg *clientconfig.Config) (common.Address, error) {
	if raw := strings.TrimSpace(c.String(ownerFlagName)); raw != "" {
		if !common.IsHexAddress(raw) {
			return common.Address{}, fmt.Errorf("invalid owner address %q", raw)
		}
		return common.HexToAddress(raw), nil
	}
	w, _, err := unlockWallet(cfg, false)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address(), nil
}
