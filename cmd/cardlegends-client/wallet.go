package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	clientconfig "github.com/xsphere-io/cardlegends-client/cmd/cardlegends-client/config"
	"github.com/xsphere-io/cardlegends-client/internal/helpers"
	"github.com/xsphere-io/cardlegends-client/internal/wallet"
)

var walletCommand = cli.Command{
	Name:  "wallet",
	Usage: "Manage the local signing wallet",
	Subcommands: []*cli.Command{
		{
			Name:   "init",
			Usage:  "Create the encrypted wallet if it does not exist yet",
			Action: walletInitAction,
		},
		{
			Name:   "address",
			Usage:  "Print the wallet account address",
			Action: walletAddressAction,
		},
	},
}

func walletInitAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := walletStore(cfg)
	if err != nil {
		return err
	}
	if store.Exists() {
		return fmt.Errorf("wallet already exists at %s", store.Path)
	}

	password := []byte(cfg.Wallet.Password)
	if len(password) == 0 {
		if password, err = helpers.PromptNewPassword(); err != nil {
			return err
		}
	} else if err := helpers.ValidatePassword(password); err != nil {
		return err
	}
	defer helpers.ZeroBytes(password)

	w, _, err := store.Ensure(password)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"address": w.AddressHex, "path": store.Path})
}

func walletAddressAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	w, _, err := unlockWallet(cfg, false)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"address": w.AddressHex})
}

func walletStore(cfg *clientconfig.Config) (*wallet.Store, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	return wallet.NewStore(dataDir)
}

// unlockWallet decrypts the wallet with wallet.password or an interactive
// prompt. With create set, a missing wallet is created.
func unlockWallet(cfg *clientconfig.Config, create bool) (*wallet.Wallet, bool, error) {
	store, err := walletStore(cfg)
	if err != nil {
		return nil, false, err
	}
	exists := store.Exists()
	if !exists && !create {
		return nil, false, fmt.Errorf("%w at %s: run `wallet init` first", wallet.ErrWalletNotFound, store.Path)
	}

	password := []byte(cfg.Wallet.Password)
	if len(password) == 0 {
		if exists {
			password, err = helpers.PromptPassword("Wallet password: ")
		} else {
			password, err = helpers.PromptNewPassword()
		}
		if err != nil {
			return nil, false, err
		}
	}
	defer helpers.ZeroBytes(password)

	if exists {
		w, err := store.Load(password)
		if err != nil {
			return nil, false, fmt.Errorf("unlock wallet: %w", err)
		}
		return w, false, nil
	}
	return store.Ensure(password)
}
