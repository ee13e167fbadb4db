package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/urfave/cli/v2"

	clientconfig "github.com/xsphere-io/cardlegends-client/cmd/cardlegends-client/config"
	"github.com/xsphere-io/cardlegends-client/internal/constants"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = constants.AppName
	app.Usage = "Card Legends collection client"
	app.Flags = []cli.Flag{configFlag, datadirFlag, chainFlag, endpointFlag, contractFlag}
	app.Commands = append(
		app.Commands,
		&serveCommand,
		&walletCommand,
		&cardsCommand,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*clientconfig.Config, error) {
	cfg, err := clientconfig.Load(c.String(configFlagName), flagOverrides(c))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.File != "" {
		log.Info("loaded config", "file", cfg.File)
	}
	return cfg, nil
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
