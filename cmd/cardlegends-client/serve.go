package main

import (
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/urfave/cli/v2"

	clienthttp "github.com/xsphere-io/cardlegends-client/internal/http"
	"github.com/xsphere-io/cardlegends-client/internal/reconciler"
)

var serveCommand = cli.Command{
	Name:   "serve",
	Usage:  "Unlock the wallet and serve the local card API",
	Flags:  []cli.Flag{hostFlag, portFlag},
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	ctx := c.Context
	log.Info("cardlegends-client",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	w, created, err := unlockWallet(cfg, true)
	if err != nil {
		return err
	}
	if created {
		log.Info("created new wallet", "address", w.AddressHex)
	}

	jdir, err := journalDir(cfg)
	if err != nil {
		return err
	}
	rt, err := newSession(ctx, cfg, sessionOptions{signer: w, journalDir: jdir, headerCache: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.client.Connect(w.AddressHex)

	events := clienthttp.NewEventLog(0, rt.resolved.TxURL)
	go events.Consume(ctx, rt.client.Events())

	rec, err := reconciler.New(rt.client, cfg.Chain.PollInterval)
	if err != nil {
		return err
	}
	if err := rec.Start(ctx); err != nil {
		return err
	}
	defer rec.Stop()

	handler := clienthttp.NewHandler(rt.client, events, clienthttp.ChainInfo{
		Network:  rt.resolved.NetworkName,
		ChainID:  rt.resolved.ChainID,
		Contract: cfg.Chain.ContractAddress,
		Signer:   w.AddressHex,
		TxURL:    rt.resolved.TxURL,
	}, Version)
	router := clienthttp.NewRouter(handler, cfg.Client.AllowedOrigins)

	server := clienthttp.NewServer(cfg.Client.Host, cfg.Client.Port, router)
	if err := server.Run(ctx); err != nil {
		log.Error("HTTP server error", "error", err)
		return err
	}
	log.Info("HTTP server gracefully stopped")
	return nil
}
