package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestFlagOverrides(t *testing.T) {
	var got map[string]interface{}
	app := cli.NewApp()
	app.Flags = []cli.Flag{configFlag, datadirFlag, chainFlag, endpointFlag, contractFlag}
	app.Commands = []*cli.Command{{
		Name:  "serve",
		Flags: []cli.Flag{hostFlag, portFlag},
		Action: func(c *cli.Context) error {
			got = flagOverrides(c)
			return nil
		},
	}}

	err := app.Run([]string{"cardlegends", "--chain", "sepolia", "--datadir", "/tmp/cards", "serve", "--port", "7001"})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"chain.tag":       "sepolia",
		"client.data_dir": "/tmp/cards",
		"client.port":     7001,
	}, got)
}
