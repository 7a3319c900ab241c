// Command raidenctl is the operator CLI for local channel/payment actions
// (spec §0 module layout). Grounded on cmd/lncli/main.go's shape: a
// urfave/cli app with a global --rpcserver-equivalent flag and one
// subcommand per operator action, except this client speaks the plain
// JSON REST API restapi.Server exposes rather than gRPC, since no .proto
// definitions exist for this domain in the retrieved corpus.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[raidenctl] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "raidenctl"
	app.Usage = "control plane for a running raiden node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "api-address",
			Value: "http://127.0.0.1:5001",
			Usage: "base URL of the node's REST API",
		},
	}
	app.Commands = []cli.Command{
		listChannelsCommand,
		openChannelCommand,
		depositCommand,
		withdrawCommand,
		paymentCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
