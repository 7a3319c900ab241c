package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli"
)

type channelView struct {
	TokenNetworkAddress string `json:"token_network_address"`
	ChannelIdentifier   uint64 `json:"channel_identifier"`
	PartnerAddress      string `json:"partner_address"`
	OurDeposit          string `json:"our_deposit"`
	PartnerDeposit      string `json:"partner_deposit"`
	SettleTimeout       uint64 `json:"settle_timeout"`
	RevealTimeout       uint64 `json:"reveal_timeout"`
}

var listChannelsCommand = cli.Command{
	Name:      "channels",
	Usage:     "list channels, optionally scoped to one token network.",
	ArgsUsage: "[token-network-address]",
	Action:    listChannels,
}

func listChannels(ctx *cli.Context) error {
	client := getClient(ctx)

	path := "/api/v1/channels"
	if tn := ctx.Args().First(); tn != "" {
		path = fmt.Sprintf("/api/v1/token_networks/%s/channels", tn)
	}

	var channels []channelView
	if err := client.do("GET", path, nil, &channels); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"token network", "channel id", "partner", "our deposit", "partner deposit", "settle timeout", "reveal timeout"})
	for _, ch := range channels {
		t.AppendRow(table.Row{ch.TokenNetworkAddress, ch.ChannelIdentifier, ch.PartnerAddress, ch.OurDeposit, ch.PartnerDeposit, ch.SettleTimeout, ch.RevealTimeout})
	}
	t.Render()
	return nil
}

var openChannelCommand = cli.Command{
	Name:      "openchannel",
	Usage:     "open a channel with a partner on a token network.",
	ArgsUsage: "token-network-address partner-address settle-timeout",
	Action:    openChannel,
}

func openChannel(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		return fmt.Errorf("openchannel requires token-network-address, partner-address, settle-timeout")
	}
	tokenNetwork, partner := args[0], args[1]
	settleTimeout, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid settle-timeout %q: %v", args[2], err)
	}

	client := getClient(ctx)
	var resp struct {
		TransactionHash string `json:"transaction_hash"`
	}
	err = client.do("POST", fmt.Sprintf("/api/v1/token_networks/%s/channels", tokenNetwork), map[string]interface{}{
		"partner_address": partner,
		"settle_timeout":  settleTimeout,
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Printf("open channel transaction submitted: %s\n", resp.TransactionHash)
	return nil
}

var depositCommand = cli.Command{
	Name:      "deposit",
	Usage:     "increase a channel's total deposit.",
	ArgsUsage: "token-network-address channel-id total-deposit",
	Action:    patchChannel("total_deposit"),
}

var withdrawCommand = cli.Command{
	Name:      "withdraw",
	Usage:     "request a cooperative withdraw from a channel.",
	ArgsUsage: "token-network-address channel-id total-withdraw",
	Action:    patchChannel("total_withdraw"),
}

func patchChannel(field string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		args := ctx.Args()
		if len(args) != 3 {
			return fmt.Errorf("requires token-network-address, channel-id, %s", field)
		}
		tokenNetwork, channelID, amount := args[0], args[1], args[2]

		client := getClient(ctx)
		var resp map[string]interface{}
		path := fmt.Sprintf("/api/v1/token_networks/%s/channels/%s", tokenNetwork, channelID)
		if err := client.do("PATCH", path, map[string]interface{}{field: amount}, &resp); err != nil {
			return err
		}
		fmt.Println(resp)
		return nil
	}
}

var paymentCommand = cli.Command{
	Name:      "pay",
	Usage:     "initiate a payment to a target over a token network's direct channel.",
	ArgsUsage: "token-network-address target-address amount",
	Action:    payment,
}

func payment(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		return fmt.Errorf("pay requires token-network-address, target-address, amount")
	}
	tokenNetwork, target, amount := args[0], args[1], args[2]

	client := getClient(ctx)
	var resp struct {
		PaymentIdentifier uint64 `json:"payment_identifier"`
	}
	path := fmt.Sprintf("/api/v1/payments/%s/%s", tokenNetwork, target)
	if err := client.do("POST", path, map[string]interface{}{"amount": amount}, &resp); err != nil {
		return err
	}
	fmt.Printf("payment initiated, identifier=%d\n", resp.PaymentIdentifier)
	return nil
}
