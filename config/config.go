// Package config declares the fully-resolved configuration the core
// accepts (spec §6). Parsing os.Args into a Config is the daemon
// entrypoint's job (cmd/raiden/main.go); this package exports only the
// resolved struct and its validation so the core never depends on a
// flag-parsing library directly.
package config

import (
	"github.com/go-errors/errors"
)

// ChainID names one of the supported networks (spec §6 "--chain-id").
type ChainID string

const (
	ChainIDMainnet  ChainID = "mainnet"
	ChainIDRopsten  ChainID = "ropsten"
	ChainIDKovan    ChainID = "kovan"
	ChainIDGoerli   ChainID = "goerli"
	ChainIDRinkeby  ChainID = "rinkeby"
)

// EnvironmentType selects operational defaults (confirmation depth,
// polling cadence) appropriate for a long-lived production node versus a
// local development chain.
type EnvironmentType string

const (
	EnvironmentDevelopment EnvironmentType = "development"
	EnvironmentProduction  EnvironmentType = "production"
)

// MatrixTransportConfig tunes the websocket relay transport (spec §6
// "--matrix-transport.* server/retry tuning").
type MatrixTransportConfig struct {
	ServerURL       string `long:"matrix-transport.server" description:"websocket URL of the matrix-style relay"`
	RetryInterval   int    `long:"matrix-transport.retry-interval-seconds" default:"1" description:"initial reconnect backoff, in seconds; not read by transport.WebsocketTransport, whose backoff starts at a fixed 500ms"`
	RetryMaxTimeout int    `long:"matrix-transport.retry-max-timeout-seconds" default:"30" description:"maximum reconnect backoff, in seconds; not read by transport.WebsocketTransport, whose backoff is capped at a fixed 30s"`
}

// MediationFeeConfig carries the mediation-fee schedule options (spec §6).
// They are accepted but not checked by Validate, and never consulted by
// the reducer.
type MediationFeeConfig struct {
	TokenToFlatFee                 map[string]int64   `long:"token-to-flat-fee" description:"per-token flat mediation fee, in wei"`
	TokenToProportionalFee         map[string]int64   `long:"token-to-proportional-fee" description:"per-token proportional mediation fee, in parts-per-million"`
	TokenToProportionalImbalanceFee map[string]int64  `long:"token-to-proportional-imbalance-fee" description:"per-token imbalance fee, in parts-per-million"`
	CapMediationFees                bool               `long:"cap-mediation-fees" description:"cap total mediation fees at the payment amount"`
}

// Config is the fully-resolved configuration the core is constructed
// from (spec §6's CLI surface).
type Config struct {
	ChainID              ChainID               `long:"chain-id" description:"{ropsten|kovan|goerli|rinkeby|mainnet}" required:"true"`
	EthRPCEndpoint       string                `long:"eth-rpc-endpoint" description:"HTTP JSON-RPC endpoint" required:"true"`
	EthRPCSocketEndpoint string                `long:"eth-rpc-socket-endpoint" description:"WebSocket JSON-RPC endpoint" required:"true"`
	KeystorePath         string                `long:"keystore-path" description:"directory of encrypted Web3 v3 key files" required:"true"`
	DataDir              string                `long:"datadir" default:"~/.raiden" description:"persistent storage directory"`
	EnvironmentType      EnvironmentType       `long:"environment-type" default:"production" description:"{development|production}"`
	RegistryAddress      string                `long:"registry-address" description:"TokenNetworkRegistry contract address, hex-encoded" required:"true"`
	StartBlockNumber     uint64                `long:"start-block" description:"block at which to bootstrap a brand-new node's chain state"`
	RESTAddress          string                `long:"rest-address" default:"127.0.0.1:5001" description:"listen address for the HTTP REST API"`
	MatrixTransport      MatrixTransportConfig `group:"matrix-transport"`
	MediationFees        MediationFeeConfig    `group:"mediation-fees"`
}

// Validate checks field-level invariants go-flags itself doesn't express
// (spec §7 item 5: "configuration / bootstrap errors: abort before the
// reducer starts").
func (c *Config) Validate() error {
	switch c.ChainID {
	case ChainIDMainnet, ChainIDRopsten, ChainIDKovan, ChainIDGoerli, ChainIDRinkeby:
	default:
		return errors.Errorf("config: unknown chain-id %q", c.ChainID)
	}
	switch c.EnvironmentType {
	case EnvironmentDevelopment, EnvironmentProduction:
	default:
		return errors.Errorf("config: unknown environment-type %q", c.EnvironmentType)
	}
	if c.EthRPCEndpoint == "" {
		return errors.New("config: eth-rpc-endpoint is required")
	}
	if c.EthRPCSocketEndpoint == "" {
		return errors.New("config: eth-rpc-socket-endpoint is required")
	}
	if c.KeystorePath == "" {
		return errors.New("config: keystore-path is required")
	}
	if c.DataDir == "" {
		return errors.New("config: datadir must not be empty")
	}
	if c.RegistryAddress == "" {
		return errors.New("config: registry-address is required")
	}
	return nil
}

// Confirmations returns the number of blocks the sync service waits
// before treating a log as settled, tuned by environment (spec §4.5 item
// 2's "latest - confirmations").
func (c *Config) Confirmations() uint64 {
	if c.EnvironmentType == EnvironmentDevelopment {
		return 0
	}
	return 10
}
