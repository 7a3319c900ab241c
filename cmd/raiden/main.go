// Command raiden is the off-chain payment-channel node daemon (spec §6).
// Grounded on lnd.go's lndMain/main split: a nested "real main" so
// deferred cleanups still run on a graceful shutdown, with the trivial
// os.Exit wrapper kept thin.
package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	flags "github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/raiden-network/raiden-go/chainevents"
	"github.com/raiden-network/raiden-go/config"
	"github.com/raiden-network/raiden-go/coordinator"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/restapi"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/storage"
	"github.com/raiden-network/raiden-go/transport"
)

func main() {
	if err := raidenMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func raidenMain() error {
	cfg := &config.Config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logRotator, err := initLoggers(filepath.Join(cfg.DataDir, "raiden.log"), 10)
	if err != nil {
		return fmt.Errorf("raiden: opening log file: %w", err)
	}
	defer logRotator.Close()

	signer, ourAddress, err := unlockSigningKey(cfg.KeystorePath)
	if err != nil {
		return fmt.Errorf("raiden: unlocking keystore: %w", err)
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("raiden: opening database: %w", err)
	}
	defer db.Close()

	chainID := chainIDFor(cfg.ChainID)
	registryAddress := common.HexToAddress(cfg.RegistryAddress)
	chainState, lastStateChangeID, err := storage.Recover(db, storage.BootstrapConfig{
		ChainID:         chainID,
		BlockNumber:     primitives.BlockNumber(cfg.StartBlockNumber),
		OurAddress:      ourAddress,
		RegistryAddress: registryAddress,
	})
	if err != nil {
		return fmt.Errorf("raiden: recovering state: %w", err)
	}

	tr := transport.NewWebsocketTransport(cfg.MatrixTransport.ServerURL)

	// Concrete chainproxy.TokenNetworkRegistry / TokenNetwork /
	// SecretRegistry implementations (abigen-style contract bindings over
	// *ethclient.Client) are not wired here: the TokenNetwork contract ABI
	// was never part of the retrieved corpus (chainevents/decode.go's
	// topic signatures were hand-derived from the spec, not from a
	// generated binding), so there is nothing to bind `bind.BoundContract`
	// calls against. The coordinator only depends on the chainproxy
	// interfaces (spec §6); an empty ChainProxies means ContractSend*
	// events are logged and dropped rather than submitted, which is a
	// configuration gap to close once a binding is available, not a bug
	// in the coordinator itself.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := coordinator.New(chainState, lastStateChangeID, db, coordinator.ChainProxies{}, tr, signer)

	wsClient, err := ethclient.DialContext(ctx, cfg.EthRPCSocketEndpoint)
	if err != nil {
		return fmt.Errorf("raiden: dialing %s: %w", cfg.EthRPCSocketEndpoint, err)
	}
	httpClient, err := ethclient.DialContext(ctx, cfg.EthRPCEndpoint)
	if err != nil {
		return fmt.Errorf("raiden: dialing %s: %w", cfg.EthRPCEndpoint, err)
	}

	daemonLog.Infof("raiden starting, address=%s chain=%s", ourAddress.Hex(), cfg.ChainID)
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		daemonLog.Warnf("systemd notify failed: %v", err)
	} else if sent {
		daemonLog.Infof("notified systemd of readiness")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		daemonLog.Infof("shutdown signal received")
		cancel()
	}()

	restServer := &http.Server{Addr: cfg.RESTAddress, Handler: restapi.NewServer(c)}
	go func() {
		if err := restServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			daemonLog.Errorf("rest: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = restServer.Shutdown(shutdownCtx)
	}()

	decoder := &chainevents.Decoder{RegistryAddress: registryAddress}

	return coordinator.Run(ctx, c, coordinator.Services{
		Headers:          wsClient,
		Logs:             httpClient,
		Decoder:          decoder,
		WatchedAddresses: watchedAddresses(chainState, registryAddress),
		Confirmations:    cfg.Confirmations(),
	})
}

// watchedAddresses is the set of on-chain addresses the sync service
// filters logs against: the registry itself (TokenNetworkCreated events)
// plus every token network already known from recovered state (spec §4.5
// item 2's "one FilterQuery across every watched TokenNetwork address").
// Newly created token networks extend this set only on the next restart;
// extending it live would require restarting SyncService's subscription,
// which is outside this node's boot-time wiring.
func watchedAddresses(cs *state.ChainState, registryAddress primitives.Address) []primitives.Address {
	addresses := []primitives.Address{registryAddress}
	for _, registry := range cs.TokenNetworkRegistries {
		for tnAddress := range registry.TokenNetworkAddressesToTokenNetworks {
			addresses = append(addresses, tnAddress)
		}
	}
	return addresses
}

func chainIDFor(id config.ChainID) primitives.ChainID {
	switch id {
	case config.ChainIDMainnet:
		return 1
	case config.ChainIDRopsten:
		return 3
	case config.ChainIDRinkeby:
		return 4
	case config.ChainIDGoerli:
		return 5
	case config.ChainIDKovan:
		return 42
	default:
		return 0
	}
}

// unlockSigningKey decrypts the first Web3 v3 key file in dir with an
// interactively prompted passphrase (spec §6 "Keystore... decrypted with
// a passphrase prompted interactively. Never written back, never
// logged."). Grounded directly on keystore.DecryptKey, the same primitive
// keystore.KeyStore itself uses internally to unlock an account.
func unlockSigningKey(dir string) (*ecdsa.PrivateKey, primitives.Address, error) {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	accounts := ks.Accounts()
	if len(accounts) == 0 {
		return nil, primitives.Address{}, fmt.Errorf("no keys found in %s", dir)
	}
	account := accounts[0]

	keyJSON, err := os.ReadFile(account.URL.Path)
	if err != nil {
		return nil, primitives.Address{}, fmt.Errorf("reading key file %s: %w", account.URL.Path, err)
	}

	fmt.Fprintf(os.Stderr, "passphrase for %s: ", account.Address.Hex())
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, primitives.Address{}, fmt.Errorf("reading passphrase: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, string(passphrase))
	if err != nil {
		return nil, primitives.Address{}, fmt.Errorf("decrypting %s: %w", account.Address.Hex(), err)
	}
	return key.PrivateKey, key.Address, nil
}
