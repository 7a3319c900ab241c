package main

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/raiden-network/raiden-go/coordinator"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/storage"
	"github.com/raiden-network/raiden-go/transition"
	"github.com/raiden-network/raiden-go/transport"
)

// daemonLog is this package's own subsystem logger.
var daemonLog btclog.Logger

// logWriter tees every log line to stdout and the rotator, the same split
// lnd's own cmd/lnd/log.go uses logRotator for.
type logWriter struct {
	rotator *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return w.rotator.Write(p)
}

// initLoggers opens the rotating log file and wires every package's
// logger to a shared backend over it (spec §1 ambient stack "Logging"),
// reconstructing lnd's daemon log.go convention of one btclog.Backend
// feeding a Logger per subsystem tag — the pack's retrieved files never
// included lnd's own root log.go, so this is assembled from the
// btclog.Backend/Logger and jrick/logrotate/rotator APIs the rest of the
// corpus's UseLogger setters already assume.
func initLoggers(logFile string, maxRolls int) (*rotator.Rotator, error) {
	r, err := rotator.New(logFile, 10*1024, false, maxRolls)
	if err != nil {
		return nil, err
	}

	backend := btclog.NewBackend(logWriter{rotator: r})

	daemonLog = backend.Logger("RDEN")
	state.UseLogger(backend.Logger("STAT"))
	transition.UseLogger(backend.Logger("TRAN"))
	storage.UseLogger(backend.Logger("STOR"))
	transport.UseLogger(backend.Logger("TRSP"))
	coordinator.UseLogger(backend.Logger("COOR"))

	return r, nil
}
