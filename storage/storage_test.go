package storage

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/transition"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreStateChangeAndBetween(t *testing.T) {
	db := openTestDB(t)

	var ids []string
	for i := uint64(1); i <= 3; i++ {
		sc := &state.Block{BlockNumber: primitives.BlockNumber(i), BlockHash: common.BigToHash(new(big.Int).SetUint64(i))}
		id, err := db.StoreStateChange(sc)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	it, err := db.StateChangesBetween("", "")
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for {
		row, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		block, ok := row.StateChange.(*state.Block)
		require.True(t, ok)
		got = append(got, row.ID)
		require.NotZero(t, block.BlockNumber)
	}
	require.Equal(t, ids, got)
}

func TestStateChangesBetweenExcludesFrom(t *testing.T) {
	db := openTestDB(t)

	first, err := db.StoreStateChange(&state.Block{BlockNumber: 1})
	require.NoError(t, err)
	second, err := db.StoreStateChange(&state.Block{BlockNumber: 2})
	require.NoError(t, err)

	it, err := db.StateChangesBetween(first, "")
	require.NoError(t, err)
	defer it.Close()

	row, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, second, row.ID)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAppendTransitionCommitsAtomically(t *testing.T) {
	db := openTestDB(t)

	chainState := state.NewChainState(1, 10, common.Hash{}, common.Address{}, 1)
	sc := &state.Block{BlockNumber: 11}
	events := []state.Event{&state.PaymentSentSuccess{}}

	scID, eventIDs, err := db.AppendTransition(chainState, sc, events)
	require.NoError(t, err)
	require.NotEmpty(t, scID)
	require.Len(t, eventIDs, 1)

	rows, err := db.EventsForStateChange(scID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, eventIDs[0], rows[0].ID)
}

func TestMaybeSnapshotFiresAtInterval(t *testing.T) {
	db := openTestDB(t)
	db.SetSnapshotInterval(3)

	chainState := state.NewChainState(1, 0, common.Hash{}, common.Address{}, 1)
	var lastID string
	for i := uint64(1); i <= 3; i++ {
		chainState.BlockNumber = primitives.BlockNumber(i)
		id, _, err := db.AppendTransition(chainState, &state.Block{BlockNumber: primitives.BlockNumber(i)}, nil)
		require.NoError(t, err)
		lastID = id
	}

	snap, err := db.GetSnapshotBefore()
	require.NoError(t, err)
	require.Equal(t, lastID, snap.StateChangeID)
	require.Equal(t, primitives.BlockNumber(3), snap.ChainState.BlockNumber)
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)

	registryAddr := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	chainState := state.NewChainState(1, 10, common.Hash{}, common.HexToAddress("0xbeef"), 1)
	chainState.TokenNetworkRegistries[registryAddr] = state.NewTokenNetworkRegistry(registryAddr)

	scID, err := db.StoreStateChange(&state.Block{BlockNumber: 10})
	require.NoError(t, err)
	snapID, err := db.StoreSnapshot(scID, chainState)
	require.NoError(t, err)
	require.NotEmpty(t, snapID)

	snap, err := db.GetSnapshotBefore()
	require.NoError(t, err)
	require.Equal(t, scID, snap.StateChangeID)
	require.Equal(t, chainState.OurAddress, snap.ChainState.OurAddress)
	require.Contains(t, snap.ChainState.TokenNetworkRegistries, registryAddr)
}

func TestGetSnapshotBeforeErrNoSnapshot(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSnapshotBefore()
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRecoverBootstrapsWithoutSnapshot(t *testing.T) {
	db := openTestDB(t)

	cfg := BootstrapConfig{
		ChainID:         1,
		BlockNumber:     100,
		BlockHash:       common.HexToHash("0x01"),
		OurAddress:      common.HexToAddress("0xbeef"),
		RandomSeed:      7,
		RegistryAddress: common.HexToAddress("0xaaaa"),
	}

	chainState, lastID, err := Recover(db, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, lastID)
	require.Equal(t, cfg.OurAddress, chainState.OurAddress)
	require.Contains(t, chainState.TokenNetworkRegistries, cfg.RegistryAddress)
}

func TestRecoverReplaysStateChangesAfterSnapshot(t *testing.T) {
	db := openTestDB(t)

	cfg := BootstrapConfig{
		ChainID:         1,
		BlockNumber:     1,
		BlockHash:       common.HexToHash("0x01"),
		OurAddress:      common.HexToAddress("0xbeef"),
		RandomSeed:      7,
		RegistryAddress: common.HexToAddress("0xaaaa"),
	}
	chainState, lastID, err := Recover(db, cfg)
	require.NoError(t, err)

	// Snapshot right after bootstrap, then commit one more block the
	// snapshot doesn't reflect: recovery must replay it on top.
	snapID, err := db.StoreSnapshot(lastID, chainState)
	require.NoError(t, err)
	require.NotEmpty(t, snapID)

	blockChange := &state.Block{BlockNumber: 2}
	next, events := transition.Transition(chainState, blockChange)
	_, _, err = db.AppendTransition(next, blockChange, events)
	require.NoError(t, err)

	recovered, recoveredLastID, err := Recover(db, cfg)
	require.NoError(t, err)
	require.Equal(t, primitives.BlockNumber(2), recovered.BlockNumber)
	require.NotEmpty(t, recoveredLastID)
}
