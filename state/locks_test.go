package state

import (
	"testing"

	"github.com/raiden-network/raiden-go/primitives"
	"github.com/stretchr/testify/require"
)

func lockWithAmount(amount uint64) HashTimeLock {
	return HashTimeLock{
		Amount:     primitives.NewAmount(amount),
		Expiration: primitives.BlockExpiration(100),
		SecretHash: primitives.SecretHash{0x01},
	}
}

func TestPendingLocksStateWithAppendsAndUpdatesLocksroot(t *testing.T) {
	var p PendingLocksState
	empty := p.Locksroot()

	lock := lockWithAmount(10)
	p = p.With(lock)

	require.Len(t, p.Locks, 1)
	require.Equal(t, lock.Encoded(), p.Locks[0])
	require.NotEqual(t, empty, p.Locksroot())
}

func TestPendingLocksStateWithoutRemovesFirstMatch(t *testing.T) {
	a := lockWithAmount(10)
	b := lockWithAmount(20)

	var p PendingLocksState
	p = p.With(a).With(b)
	require.Len(t, p.Locks, 2)

	p = p.Without(a)
	require.Len(t, p.Locks, 1)
	require.Equal(t, b.Encoded(), p.Locks[0])
}

func TestPendingLocksStateWithoutMissingLockIsNoop(t *testing.T) {
	var p PendingLocksState
	p = p.With(lockWithAmount(10))

	before := p.Locksroot()
	p = p.Without(lockWithAmount(99))

	require.Equal(t, before, p.Locksroot())
	require.Len(t, p.Locks, 1)
}

func TestPendingLocksStateImmutable(t *testing.T) {
	var p PendingLocksState
	p1 := p.With(lockWithAmount(1))
	p2 := p1.With(lockWithAmount(2))

	require.Len(t, p1.Locks, 1)
	require.Len(t, p2.Locks, 2)
}
