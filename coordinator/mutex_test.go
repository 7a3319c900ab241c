package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPartnerMutexSerializesSameKey(t *testing.T) {
	pm := newPartnerMutex()

	unlock := pm.Lock("a:b")
	acquired := make(chan struct{})
	go func() {
		unlock2 := pm.Lock("a:b")
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same key acquired while first is held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after unlock")
	}
}

func TestPartnerMutexIndependentKeys(t *testing.T) {
	pm := newPartnerMutex()

	unlockA := pm.Lock("a:b")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockC := pm.Lock("c:d")
		unlockC()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock on an unrelated key blocked")
	}
}

func TestNewMetricsRegistersCollectors(t *testing.T) {
	m := newMetrics()
	require.NotNil(t, m.registry)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 3)
}
