package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func awaitEvent(t *testing.T, m *Mirror) Confirmation {
	t.Helper()
	select {
	case c := <-m.Events():
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mirror confirmation")
		return Confirmation{}
	}
}

func awaitIdle(t *testing.T, m *Mirror, position int) Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, ok := m.Get(position); ok && !rec.Pending {
			return rec
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("mirror record for %d never settled", position)
	return Record{}
}

func TestMirrorInactive(t *testing.T) {
	m := NewMirror()
	require.False(t, m.Active())

	m.SyncPurchase(5)
	_, ok := m.Get(5)
	require.False(t, ok)

	select {
	case c := <-m.Events():
		t.Fatalf("unexpected confirmation %+v", c)
	default:
	}

	_, err := m.Reconcile(5)
	require.ErrorIs(t, err, ErrInactive)
}

func TestMirrorConfirms(t *testing.T) {
	m := NewMirror()
	account, err := m.Activate(NewMemLedger("0xp1"))
	require.NoError(t, err)
	require.Equal(t, "0xp1", account)
	require.True(t, m.Active())

	m.SyncPurchase(5)
	confirmation := awaitEvent(t, m)
	require.True(t, confirmation.Ok)
	require.Equal(t, MethodPurchase, confirmation.Method)
	require.Equal(t, 5, confirmation.Position)

	rec := awaitIdle(t, m, 5)
	require.Equal(t, "0xp1", rec.Owner)
	require.Equal(t, 1, rec.Level)
	require.False(t, rec.Diverged)
}

func TestMirrorMintLearnsTokenId(t *testing.T) {
	m := NewMirror()
	_, err := m.Activate(NewMemLedger("0xp1"))
	require.NoError(t, err)

	m.SyncPurchase(15)
	require.True(t, awaitEvent(t, m).Ok)
	for level := 2; level <= MaxLevel; level++ {
		m.SyncUpgrade(15, level)
		require.True(t, awaitEvent(t, m).Ok)
	}
	m.SyncMint(15)
	require.True(t, awaitEvent(t, m).Ok)

	rec := awaitIdle(t, m, 15)
	require.True(t, rec.Minted)
	require.Equal(t, MaxLevel, rec.Level)
	require.Equal(t, uint64(1), rec.TokenId)
}

func TestMirrorRejectionDiverges(t *testing.T) {
	ml := NewMemLedger("0xp1")
	m := NewMirror()
	_, err := m.Activate(ml)
	require.NoError(t, err)

	m.SyncPurchase(5)
	require.True(t, awaitEvent(t, m).Ok)

	ml.Reject(MethodUpgrade, "execution reverted")
	m.SyncUpgrade(5, 2)

	confirmation := awaitEvent(t, m)
	require.False(t, confirmation.Ok)
	require.Equal(t, "execution reverted", confirmation.Reason)

	// Local state is never rolled back and the call is not retried; the
	// record just carries the divergence warning.
	rec := awaitIdle(t, m, 5)
	require.True(t, rec.Diverged)
	require.Equal(t, "execution reverted", rec.Warning)
	require.Equal(t, 1, rec.Level) // last confirmed remote state

	select {
	case c := <-m.Events():
		t.Fatalf("unexpected retry confirmation %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMirrorRentSettlement(t *testing.T) {
	ml := NewMemLedger("0xowner")
	_, err := ml.SignAndSend(MethodPurchase, []interface{}{30}, 0)
	require.NoError(t, err)
	ml.SetAccount("0xtenant")

	m := NewMirror()
	_, err = m.Activate(ml)
	require.NoError(t, err)

	m.SyncRent(30, 3)
	confirmation := awaitEvent(t, m)
	require.True(t, confirmation.Ok)
	require.Equal(t, MethodPayRent, confirmation.Method)

	// Rent leaves building state untouched.
	rec := awaitIdle(t, m, 30)
	require.Empty(t, rec.Owner)
	require.Zero(t, rec.Level)
}

// stallWallet announces each submission on entered and holds it until the
// test releases the gate, so in-flight coalescing can be observed
// deterministically.
type stallWallet struct {
	*MemLedger
	entered chan string
	gate    chan struct{}
}

func (w *stallWallet) SignAndSend(method string, args []interface{}, value uint64) (string, error) {
	w.entered <- method
	<-w.gate
	return w.MemLedger.SignAndSend(method, args, value)
}

func TestMirrorCoalescesInFlight(t *testing.T) {
	wallet := &stallWallet{
		MemLedger: NewMemLedger("0xp1"),
		entered:   make(chan string, 4),
		gate:      make(chan struct{}),
	}
	m := NewMirror()
	_, err := m.Activate(wallet)
	require.NoError(t, err)

	// Purchase goes in flight and blocks; two upgrades land meanwhile.
	m.SyncPurchase(5)
	require.Equal(t, MethodPurchase, <-wallet.entered)
	m.SyncUpgrade(5, 2)
	m.SyncUpgrade(5, 3)

	wallet.gate <- struct{}{} // releases the purchase
	first := awaitEvent(t, m)
	require.Equal(t, MethodPurchase, first.Method)

	// Only the newest upgrade intent goes out; level 2 was coalesced away.
	require.Equal(t, MethodUpgrade, <-wallet.entered)
	wallet.gate <- struct{}{}
	second := awaitEvent(t, m)
	require.Equal(t, MethodUpgrade, second.Method)

	rec := awaitIdle(t, m, 5)
	require.Equal(t, 3, rec.Level)
	select {
	case method := <-wallet.entered:
		t.Fatalf("unexpected extra submission %s", method)
	default:
	}

	// The chain only saw one upgrade; reconciliation surfaces its view.
	b, err := m.Reconcile(5)
	require.NoError(t, err)
	require.Equal(t, 2, b.Level)
	rec, ok := m.Get(5)
	require.True(t, ok)
	require.Equal(t, 2, rec.Level)
}
