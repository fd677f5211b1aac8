package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// send submits a call and returns its receipt.
func send(t *testing.T, m *MemLedger, method string, position int, value uint64) Receipt {
	t.Helper()
	txId, err := m.SignAndSend(method, []interface{}{position}, value)
	require.NoError(t, err)
	receipt, err := m.WaitForConfirmation(txId)
	require.NoError(t, err)
	return receipt
}

func confirm(t *testing.T, m *MemLedger, method string, position int, value uint64) {
	t.Helper()
	receipt := send(t, m, method, position, value)
	require.True(t, receipt.Status, "reverted: %s", receipt.Reason)
}

func maxOut(t *testing.T, m *MemLedger, position int) {
	t.Helper()
	confirm(t, m, MethodPurchase, position, 0)
	for i := 0; i < 4; i++ {
		confirm(t, m, MethodUpgrade, position, 0)
	}
}

func TestMemLedgerPurchase(t *testing.T) {
	t.Run("records the buyer at level 1", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		confirm(t, m, MethodPurchase, 5, 0)

		b, err := m.GetBuilding(5)
		require.NoError(t, err)
		require.Equal(t, "0xp1", b.Owner)
		require.Equal(t, 1, b.Level)
		require.Equal(t, 5, b.Position)
	})

	t.Run("rejects a second purchase", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		confirm(t, m, MethodPurchase, 5, 0)

		m.SetAccount("0xp2")
		receipt := send(t, m, MethodPurchase, 5, 0)
		require.False(t, receipt.Status)
		require.Equal(t, "Building already owned", receipt.Reason)
	})

	t.Run("rejects invalid positions", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		receipt := send(t, m, MethodPurchase, 50, 0)
		require.False(t, receipt.Status)
		require.Equal(t, "Invalid position", receipt.Reason)
	})
}

func TestMemLedgerUpgrade(t *testing.T) {
	t.Run("owner upgrades to max level", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		maxOut(t, m, 10)

		b, err := m.GetBuilding(10)
		require.NoError(t, err)
		require.Equal(t, MaxLevel, b.Level)

		receipt := send(t, m, MethodUpgrade, 10, 0)
		require.False(t, receipt.Status)
		require.Equal(t, "Building at max level", receipt.Reason)
	})

	t.Run("non-owner cannot upgrade", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		confirm(t, m, MethodPurchase, 10, 0)

		m.SetAccount("0xp2")
		receipt := send(t, m, MethodUpgrade, 10, 0)
		require.False(t, receipt.Status)
		require.Equal(t, "Not building owner", receipt.Reason)
	})
}

func TestMemLedgerMint(t *testing.T) {
	t.Run("mints at level 5 for the full fee", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		maxOut(t, m, 15)
		confirm(t, m, MethodMint, 15, MintFee)

		b, err := m.GetBuilding(15)
		require.NoError(t, err)
		require.True(t, b.IsMinted)
		require.Equal(t, uint64(1), b.TokenId)
	})

	t.Run("rejects a short fee", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		maxOut(t, m, 15)

		receipt := send(t, m, MethodMint, 15, MintFee/10)
		require.False(t, receipt.Status)
		require.Equal(t, "Insufficient mint fee", receipt.Reason)
	})

	t.Run("rejects below level 5", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		confirm(t, m, MethodPurchase, 20, 0)

		receipt := send(t, m, MethodMint, 20, MintFee)
		require.False(t, receipt.Status)
		require.Equal(t, "Building must be level 5", receipt.Reason)
	})

	t.Run("rejects double minting", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		maxOut(t, m, 15)
		confirm(t, m, MethodMint, 15, MintFee)

		receipt := send(t, m, MethodMint, 15, MintFee)
		require.False(t, receipt.Status)
		require.Equal(t, "Building already minted", receipt.Reason)
	})

	t.Run("token ids increment per mint", func(t *testing.T) {
		m := NewMemLedger("0xp1")
		maxOut(t, m, 15)
		maxOut(t, m, 25)
		confirm(t, m, MethodMint, 15, MintFee)
		confirm(t, m, MethodMint, 25, MintFee)

		first, err := m.GetBuilding(15)
		require.NoError(t, err)
		second, err := m.GetBuilding(25)
		require.NoError(t, err)
		require.Equal(t, uint64(1), first.TokenId)
		require.Equal(t, uint64(2), second.TokenId)
	})
}

func TestMemLedgerPayRent(t *testing.T) {
	m := NewMemLedger("0xp1")
	confirm(t, m, MethodPurchase, 30, 0)

	t.Run("tenant pays the owner", func(t *testing.T) {
		m.SetAccount("0xp2")
		confirm(t, m, MethodPayRent, 30, RentAt(1))
	})

	t.Run("owner cannot pay themselves", func(t *testing.T) {
		m.SetAccount("0xp1")
		receipt := send(t, m, MethodPayRent, 30, RentAt(1))
		require.False(t, receipt.Status)
		require.Equal(t, "Cannot pay rent to yourself", receipt.Reason)
	})

	t.Run("zero rent is rejected", func(t *testing.T) {
		m.SetAccount("0xp2")
		receipt := send(t, m, MethodPayRent, 30, 0)
		require.False(t, receipt.Status)
		require.Equal(t, "Rent amount must be greater than 0", receipt.Reason)
	})
}

func TestMemLedgerCalculateRent(t *testing.T) {
	m := NewMemLedger("0xp1")

	t.Run("zero for unowned buildings", func(t *testing.T) {
		rent, err := m.CalculateRent(39)
		require.NoError(t, err)
		require.Zero(t, rent)
	})

	t.Run("doubles per level", func(t *testing.T) {
		confirm(t, m, MethodPurchase, 35, 0)

		rent, err := m.CalculateRent(35)
		require.NoError(t, err)
		require.Equal(t, RentBase, rent)

		confirm(t, m, MethodUpgrade, 35, 0)
		rent, err = m.CalculateRent(35)
		require.NoError(t, err)
		require.Equal(t, 2*RentBase, rent)

		confirm(t, m, MethodUpgrade, 35, 0)
		rent, err = m.CalculateRent(35)
		require.NoError(t, err)
		require.Equal(t, 4*RentBase, rent)
	})
}

func TestMemLedgerPlayerBuildings(t *testing.T) {
	m := NewMemLedger("0xp1")
	for _, pos := range []int{1, 5, 10} {
		confirm(t, m, MethodPurchase, pos, 0)
	}

	positions, err := m.GetPlayerBuildings("0xp1")
	require.NoError(t, err)
	require.Equal(t, []int{1, 5, 10}, positions)

	positions, err = m.GetPlayerBuildings("0xnobody")
	require.NoError(t, err)
	require.Empty(t, positions)
}
