package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// MemLedger is an in-process Wallet that executes the RichManGame contract
// rules directly. It backs local play when no real chain is configured and
// gives tests a ledger with the contract's exact revert behavior.
type MemLedger struct {
	mu        sync.Mutex
	account   string
	buildings map[int]*Building
	owned     map[string][]int // per account, purchase order
	nextToken uint64
	txSeq     uint64
	receipts  map[string]Receipt
	rejected  map[string]string // method -> forced revert reason
}

func NewMemLedger(account string) *MemLedger {
	return &MemLedger{
		account:   account,
		buildings: make(map[int]*Building),
		owned:     make(map[string][]int),
		nextToken: 1,
		receipts:  make(map[string]Receipt),
		rejected:  make(map[string]string),
	}
}

func (m *MemLedger) Connect() (string, error) {
	return m.account, nil
}

// SetAccount switches the signing account, like changing the wallet's
// active signer.
func (m *MemLedger) SetAccount(account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = account
}

func (m *MemLedger) GetBalance(account string) (uint64, error) {
	// The simulated chain does not meter gas or hold balances.
	return MintFee * 1000, nil
}

// Reject forces every subsequent submission of method to revert with
// reason. Pass an empty reason to clear.
func (m *MemLedger) Reject(method, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reason == "" {
		delete(m.rejected, method)
		return
	}
	m.rejected[method] = reason
}

func (m *MemLedger) SignAndSend(method string, args []interface{}, value uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txSeq++
	txId := fmt.Sprintf("0xtx%06d", m.txSeq)

	receipt := Receipt{TxId: txId, Status: true}
	if reason, ok := m.rejected[method]; ok {
		receipt = Receipt{TxId: txId, Status: false, Reason: reason}
	} else if reason := m.execute(method, args, value); reason != "" {
		receipt = Receipt{TxId: txId, Status: false, Reason: reason}
	}
	m.receipts[txId] = receipt
	return txId, nil
}

func (m *MemLedger) WaitForConfirmation(txId string) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[txId]
	if !ok {
		return Receipt{}, fmt.Errorf("unknown transaction %s", txId)
	}
	return receipt, nil
}

// execute applies one contract call. Returns the revert reason, or "" on
// success. Revert strings match the deployed contract.
func (m *MemLedger) execute(method string, args []interface{}, value uint64) string {
	position, ok := positionArg(args)
	if !ok {
		return "Invalid position"
	}
	if position < 0 || position > 39 {
		return "Invalid position"
	}

	switch method {
	case MethodPurchase:
		if _, taken := m.buildings[position]; taken {
			return "Building already owned"
		}
		m.buildings[position] = &Building{Position: position, Owner: m.account, Level: 1}
		m.owned[m.account] = append(m.owned[m.account], position)
	case MethodUpgrade:
		b, taken := m.buildings[position]
		if !taken || b.Owner != m.account {
			return "Not building owner"
		}
		if b.Level >= MaxLevel {
			return "Building at max level"
		}
		b.Level++
	case MethodMint:
		b, taken := m.buildings[position]
		if !taken || b.Owner != m.account {
			return "Not building owner"
		}
		if b.Level != MaxLevel {
			return "Building must be level 5"
		}
		if b.IsMinted {
			return "Building already minted"
		}
		if value < MintFee {
			return "Insufficient mint fee"
		}
		b.IsMinted = true
		b.TokenId = m.nextToken
		m.nextToken++
	case MethodPayRent:
		b, taken := m.buildings[position]
		if !taken {
			return "Building not owned"
		}
		if b.Owner == m.account {
			return "Cannot pay rent to yourself"
		}
		if value == 0 {
			return "Rent amount must be greater than 0"
		}
	default:
		return fmt.Sprintf("unknown method %s", method)
	}
	return ""
}

func (m *MemLedger) GetBuilding(position int) (Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 || position > 39 {
		return Building{}, errors.New("invalid position")
	}
	if b, ok := m.buildings[position]; ok {
		return *b, nil
	}
	return Building{Position: position}, nil
}

func (m *MemLedger) CalculateRent(position int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buildings[position]
	if !ok {
		return 0, nil
	}
	return RentAt(b.Level), nil
}

func (m *MemLedger) GetPlayerBuildings(account string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	positions := make([]int, len(m.owned[account]))
	copy(positions, m.owned[account])
	return positions, nil
}

func positionArg(args []interface{}) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	pos, ok := args[0].(int)
	return pos, ok
}
