package ledger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Record is the last-known on-chain view of one property plus the flags the
// mirror keeps about it. Local session state stays optimistic; this record
// is authoritative once a submission confirms.
type Record struct {
	Position int    `json:"position"`
	Owner    string `json:"owner"`
	Level    int    `json:"level"`
	Minted   bool   `json:"is_minted"`
	TokenId  uint64 `json:"token_id"`
	Pending  bool   `json:"pending"`
	Diverged bool   `json:"diverged"`
	Warning  string `json:"warning"`
}

// Confirmation is pushed on the events channel once per settled submission,
// confirmed or not.
type Confirmation struct {
	Position int    `json:"position"`
	Method   string `json:"method"`
	TxId     string `json:"tx_id"`
	Ok       bool   `json:"ok"`
	Reason   string `json:"reason"`
}

// intent is the latest remote state a property should converge to. Newer
// local mutations overwrite it; an in-flight worker always resubmits the
// newest intent and drops stale confirmations.
type intent struct {
	seq    uint64
	method string
	args   []interface{}
	value  uint64
	owner  string
	level  int
	minted bool
}

type record struct {
	state    Record
	intended intent
	inflight bool
	settled  uint64 // highest intent seq that has finished, either way
}

// Mirror reconciles local registry mutations with the external contract.
// Submissions are asynchronous and best effort: a rejected or failed call
// marks the record diverged and is never retried or rolled back locally.
type Mirror struct {
	mu      sync.Mutex
	wallet  Wallet
	account string
	seq     uint64
	records map[int]*record
	events  chan Confirmation
}

func NewMirror() *Mirror {
	return &Mirror{
		records: make(map[int]*record),
		events:  make(chan Confirmation, 64),
	}
}

// Activate connects the wallet and turns submissions on. Before activation
// every Sync call is a no-op.
func (m *Mirror) Activate(w Wallet) (string, error) {
	account, err := w.Connect()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.wallet = w
	m.account = account
	m.mu.Unlock()
	logrus.WithField("account", account).Info("ledger mirror activated")
	return account, nil
}

func (m *Mirror) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallet != nil
}

func (m *Mirror) Account() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

// Events delivers one Confirmation per settled submission. The channel is
// buffered; slow consumers lose notifications rather than block the mirror.
func (m *Mirror) Events() <-chan Confirmation {
	return m.events
}

// Get returns the mirror record for a property, if any submission or
// reconciliation has touched it.
func (m *Mirror) Get(position int) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[position]
	if !ok {
		return Record{}, false
	}
	return rec.state, true
}

// SyncPurchase mirrors a local purchase to the contract.
func (m *Mirror) SyncPurchase(position int) {
	m.submit(position, intent{
		method: MethodPurchase,
		args:   []interface{}{position},
		owner:  m.Account(),
		level:  1,
	})
}

// SyncUpgrade mirrors a local upgrade; level is the level just reached.
func (m *Mirror) SyncUpgrade(position, level int) {
	m.submit(position, intent{
		method: MethodUpgrade,
		args:   []interface{}{position},
		owner:  m.Account(),
		level:  level,
	})
}

// SyncMint mirrors a local mint, carrying the contract's mint fee.
func (m *Mirror) SyncMint(position int) {
	m.submit(position, intent{
		method: MethodMint,
		args:   []interface{}{position},
		value:  MintFee,
		owner:  m.Account(),
		level:  MaxLevel,
		minted: true,
	})
}

// SyncRent settles rent on chain using the contract's doubling formula for
// the given level. Rent does not change building state, so a confirmation
// only clears the pending marker.
func (m *Mirror) SyncRent(position, level int) {
	m.submit(position, intent{
		method: MethodPayRent,
		args:   []interface{}{position},
		value:  RentAt(level),
	})
}

func (m *Mirror) submit(position int, it intent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wallet == nil {
		return
	}
	rec, ok := m.records[position]
	if !ok {
		rec = &record{state: Record{Position: position}}
		m.records[position] = rec
	}
	m.seq++
	it.seq = m.seq
	rec.intended = it
	rec.state.Pending = true
	if rec.inflight {
		// At most one in-flight submission per property; the worker picks
		// up the newest intent when the current call settles.
		return
	}
	rec.inflight = true
	go m.drain(position)
}

// drain runs off the turn-resolution path. It submits the latest intent for
// a property until no newer intent remains.
func (m *Mirror) drain(position int) {
	for {
		m.mu.Lock()
		rec := m.records[position]
		if rec.settled >= rec.intended.seq {
			rec.inflight = false
			rec.state.Pending = false
			m.mu.Unlock()
			return
		}
		it := rec.intended
		wallet := m.wallet
		m.mu.Unlock()

		if wallet == nil {
			m.mu.Lock()
			rec.inflight = false
			rec.state.Pending = false
			m.mu.Unlock()
			return
		}

		txId, err := wallet.SignAndSend(it.method, it.args, it.value)
		var receipt Receipt
		if err == nil {
			receipt, err = wallet.WaitForConfirmation(txId)
		}

		m.mu.Lock()
		stale := it.seq < rec.intended.seq
		if it.seq > rec.settled {
			rec.settled = it.seq
		}
		confirmation := Confirmation{Position: position, Method: it.method, TxId: txId}
		switch {
		case err != nil:
			confirmation.Reason = err.Error()
			if !stale {
				rec.state.Diverged = true
				rec.state.Warning = err.Error()
			}
		case !receipt.Status:
			confirmation.Reason = receipt.Reason
			if !stale {
				rec.state.Diverged = true
				rec.state.Warning = receipt.Reason
			}
		default:
			confirmation.Ok = true
			if !stale && it.method != MethodPayRent {
				rec.state.Owner = it.owner
				rec.state.Level = it.level
				rec.state.Minted = it.minted
				rec.state.Diverged = false
				rec.state.Warning = ""
				if it.method == MethodMint {
					if b, err := wallet.GetBuilding(position); err == nil {
						rec.state.TokenId = b.TokenId
					}
				}
			}
		}
		m.mu.Unlock()

		if !confirmation.Ok {
			logrus.WithFields(logrus.Fields{
				"position": position,
				"method":   it.method,
				"reason":   confirmation.Reason,
			}).Warn("ledger submission diverged")
		}
		m.notify(confirmation)
	}
}

func (m *Mirror) notify(c Confirmation) {
	select {
	case m.events <- c:
	default:
	}
}

// Reconcile refreshes a record from the chain and reports whether the
// authoritative state matches the last confirmed view.
func (m *Mirror) Reconcile(position int) (Building, error) {
	m.mu.Lock()
	wallet := m.wallet
	m.mu.Unlock()
	if wallet == nil {
		return Building{}, ErrInactive
	}

	b, err := wallet.GetBuilding(position)
	if err != nil {
		return Building{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[position]
	if !ok {
		rec = &record{state: Record{Position: position}}
		m.records[position] = rec
	}
	rec.state.Owner = b.Owner
	rec.state.Level = b.Level
	rec.state.Minted = b.IsMinted
	rec.state.TokenId = b.TokenId
	return b, nil
}
