package session

import (
	"fmt"

	"github.com/ilianxin/RichMan-Web3/app/models"
)

// LocalRent is the off-ledger rent for a tile at a level, looked up from
// the tile's schedule. Level 0 carries no rent. Short schedules (stations,
// utilities) clamp at their top entry. Distinct from ledger.RentAt, the
// contract's doubling formula; the two economies never reconcile.
func LocalRent(tile models.Tile, level int) int {
	if level < 1 || len(tile.Rent) == 0 {
		return 0
	}
	idx := level - 1
	if idx >= len(tile.Rent) {
		idx = len(tile.Rent) - 1
	}
	return tile.Rent[idx]
}

// PayRent settles rent for the tile at pos from userId to its owner.
func (s *Session) PayRent(userId string, pos int) (models.SettlementRecord, error) {
	s.mu.Lock()
	p, err := s.player(userId)
	if err != nil {
		s.mu.Unlock()
		return models.SettlementRecord{}, err
	}
	tile, err := s.catalog.TileAt(pos)
	if err != nil {
		s.mu.Unlock()
		return models.SettlementRecord{}, err
	}
	if !tile.IsProperty() {
		s.mu.Unlock()
		return models.SettlementRecord{}, ErrNotProperty
	}
	st, ok := s.tiles[pos]
	if !ok || st.Owner == "" {
		s.mu.Unlock()
		return models.SettlementRecord{}, ErrZeroAmount
	}

	record, err := s.settleRent(p, tile, st)
	if err != nil {
		s.mu.Unlock()
		return models.SettlementRecord{}, err
	}
	s.mu.Unlock()

	s.publish(Event{Type: "settlement", User_id: userId, Settlement: record,
		Message: fmt.Sprintf("Paid %d rent for %s", record.Amount, tile.Name)})
	return *record, nil
}

// settleRent moves the local rent amount from payer to owner and mirrors
// the ledger-side settlement. Caller holds the lock. Conservation: the
// payer loses exactly what the owner gains.
func (s *Session) settleRent(payer *Player, tile models.Tile, st *models.TileState) (*models.SettlementRecord, error) {
	if st.Owner == payer.Id {
		return nil, ErrSelfRent
	}
	owner, ok := s.players[st.Owner]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	amount := LocalRent(tile, st.Level)
	if amount <= 0 {
		return nil, ErrZeroAmount
	}
	if payer.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	payer.Balance -= amount
	owner.Balance += amount
	s.persistPlayer(payer)
	s.persistPlayer(owner)
	if s.mirror.Active() {
		s.mirror.SyncRent(st.Position, st.Level)
	}
	return &models.SettlementRecord{
		Payer:    payer.Id,
		Owner:    owner.Id,
		Amount:   amount,
		Position: st.Position,
	}, nil
}
