package session

import (
	"fmt"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/ledger"
)

// The property registry: purchase, upgrade, mint. All three hold for every
// property tile that owner == "" implies level 0 and not minted, that level
// only ever increases, and that minted implies level 5.

// Purchase buys an unowned property at its catalog price. The buyer gets
// level 1 and the position is appended to their holdings in purchase order.
func (s *Session) Purchase(userId string, pos int) error {
	s.mu.Lock()
	p, err := s.player(userId)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	tile, err := s.catalog.TileAt(pos)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !tile.IsProperty() {
		s.mu.Unlock()
		return ErrNotProperty
	}
	if st, ok := s.tiles[pos]; ok && st.Owner != "" {
		s.mu.Unlock()
		return ErrAlreadyOwned
	}
	if p.Balance < tile.Price {
		s.mu.Unlock()
		return ErrInsufficientFunds
	}

	p.Balance -= tile.Price
	st := &models.TileState{Position: pos, Owner: userId, Level: 1}
	s.tiles[pos] = st
	p.Properties = append(p.Properties, pos)
	s.persistPlayer(p)
	s.persistTile(st)
	if s.mirror.Active() {
		s.mirror.SyncPurchase(pos)
	}
	s.mu.Unlock()

	s.publish(Event{Type: "message", User_id: userId, Message: fmt.Sprintf("Purchased %s for %d", tile.Name, tile.Price)})
	return nil
}

// UpgradeCost is half the purchase price, rounded down.
func UpgradeCost(tile models.Tile) int {
	return tile.Price / 2
}

// Upgrade raises an owned property one level, up to MaxLevel.
func (s *Session) Upgrade(userId string, pos int) error {
	s.mu.Lock()
	p, err := s.player(userId)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	tile, err := s.catalog.TileAt(pos)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !tile.IsProperty() {
		s.mu.Unlock()
		return ErrNotProperty
	}
	st, ok := s.tiles[pos]
	if !ok || st.Owner != userId {
		s.mu.Unlock()
		return ErrNotOwner
	}
	if st.Level >= MaxLevel {
		s.mu.Unlock()
		return ErrMaxLevelReached
	}
	cost := UpgradeCost(tile)
	if p.Balance < cost {
		s.mu.Unlock()
		return ErrInsufficientFunds
	}

	p.Balance -= cost
	st.Level++
	s.persistPlayer(p)
	s.persistTile(st)
	if s.mirror.Active() {
		s.mirror.SyncUpgrade(pos, st.Level)
	}
	level := st.Level
	s.mu.Unlock()

	message := fmt.Sprintf("Upgraded %s to Lv.%d", tile.Name, level)
	if level == MaxLevel {
		message += ", NFT mint unlocked"
	}
	s.publish(Event{Type: "message", User_id: userId, Message: message})
	return nil
}

// Mint converts a maxed-out property into a collectible exactly once. The
// fee is denominated in the ledger's unit (wei) and checked against the
// contract's fixed mint fee. Token ids are assigned from a session-global
// counter starting at 1 and are never reused.
func (s *Session) Mint(userId string, pos int, fee uint64) (uint64, error) {
	s.mu.Lock()
	_, err := s.player(userId)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	tile, err := s.catalog.TileAt(pos)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if !tile.IsProperty() {
		s.mu.Unlock()
		return 0, ErrNotProperty
	}
	st, ok := s.tiles[pos]
	if !ok || st.Owner != userId {
		s.mu.Unlock()
		return 0, ErrNotOwner
	}
	if st.Level < MaxLevel {
		s.mu.Unlock()
		return 0, ErrNotEligible
	}
	if st.Minted {
		s.mu.Unlock()
		return 0, ErrAlreadyMinted
	}
	if fee < ledger.MintFee {
		s.mu.Unlock()
		return 0, ErrInsufficientFee
	}

	st.Minted = true
	st.TokenId = s.nextToken
	s.nextToken++
	tokenId := st.TokenId
	s.persistTile(st)
	s.persistMeta()
	if s.mirror.Active() {
		s.mirror.SyncMint(pos)
	}
	s.mu.Unlock()

	s.publish(Event{Type: "message", User_id: userId, Message: fmt.Sprintf("Minted NFT #%d for %s", tokenId, tile.Name)})
	return tokenId, nil
}
