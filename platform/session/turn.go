package session

import (
	"fmt"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/board"
)

// RollDice resolves one full turn: draw the dice, move, apply the tile
// effect. Calling it again before EndTurn returns the outcome already in
// progress instead of rolling twice.
func (s *Session) RollDice(userId string) (models.TurnOutcome, error) {
	s.mu.Lock()
	p, err := s.turnPlayer(userId)
	if err != nil {
		s.mu.Unlock()
		return models.TurnOutcome{}, err
	}
	if p.hasRolled && p.lastOutcome != nil {
		outcome := *p.lastOutcome
		s.mu.Unlock()
		return outcome, nil
	}

	p.phase = Rolling
	d1, d2 := s.dice.Roll()
	doubles := d1 == d2
	outcome := models.TurnOutcome{User_id: userId, Dice: [2]int{d1, d2}}

	if p.Jailed && !doubles {
		// No doubles: the turn is spent in jail, no movement, no tile.
		p.hasRolled = true
		p.phase = Idle
		outcome.Pos = p.Pos
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectJailed, Info: "still in jail"})
		outcome.Message = "No doubles, you stay in jail"
		p.lastOutcome = &outcome
		s.mu.Unlock()
		s.publish(Event{Type: "turn", User_id: userId, Outcome: &outcome, Message: outcome.Message})
		return outcome, nil
	}
	if p.Jailed {
		p.Jailed = false
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectJailVisit, Info: "released from jail"})
	}

	p.phase = Moving
	steps := d1 + d2
	old := p.Pos
	pos := (old + steps) % board.Size
	if pos < old {
		// Wrapped past Go; bonus is credited before any tile effect.
		p.Balance += PassGoBonus
		outcome.Effects = append(outcome.Effects, models.Effect{
			Kind:   models.EffectBonus,
			Amount: PassGoBonus,
			Info:   fmt.Sprintf("passed Go, collected %d", PassGoBonus),
		})
	}
	p.Pos = pos

	p.phase = ResolvingTile
	settlement := s.resolveTile(p, &outcome)

	if !doubles {
		p.hasRolled = true
	}
	p.phase = Idle
	outcome.Pos = p.Pos
	p.lastOutcome = &outcome
	s.persistPlayer(p)
	s.mu.Unlock()

	s.publish(Event{Type: "turn", User_id: userId, Outcome: &outcome, Message: outcome.Message})
	if settlement != nil {
		s.publish(Event{Type: "settlement", User_id: userId, Settlement: settlement})
	}
	return outcome, nil
}

// resolveTile applies exactly one tile effect for the tile the player is
// standing on. Caller holds the lock.
func (s *Session) resolveTile(p *Player, outcome *models.TurnOutcome) *models.SettlementRecord {
	tile, err := s.catalog.TileAt(p.Pos)
	if err != nil {
		outcome.Message = err.Error()
		return nil
	}

	switch tile.Type {
	case models.TileProperty:
		return s.resolveProperty(p, tile, outcome)

	case models.TileChance, models.TileCommunity:
		card := s.deck.Draw()
		effect := models.Effect{Kind: models.EffectCard, Amount: card.Amount, Info: card.Info}
		if card.Amount < 0 && p.Balance < -card.Amount {
			// Same policy as tax: a penalty the player cannot afford is
			// reported, not collected.
			effect.Amount = 0
			effect.Info = card.Info + " (insufficient funds)"
		} else {
			p.Balance += card.Amount
		}
		outcome.Effects = append(outcome.Effects, effect)
		outcome.Message = effect.Info

	case models.TileTax:
		if p.Balance < tile.Tax {
			outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectTax, Info: "insufficient funds"})
			outcome.Message = fmt.Sprintf("%s due %d, insufficient funds", tile.Name, tile.Tax)
		} else {
			p.Balance -= tile.Tax
			outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectTax, Amount: tile.Tax, Info: tile.Name})
			outcome.Message = fmt.Sprintf("%s paid: %d", tile.Name, tile.Tax)
		}

	case models.TileGo:
		outcome.Message = "Landed on Go"

	case models.TileJail:
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectJailVisit, Info: "just visiting"})
		outcome.Message = "Just visiting the jail"

	case models.TileParking:
		outcome.Message = "Free parking"

	case models.TileGoToJail:
		// Relocation overrides any effect at the computed destination.
		p.Pos = JailPosition
		p.Jailed = true
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectJailed, Info: "sent to jail"})
		outcome.Message = "Go to jail!"
	}
	return nil
}

func (s *Session) resolveProperty(p *Player, tile models.Tile, outcome *models.TurnOutcome) *models.SettlementRecord {
	st := s.tiles[tile.Id]
	switch {
	case st == nil || st.Owner == "":
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectQuote, Amount: tile.Price, Info: tile.Name})
		outcome.Message = fmt.Sprintf("%s - price: %d", tile.Name, tile.Price)

	case st.Owner == p.Id:
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectOwnTile, Info: tile.Name})
		outcome.Message = fmt.Sprintf("This is your property: %s", tile.Name)

	default:
		record, err := s.settleRent(p, tile, st)
		if err != nil {
			outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectRentDue, Info: err.Error()})
			outcome.Message = fmt.Sprintf("Rent due on %s: %s", tile.Name, err.Error())
			return nil
		}
		outcome.Effects = append(outcome.Effects, models.Effect{Kind: models.EffectRentDue, Amount: record.Amount, Info: tile.Name})
		outcome.Message = fmt.Sprintf("Paid %d rent for %s", record.Amount, tile.Name)
		return record
	}
	return nil
}

// PayBail lets a jailed player buy their way out before rolling.
func (s *Session) PayBail(userId string) error {
	s.mu.Lock()
	p, err := s.player(userId)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !p.Jailed {
		s.mu.Unlock()
		return ErrNotJailed
	}
	if p.Balance < BailCost {
		s.mu.Unlock()
		return ErrInsufficientFunds
	}
	p.Balance -= BailCost
	p.Jailed = false
	s.persistPlayer(p)
	s.mu.Unlock()

	s.publish(Event{Type: "message", User_id: userId, Message: fmt.Sprintf("Paid %d bail, out of jail", BailCost)})
	return nil
}
