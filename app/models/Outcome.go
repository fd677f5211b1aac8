package models

// Effect kinds attached to a turn outcome.
const (
	EffectBonus     = "bonus"      // pass-go credit
	EffectCard      = "card"       // chance/community draw
	EffectTax       = "tax"        // tax deducted
	EffectRentDue   = "rent"       // rent charged by another owner
	EffectQuote     = "quote"      // unowned property price quote
	EffectOwnTile   = "own-tile"   // landed on own property
	EffectJailVisit = "jail-visit" // just visiting
	EffectJailed    = "jailed"     // sent to jail
)

type Effect struct {
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
	Info   string `json:"info"`
}

// TurnOutcome describes everything a single dice roll resolved to. It is
// emitted to observers once per roll and never persisted.
type TurnOutcome struct {
	User_id string   `json:"user_id"`
	Dice    [2]int   `json:"dice"`
	Pos     int      `json:"pos"`
	Effects []Effect `json:"effects"`
	Message string   `json:"message"`
}

// SettlementRecord is emitted on every successful rent transfer.
type SettlementRecord struct {
	Payer    string `json:"payer"`
	Owner    string `json:"owner"`
	Amount   int    `json:"amount"`
	Position int    `json:"position"`
}
