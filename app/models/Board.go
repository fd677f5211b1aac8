package models

// Tile types as they appear in the embedded board table.
const (
	TileGo        = "go"
	TileProperty  = "property"
	TileChance    = "chance"
	TileCommunity = "community"
	TileTax       = "tax"
	TileJail      = "jail"
	TileParking   = "parking"
	TileGoToJail  = "gotoJail"
)

type Tile struct {
	Id    int    `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Price int    `json:"price"`
	Rent  []int  `json:"rent"`
	Tax   int    `json:"tax"` // only set on tax tiles
}

func (t Tile) IsProperty() bool {
	return t.Type == TileProperty
}

// TileState is the mutable per-session side of a property tile. The catalog
// itself never changes; ownership, level and mint status live here.
type TileState struct {
	Position int    `json:"position"`
	Owner    string `json:"owner"`
	Level    int    `json:"level"`
	Minted   bool   `json:"is_minted"`
	TokenId  uint64 `json:"token_id"`
}

// Card is one chance/community deck entry. Amount is negative for penalties.
type Card struct {
	Info   string `json:"info"`
	Amount int    `json:"amount"`
}
