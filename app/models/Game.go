package models

type Game struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

type GameCreateDto struct {
	Name string
	Type string
}

type VerifyGameDto struct {
	Code    string
	User_id string
}

// GameMeta is the per-game state that is not attached to a player or a
// tile: whether play has begun and the next NFT token id.
type GameMeta struct {
	Started   bool   `json:"started"`
	NextToken uint64 `json:"next_token"`
}
