package models

type Player struct {
	User_id  string
	Game_id  string
	Username string
	Active   string
}

// PlayerDto is the snapshot of a player's in-session state sent to clients
// and written through to redis.
type PlayerDto struct {
	Username   string `json:"username"`
	Balance    int    `json:"balance"`
	Pos        int    `json:"pos"`
	Properties []int  `json:"properties"` // positions, in purchase order
	Jail       bool   `json:"jail"`
}
