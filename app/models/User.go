package models

type User struct {
	Id       string
	Email    string
	Password string // bcrypt hash
	Wallet   string // optional on-chain account bound to the user
}

type UserDto struct {
	Email  string `json:"email"`
	Pass   string `json:"pass"`
	Wallet string `json:"wallet"`
}
