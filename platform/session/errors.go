package session

import "errors"

// Reported conditions. All of these are non-fatal: nothing is mutated when
// an operation returns one, and the session continues.
var (
	// Validation.
	ErrNotProperty     = errors.New("tile is not purchasable")
	ErrAlreadyOwned    = errors.New("building already owned")
	ErrNotOwner        = errors.New("not building owner")
	ErrMaxLevelReached = errors.New("building at max level")
	ErrNotEligible     = errors.New("building must be level 5 to mint")
	ErrAlreadyMinted   = errors.New("building already minted")
	ErrSelfRent        = errors.New("cannot pay rent to yourself")
	ErrZeroAmount      = errors.New("rent amount must be greater than 0")

	// Resources.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientFee   = errors.New("insufficient mint fee")

	// Session.
	ErrNotYourTurn   = errors.New("not your turn")
	ErrUnknownPlayer = errors.New("player not in game")
	ErrNotStarted    = errors.New("game has not started")
	ErrMustRoll      = errors.New("you must roll the die first")
	ErrNotJailed     = errors.New("you are not in jail")
)
