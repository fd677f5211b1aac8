package ledger

import "errors"

// ErrInactive is returned by operations that need a connected wallet.
var ErrInactive = errors.New("ledger connection not active")
