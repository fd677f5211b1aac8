package ledger

// Contract method names, as exposed by the RichManGame contract.
const (
	MethodPurchase = "purchaseBuilding"
	MethodUpgrade  = "upgradeBuilding"
	MethodMint     = "mintBuildingNFT"
	MethodPayRent  = "payRent"
)

// Contract-side constants. Amounts are in wei.
const (
	MintFee  uint64 = 1_000_000_000_000_000 // 0.001 ether
	RentBase uint64 = 100_000_000_000_000   // 0.0001 ether, rent at level 1
	MaxLevel        = 5
)

// RentAt is the contract's rent formula: the base unit doubled per level
// past 1. Independent of the local rent schedule, see the session package.
func RentAt(level int) uint64 {
	if level < 1 {
		return 0
	}
	return RentBase << uint(level-1)
}

// Building mirrors the contract's building struct.
type Building struct {
	Position int    `json:"position"`
	Owner    string `json:"owner"`
	Level    int    `json:"level"`
	IsMinted bool   `json:"is_minted"`
	TokenId  uint64 `json:"token_id"`
}

// Receipt is the confirmation result of a submitted transaction. Status
// false means the contract reverted; Reason carries the revert message.
type Receipt struct {
	TxId   string
	Status bool
	Reason string
}

// Wallet is the consumed wallet/ledger collaborator. Connection, signing
// and transport live behind it; the mirror only ever sees this surface.
type Wallet interface {
	Connect() (string, error)
	GetBalance(account string) (uint64, error)
	SignAndSend(method string, args []interface{}, value uint64) (string, error)
	WaitForConfirmation(txId string) (Receipt, error)

	// Read-only contract views.
	GetBuilding(position int) (Building, error)
	CalculateRent(position int) (uint64, error)
	GetPlayerBuildings(account string) ([]int, error)
}
