package dice

import (
	"math/rand"
	"sync"

	"github.com/ilianxin/RichMan-Web3/app/models"
)

// Deck draws chance/community cards uniformly with replacement, so the same
// entry can repeat across turns.
type Deck interface {
	Draw() models.Card
}

// Cards is the fixed chance/community deck.
var Cards = []models.Card{
	{Info: "You won a prize of 500", Amount: 500},
	{Info: "Pay a fine of 200", Amount: -200},
	{Info: "You won a prize of 1000", Amount: 1000},
	{Info: "Pay a fee of 300", Amount: -300},
	{Info: "You won a prize of 800", Amount: 800},
}

type randDeck struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewDeck(seed int64) Deck {
	return &randDeck{rng: rand.New(rand.NewSource(seed))}
}

func (d *randDeck) Draw() models.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Cards[d.rng.Intn(len(Cards))]
}

// FixedDeck always draws the card at Index, for tests.
type FixedDeck struct {
	Index int
}

func (d *FixedDeck) Draw() models.Card {
	return Cards[d.Index%len(Cards)]
}
