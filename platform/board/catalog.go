package board

import (
	"encoding/json"
	"errors"
	"fmt"

	_ "embed"

	"github.com/ilianxin/RichMan-Web3/app/models"
)

// Size is the number of tiles on the board.
const Size = 40

var ErrOutOfRange = errors.New("position out of range")

//go:embed properties.json
var propertiesJSON []byte

// Catalog is the immutable 40-tile board definition. Build it once per
// process and share it; tiles never change after load.
type Catalog struct {
	tiles []models.Tile
}

func Load() *Catalog {
	var tiles []models.Tile
	if err := json.Unmarshal(propertiesJSON, &tiles); err != nil {
		panic(err)
	}
	if len(tiles) != Size {
		panic(fmt.Sprintf("board table has %d tiles, want %d", len(tiles), Size))
	}
	for i, tile := range tiles {
		if tile.Id != i {
			panic(fmt.Sprintf("board table out of order at index %d", i))
		}
	}
	return &Catalog{tiles: tiles}
}

func (c *Catalog) TileAt(pos int) (models.Tile, error) {
	if pos < 0 || pos >= Size {
		return models.Tile{}, fmt.Errorf("%w: %d", ErrOutOfRange, pos)
	}
	return c.tiles[pos], nil
}

// Tiles returns a copy of the full table for read-only consumers.
func (c *Catalog) Tiles() []models.Tile {
	out := make([]models.Tile, len(c.tiles))
	copy(out, c.tiles)
	return out
}

// Properties returns the positions of all property tiles in board order.
func (c *Catalog) Properties() []int {
	var positions []int
	for _, tile := range c.tiles {
		if tile.IsProperty() {
			positions = append(positions, tile.Id)
		}
	}
	return positions
}
