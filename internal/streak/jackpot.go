package streak

import (
	"math/rand"
	"sync"
)

// WeightedPrize is one jackpot table row. Weight is relative; the draw
// probability is weight over the table's total weight.
type WeightedPrize struct {
	Prize  Prize
	Weight int
}

// DefaultJackpotTable is the production day-6 prize table.
var DefaultJackpotTable = []WeightedPrize{
	{Prize: Prize{Amount: 500, Rarity: "common", Label: "Coin Pouch", Color: "#9ca3af"}, Weight: 50},
	{Prize: Prize{Amount: 1000, Rarity: "uncommon", Label: "Coin Stack", Color: "#22c55e"}, Weight: 25},
	{Prize: Prize{Amount: 2500, Rarity: "rare", Label: "Coin Chest", Color: "#3b82f6"}, Weight: 15},
	{Prize: Prize{Amount: 5000, Rarity: "epic", Label: "Coin Vault", Color: "#a855f7"}, Weight: 8},
	{Prize: Prize{Amount: 10000, Rarity: "legendary", Label: "Motherlode", Color: "#f59e0b"}, Weight: 2},
}

// WeightedDrawer implements Drawer with a cumulative-weight walk over a
// prize table. Safe for concurrent use.
type WeightedDrawer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	table []WeightedPrize
	total int
}

// NewWeightedDrawer builds a drawer over the given table. rng may be seeded
// deterministically in tests. Rows with non-positive weight are ignored.
func NewWeightedDrawer(table []WeightedPrize, rng *rand.Rand) *WeightedDrawer {
	d := &WeightedDrawer{rng: rng}
	for _, row := range table {
		if row.Weight <= 0 {
			continue
		}
		d.table = append(d.table, row)
		d.total += row.Weight
	}
	return d
}

// Draw picks one prize, weighted. An empty table draws the zero Prize.
func (d *WeightedDrawer) Draw() Prize {
	if d.total == 0 {
		return Prize{}
	}

	d.mu.Lock()
	n := d.rng.Intn(d.total)
	d.mu.Unlock()

	for _, row := range d.table {
		n -= row.Weight
		if n < 0 {
			return row.Prize
		}
	}
	return d.table[len(d.table)-1].Prize
}
