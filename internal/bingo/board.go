package bingo

import (
	"sort"
	"strings"

	"github.com/lryanle/bingobongo/internal/errors"
)

// Cell is one board square. The generator only ever fills the title;
// claim/mark overlays are applied by the read path at request time.
type Cell struct {
	Title    string `json:"title"`
	Locked   bool   `json:"locked"`
	Disabled bool   `json:"disabled"`
	Favorite bool   `json:"favorite"`
}

// GenerateBoard deterministically builds the size*size cell layout for a
// room. Blank and whitespace-only pool entries are dropped before
// counting. With exactly size*size candidates the original order is
// kept; with more, the pool is shuffled with the seeded generator and
// the first size*size are taken; with fewer, a validation error is
// returned rather than padding.
func GenerateBoard(seed string, size int, pool []string) ([]Cell, error) {
	if size <= 0 {
		return nil, errors.Validationf("invalid grid size: %d", size)
	}
	required := size * size

	candidates := make([]string, 0, len(pool))
	for _, item := range pool {
		if strings.TrimSpace(item) != "" {
			candidates = append(candidates, item)
		}
	}

	if len(candidates) < required {
		return nil, errors.Validationf("item pool has %d usable items, need %d", len(candidates), required)
	}

	if len(candidates) > required {
		// Comparator shuffle driven by the seeded generator. This is the
		// historical shuffle and it is not uniform; it must stay as-is so
		// that stored seeds keep producing the boards they always did.
		rng := NewRand(seed)
		sort.SliceStable(candidates, func(i, j int) bool {
			return rng.Next()-0.5 < 0
		})
		candidates = candidates[:required]
	}

	cells := make([]Cell, required)
	for i, title := range candidates {
		cells[i] = Cell{Title: title}
	}
	return cells, nil
}
