package bingo

import "github.com/lryanle/bingobongo/internal/models"

// Line kinds reported by CheckWin
const (
	LineRow  = "row"
	LineCol  = "col"
	LineDiag = "diag"
)

// Line is one fully covered row, column, or diagonal. Index is the row
// or column number; for diagonals 0 is top-left to bottom-right and 1
// is top-right to bottom-left. Cells lists the member cell indices.
type Line struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Cells []int  `json:"cells"`
}

// WinResult is the outcome of a single-team win evaluation
type WinResult struct {
	Won   bool   `json:"won"`
	Lines []Line `json:"lines,omitempty"`
}

// CheckWin decides whether one team's claims satisfy the line-based win
// condition on a size*size board. It checks every row, every column and
// both diagonals; the team wins when at least requiredLines of them are
// fully covered, and the satisfying lines are returned for highlight
// rendering. The evaluation is scoped to a single team: callers decide
// which teams to check and in what order, which is what makes "first
// team to finish" well defined when claims race.
func CheckWin(claims []models.Claim, teamIndex, size, requiredLines int) WinResult {
	if requiredLines < 1 {
		requiredLines = 1
	}

	covered := make([]bool, size*size)
	for _, c := range claims {
		if c.TeamIndex == teamIndex && c.CellIndex >= 0 && c.CellIndex < size*size {
			covered[c.CellIndex] = true
		}
	}

	var lines []Line

	for row := 0; row < size; row++ {
		cells := make([]int, 0, size)
		full := true
		for col := 0; col < size; col++ {
			idx := row*size + col
			cells = append(cells, idx)
			if !covered[idx] {
				full = false
				break
			}
		}
		if full {
			lines = append(lines, Line{Kind: LineRow, Index: row, Cells: cells})
		}
	}

	for col := 0; col < size; col++ {
		cells := make([]int, 0, size)
		full := true
		for row := 0; row < size; row++ {
			idx := row*size + col
			cells = append(cells, idx)
			if !covered[idx] {
				full = false
				break
			}
		}
		if full {
			lines = append(lines, Line{Kind: LineCol, Index: col, Cells: cells})
		}
	}

	diag := make([]int, 0, size)
	full := true
	for i := 0; i < size; i++ {
		idx := i*size + i
		diag = append(diag, idx)
		if !covered[idx] {
			full = false
			break
		}
	}
	if full {
		lines = append(lines, Line{Kind: LineDiag, Index: 0, Cells: diag})
	}

	anti := make([]int, 0, size)
	full = true
	for i := 0; i < size; i++ {
		idx := i*size + (size - 1 - i)
		anti = append(anti, idx)
		if !covered[idx] {
			full = false
			break
		}
	}
	if full {
		lines = append(lines, Line{Kind: LineDiag, Index: 1, Cells: anti})
	}

	if len(lines) < requiredLines {
		return WinResult{}
	}
	return WinResult{Won: true, Lines: lines}
}

// CheckLockoutWin reports whether a player's personal marks cover more
// than half the board, the lockout-mode win threshold.
func CheckLockoutWin(markCount, size int) bool {
	return markCount*2 > size*size
}
