package models

import (
	"strconv"
	"strings"
)

// ModeKind classifies how a game mode tracks board ownership and wins
type ModeKind int

const (
	// ModeClassic uses team-scoped claims and line-based win detection
	ModeClassic ModeKind = iota
	// ModeLockout uses per-player marks and a cell-majority win threshold
	ModeLockout
	// ModeOther covers declared modes with no engine behavior (battleship etc.)
	ModeOther
)

// GameMode is the resolved form of a room's mode tag. The tag is parsed
// exactly once at room creation; mutations branch on the resolved fields
// rather than re-matching the tag string.
type GameMode struct {
	Tag           string   `json:"tag"`
	Kind          ModeKind `json:"kind"`
	RequiredLines int      `json:"required_lines"`
}

// TeamClaims reports whether the mode tracks team-scoped claims
// (as opposed to per-player marks).
func (m GameMode) TeamClaims() bool {
	return m.Kind == ModeClassic
}

// ResolveGameMode parses a mode tag like "classic", "classic-3" or
// "lockout" into a GameMode. A classic-N suffix sets the number of
// completed lines required to win; an unparseable suffix defaults to 1.
// Unknown tags resolve to ModeOther, which never finishes automatically.
func ResolveGameMode(tag string) GameMode {
	mode := GameMode{Tag: tag, Kind: ModeOther, RequiredLines: 1}

	switch {
	case tag == "classic":
		mode.Kind = ModeClassic
	case strings.HasPrefix(tag, "classic-"):
		mode.Kind = ModeClassic
		if n, err := strconv.Atoi(strings.TrimPrefix(tag, "classic-")); err == nil && n > 0 {
			mode.RequiredLines = n
		}
	case tag == "lockout":
		mode.Kind = ModeLockout
	}

	return mode
}

// Grid size classes accepted at room creation
const (
	GridClassSmall  = "5x5"
	GridClassMedium = "7x7"
	GridClassLarge  = "10x10"
)

// ParseGridSize maps a grid size class to its side length.
// Returns 0 for unknown classes.
func ParseGridSize(class string) int {
	switch class {
	case GridClassSmall:
		return 5
	case GridClassMedium:
		return 7
	case GridClassLarge:
		return 10
	default:
		return 0
	}
}
