package repository

import (
	"context"
	"time"

	"github.com/lryanle/bingobongo/internal/models"
)

// RoomRepository defines room data operations
type RoomRepository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	SetRoomItems(ctx context.Context, id string, items []string) error
	FinishRoom(ctx context.Context, id string, winningTeam int) (bool, error)
	ClearGameState(ctx context.Context, id string) error
	ScheduleRestart(ctx context.Context, id string, at time.Time) (bool, error)
}

// PlayerRepository defines player membership operations
type PlayerRepository interface {
	UpsertPlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, roomID, userID string) (*models.Player, error)
	ListPlayers(ctx context.Context, roomID string) ([]models.Player, error)
	SetPlayerTeam(ctx context.Context, roomID, userID string, teamIndex int) error
	TouchPlayer(ctx context.Context, roomID, userID string, at time.Time) error
	DeletePlayer(ctx context.Context, roomID, userID string) error
}

// ClaimRepository defines the team claim ledger. ToggleClaim is the only
// write: there is deliberately no "set claims to X" operation, so two
// concurrent writers can never clobber each other's view of the set.
type ClaimRepository interface {
	ToggleClaim(ctx context.Context, roomID string, cellIndex, teamIndex int, userID string) (added bool, err error)
	ListClaims(ctx context.Context, roomID string) ([]models.Claim, error)
}

// MarkRepository defines per-player marks for lockout-style modes.
// Same discipline as ClaimRepository: toggle only, never replace.
type MarkRepository interface {
	ToggleMark(ctx context.Context, roomID, userID string, cellIndex int) (added bool, err error)
	ListMarks(ctx context.Context, roomID, userID string) ([]int, error)
}

// VoteRepository defines restart vote operations
type VoteRepository interface {
	AddRestartVote(ctx context.Context, roomID, userID string) (added bool, err error)
	CountRestartVotes(ctx context.Context, roomID string) (int, error)
}

// ActivityRepository defines the append-only event log
type ActivityRepository interface {
	AppendActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, roomID string, limit int) ([]models.Activity, error)
}

// FullRepository combines all repository interfaces.
// Use this when a service needs access to multiple domains.
type FullRepository interface {
	RoomRepository
	PlayerRepository
	ClaimRepository
	MarkRepository
	VoteRepository
	ActivityRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
