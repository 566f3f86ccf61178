package services

import (
	"context"

	"github.com/lryanle/bingobongo/internal/models"
)

// Broadcaster publishes fire-and-forget events on a room's topic.
// Publish must never block a mutation and failures are not surfaced;
// consumers refetch authoritative state on every event.
type Broadcaster interface {
	Publish(roomID, event string, payload interface{})
}

// RoomServicer defines the interface for room lifecycle operations
type RoomServicer interface {
	CreateRoom(ctx context.Context, owner models.Identity, params CreateRoomParams) (*models.Room, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	DeleteRoom(ctx context.Context, actor models.Identity, id string) error
	Join(ctx context.Context, actor models.Identity, roomID string, teamIndex *int) (*models.Player, error)
	Leave(ctx context.Context, actor models.Identity, roomID string) error
	Kick(ctx context.Context, actor models.Identity, roomID, targetUserID string) error
	SwitchTeam(ctx context.Context, actor models.Identity, roomID string, teamIndex int) error
	UpdateItems(ctx context.Context, actor models.Identity, roomID string, items []string) error
	Board(ctx context.Context, roomID, viewerID string) ([]BoardCell, error)
	ListPlayers(ctx context.Context, roomID string) ([]models.Player, error)
	ListActivities(ctx context.Context, roomID string, limit int) ([]models.Activity, error)
}

// GameServicer defines the interface for in-game mutations
type GameServicer interface {
	Claim(ctx context.Context, actor models.Identity, roomID string, cellIndex int) (*ClaimResult, error)
	Mark(ctx context.Context, actor models.Identity, roomID string, cellIndex int) (*MarkResult, error)
	Reset(ctx context.Context, actor models.Identity, roomID string) error
	VoteRestart(ctx context.Context, actor models.Identity, roomID string) (*VoteResult, error)
	Restart(ctx context.Context, actor models.Identity, roomID string, instant bool) error
	Disconnected(ctx context.Context, roomID string, actor models.Identity) error
	Reconnected(ctx context.Context, roomID string, actor models.Identity) error
}

// MatchServicer defines the read-side match reconstruction
type MatchServicer interface {
	ListMatches(ctx context.Context, roomID, viewerID string) ([]Match, error)
}

// Ensure concrete types implement interfaces
var (
	_ RoomServicer  = (*RoomService)(nil)
	_ GameServicer  = (*GameService)(nil)
	_ MatchServicer = (*MatchService)(nil)
)
