package models

import "time"

// Team is one side competing in a room
type Team struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Claim records one team's hold on one board cell.
// Claims are per-team: several teams may hold the same cell at once.
type Claim struct {
	CellIndex int       `json:"cell_index"`
	TeamIndex int       `json:"team_index"`
	ClaimedBy string    `json:"claimed_by"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Room is one bingo match lobby. Config fields (seed, mode, grid size,
// teams, owner) are immutable after creation; only the game state moves.
type Room struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Seed         string     `json:"seed"`
	Mode         GameMode   `json:"mode"`
	GridSize     int        `json:"grid_size"`
	OwnerID      string     `json:"owner_id"`
	Teams        []Team     `json:"teams"`
	Items        []string   `json:"items"`
	GameFinished bool       `json:"game_finished"`
	WinningTeam  *int       `json:"winning_team,omitempty"`
	RestartAt    *time.Time `json:"restart_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUpdated  time.Time  `json:"last_updated"`
}

// Player is one user's membership in one room
type Player struct {
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	TeamIndex   *int      `json:"team_index,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
	LastActive  time.Time `json:"last_active"`
}

// Activity action tags
const (
	ActionJoined       = "joined"
	ActionLeft         = "left"
	ActionKicked       = "kicked"
	ActionTeamChanged  = "team-changed"
	ActionMarked       = "marked"
	ActionUnmarked     = "unmarked"
	ActionClaimed      = "claimed"
	ActionUnclaimed    = "unclaimed"
	ActionWin          = "win"
	ActionBoardReset   = "board-reset"
	ActionDisconnected = "disconnected"
	ActionReconnected  = "reconnected"
)

// Activity is one append-only event record. Rows are never updated,
// only appended or bulk-deleted with their room.
type Activity struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	ItemTitle string    `json:"item_title,omitempty"`
	CellIndex *int      `json:"cell_index,omitempty"`
	TeamIndex *int      `json:"team_index,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WSMessage represents a WebSocket message on a room topic
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broadcast event names, one topic per room
const (
	EventPlayerJoined       = "player-joined"
	EventPlayerLeft         = "player-left"
	EventPlayerKicked       = "player-kicked"
	EventPlayerDisconnected = "player-disconnected"
	EventPlayerReconnected  = "player-reconnected"
	EventTeamChanged        = "team-changed"
	EventItemClaimed        = "item-claimed"
	EventItemMarked         = "item-marked"
	EventTeamWon            = "team-won"
	EventBoardReset         = "board-reset"
	EventRestartScheduled   = "restart-scheduled"
	EventRestartCountdown   = "restart-countdown"
	EventRestartVote        = "restart-vote"
	EventRoomDeleted        = "room-deleted"
	EventItemsUpdated       = "bingo-items-updated"
)
