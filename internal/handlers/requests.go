package handlers

// RegisterSessionRequest starts a guest session
type RegisterSessionRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// JoinRoomRequest joins a room, optionally picking a team
type JoinRoomRequest struct {
	TeamIndex *int `json:"team_index"`
}

// KickRequest removes another player from a room
type KickRequest struct {
	UserID string `json:"user_id"`
}

// SwitchTeamRequest moves the caller to another team
type SwitchTeamRequest struct {
	TeamIndex int `json:"team_index"`
}

// CellRequest targets one board cell for a claim or mark toggle
type CellRequest struct {
	CellIndex int `json:"cell_index"`
}

// RestartRequest schedules an owner restart
type RestartRequest struct {
	Instant bool `json:"instant"`
}

// UpdateItemsRequest replaces a room's item pool
type UpdateItemsRequest struct {
	Items []string `json:"items"`
}
