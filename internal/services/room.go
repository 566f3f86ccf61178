package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lryanle/bingobongo/internal/bingo"
	"github.com/lryanle/bingobongo/internal/errors"
	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/repository"
	"github.com/lryanle/bingobongo/pkg/poolfeed"
)

const (
	maxRoomNameLen  = 64
	maxTeamNameLen  = 32
	maxTeamColorLen = 16
	maxTeams        = 8
)

// RestartScheduler is the countdown abstraction the services drive
type RestartScheduler interface {
	Schedule(roomID string, seconds int, onTick func(remaining int), onDone func()) bool
	Cancel(roomID string) bool
	Pending(roomID string) bool
}

// RoomServiceRepository defines the repository methods RoomService needs
type RoomServiceRepository interface {
	repository.RoomRepository
	repository.PlayerRepository
	repository.ClaimRepository
	repository.MarkRepository
	repository.ActivityRepository
}

// RoomService handles room lifecycle and membership
type RoomService struct {
	log       logger.Logger
	repo      RoomServiceRepository
	sched     RestartScheduler
	feed      poolfeed.Client
	broadcast Broadcaster
}

// NewRoomService creates a new RoomService. feed may be nil when no
// remote pool feed is configured.
func NewRoomService(log logger.Logger, repo RoomServiceRepository, sched RestartScheduler, feed poolfeed.Client) *RoomService {
	return &RoomService{
		log:   log,
		repo:  repo,
		sched: sched,
		feed:  feed,
	}
}

// SetBroadcaster wires the room event publisher after construction
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcast = b
}

func (s *RoomService) publish(roomID, event string, payload interface{}) {
	if s.broadcast != nil {
		s.broadcast.Publish(roomID, event, payload)
	}
}

// CreateRoomParams carries the immutable room config supplied at creation
type CreateRoomParams struct {
	Name      string        `json:"name"`
	Seed      string        `json:"seed"`
	ModeTag   string        `json:"mode"`
	GridClass string        `json:"grid_class"`
	Teams     []models.Team `json:"teams"`
	Items     []string      `json:"items"`
	PoolName  string        `json:"pool_name"`
}

// CreateRoom validates the config, resolves the game mode once, proves
// the item pool can fill the board, and persists the new room.
func (s *RoomService) CreateRoom(ctx context.Context, owner models.Identity, params CreateRoomParams) (*models.Room, error) {
	if params.Name == "" || len(params.Name) > maxRoomNameLen {
		return nil, errors.Validationf("room name must be 1-%d characters", maxRoomNameLen)
	}
	if len(params.Teams) < 1 || len(params.Teams) > maxTeams {
		return nil, errors.Validationf("room needs between 1 and %d teams", maxTeams)
	}
	for _, team := range params.Teams {
		if team.Name == "" || len(team.Name) > maxTeamNameLen {
			return nil, errors.Validationf("team name must be 1-%d characters", maxTeamNameLen)
		}
		if team.Color == "" || len(team.Color) > maxTeamColorLen {
			return nil, errors.Validationf("team color must be 1-%d characters", maxTeamColorLen)
		}
	}

	gridSize := models.ParseGridSize(params.GridClass)
	if gridSize == 0 {
		return nil, errors.Validationf("unknown grid size class %q", params.GridClass)
	}

	modeTag := params.ModeTag
	if modeTag == "" {
		modeTag = "classic"
	}

	seed := params.Seed
	if seed == "" {
		seed = uuid.NewString()
	}

	items := params.Items
	if params.PoolName != "" {
		if s.feed == nil {
			return nil, errors.Validation("no item pool feed is configured")
		}
		fetched, err := s.feed.FetchPool(ctx, params.PoolName)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrValidation, "failed to fetch item pool "+params.PoolName)
		}
		items = append(items, fetched...)
	}

	// Proves the pool is big enough before anything is persisted
	if _, err := bingo.GenerateBoard(seed, gridSize, items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	room := &models.Room{
		ID:          uuid.NewString(),
		Name:        params.Name,
		Seed:        seed,
		Mode:        models.ResolveGameMode(modeTag),
		GridSize:    gridSize,
		OwnerID:     owner.UserID,
		Teams:       params.Teams,
		Items:       items,
		CreatedAt:   now,
		LastUpdated: now,
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.log.Info("Room created", "room", room.ID, "owner", owner.UserID, "mode", modeTag, "grid", gridSize)
	return room, nil
}

// GetRoom retrieves a room by id
func (s *RoomService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// ListRooms returns all rooms
func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.repo.ListRooms(ctx)
}

// DeleteRoom removes a room and all of its state. Owner only.
func (s *RoomService) DeleteRoom(ctx context.Context, actor models.Identity, id string) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.OwnerID != actor.UserID {
		return ErrNotOwner
	}

	s.sched.Cancel(id)
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}

	s.log.Info("Room deleted", "room", id, "owner", actor.UserID)
	s.publish(id, models.EventRoomDeleted, map[string]interface{}{"room_id": id})
	return nil
}

// Join adds the caller to a room. Team modes require a team up front;
// rejoining refreshes the existing membership instead of duplicating it.
func (s *RoomService) Join(ctx context.Context, actor models.Identity, roomID string, teamIndex *int) (*models.Player, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Mode.TeamClaims() && teamIndex == nil {
		return nil, errors.Conflict("this game mode requires choosing a team to join")
	}
	if teamIndex != nil && (*teamIndex < 0 || *teamIndex >= len(room.Teams)) {
		return nil, errors.Validationf("team index %d is out of range", *teamIndex)
	}

	now := time.Now().UTC()
	player := &models.Player{
		RoomID:      roomID,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		TeamIndex:   teamIndex,
		JoinedAt:    now,
		LastActive:  now,
	}
	if err := s.repo.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}

	s.appendActivity(ctx, roomID, actor, models.ActionJoined, "", nil, teamIndex)
	s.publish(roomID, models.EventPlayerJoined, map[string]interface{}{
		"user_id":    actor.UserID,
		"user_name":  actor.DisplayName,
		"team_index": teamIndex,
	})
	return player, nil
}

// Leave removes the caller from a room
func (s *RoomService) Leave(ctx context.Context, actor models.Identity, roomID string) error {
	if err := s.removePlayer(ctx, roomID, actor.UserID); err != nil {
		return err
	}

	s.appendActivity(ctx, roomID, actor, models.ActionLeft, "", nil, nil)
	s.publish(roomID, models.EventPlayerLeft, map[string]interface{}{
		"user_id":   actor.UserID,
		"user_name": actor.DisplayName,
	})
	return nil
}

// Kick removes another player from a room. Owner only.
func (s *RoomService) Kick(ctx context.Context, actor models.Identity, roomID, targetUserID string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != actor.UserID {
		return ErrNotOwner
	}

	target, err := s.repo.GetPlayer(ctx, roomID, targetUserID)
	if err == repository.ErrNotFound {
		return ErrPlayerNotFound
	}
	if err != nil {
		return err
	}

	if err := s.removePlayer(ctx, roomID, targetUserID); err != nil {
		return err
	}

	kicked := models.Identity{UserID: target.UserID, DisplayName: target.DisplayName}
	s.appendActivity(ctx, roomID, kicked, models.ActionKicked, "", nil, nil)
	s.publish(roomID, models.EventPlayerKicked, map[string]interface{}{
		"user_id":   target.UserID,
		"user_name": target.DisplayName,
		"by":        actor.UserID,
	})
	return nil
}

func (s *RoomService) removePlayer(ctx context.Context, roomID, userID string) error {
	err := s.repo.DeletePlayer(ctx, roomID, userID)
	if err == repository.ErrNotFound {
		return ErrPlayerNotFound
	}
	return err
}

// SwitchTeam moves the caller to another team
func (s *RoomService) SwitchTeam(ctx context.Context, actor models.Identity, roomID string, teamIndex int) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if teamIndex < 0 || teamIndex >= len(room.Teams) {
		return errors.Validationf("team index %d is out of range", teamIndex)
	}

	err = s.repo.SetPlayerTeam(ctx, roomID, actor.UserID, teamIndex)
	if err == repository.ErrNotFound {
		return ErrPlayerNotFound
	}
	if err != nil {
		return err
	}

	s.appendActivity(ctx, roomID, actor, models.ActionTeamChanged, "", nil, &teamIndex)
	s.publish(roomID, models.EventTeamChanged, map[string]interface{}{
		"user_id":    actor.UserID,
		"user_name":  actor.DisplayName,
		"team_index": teamIndex,
	})
	return nil
}

// UpdateItems replaces a room's item pool. Owner only. The stored seed
// stays, so the regenerated board is what every reader derives.
func (s *RoomService) UpdateItems(ctx context.Context, actor models.Identity, roomID string, items []string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != actor.UserID {
		return ErrNotOwner
	}

	if _, err := bingo.GenerateBoard(room.Seed, room.GridSize, items); err != nil {
		return err
	}

	if err := s.repo.SetRoomItems(ctx, roomID, items); err != nil {
		return err
	}

	s.log.Info("Room items updated", "room", roomID, "items", len(items))
	s.publish(roomID, models.EventItemsUpdated, map[string]interface{}{
		"room_id": roomID,
		"count":   len(items),
	})
	return nil
}

// BoardCell is a generated cell with the live claim/mark overlay
type BoardCell struct {
	bingo.Cell
	Claims []int `json:"claims,omitempty"`
	Marked bool  `json:"marked,omitempty"`
}

// Board regenerates the room's board from the stored seed and overlays
// the current claim state plus the viewer's own marks
func (s *RoomService) Board(ctx context.Context, roomID, viewerID string) ([]BoardCell, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	cells, err := bingo.GenerateBoard(room.Seed, room.GridSize, room.Items)
	if err != nil {
		return nil, err
	}

	claims, err := s.repo.ListClaims(ctx, roomID)
	if err != nil {
		return nil, err
	}

	board := make([]BoardCell, len(cells))
	for i, cell := range cells {
		cell.Locked = room.GameFinished
		board[i] = BoardCell{Cell: cell}
	}
	for _, claim := range claims {
		if claim.CellIndex >= 0 && claim.CellIndex < len(board) {
			board[claim.CellIndex].Claims = append(board[claim.CellIndex].Claims, claim.TeamIndex)
		}
	}

	if viewerID != "" {
		marks, err := s.repo.ListMarks(ctx, roomID, viewerID)
		if err != nil {
			return nil, err
		}
		for _, cell := range marks {
			if cell >= 0 && cell < len(board) {
				board[cell].Marked = true
			}
		}
	}

	return board, nil
}

// ListPlayers returns a room's players
func (s *RoomService) ListPlayers(ctx context.Context, roomID string) ([]models.Player, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.repo.ListPlayers(ctx, roomID)
}

// ListActivities returns a room's activity log in event order
func (s *RoomService) ListActivities(ctx context.Context, roomID string, limit int) ([]models.Activity, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, roomID, limit)
}

// appendActivity writes an event record; failures are logged, not fatal,
// because the primary mutation has already been applied.
func (s *RoomService) appendActivity(ctx context.Context, roomID string, actor models.Identity, action, itemTitle string, cellIndex, teamIndex *int) {
	activity := &models.Activity{
		RoomID:    roomID,
		UserID:    actor.UserID,
		UserName:  actor.DisplayName,
		Action:    action,
		ItemTitle: itemTitle,
		CellIndex: cellIndex,
		TeamIndex: teamIndex,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendActivity(ctx, activity); err != nil {
		s.log.Error("Failed to append activity", "room", roomID, "action", action, "error", err)
	}
}
