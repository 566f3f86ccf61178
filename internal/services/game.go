package services

import (
	"context"
	"time"

	"github.com/lryanle/bingobongo/internal/bingo"
	"github.com/lryanle/bingobongo/internal/errors"
	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/repository"
)

// DefaultRestartSeconds is the countdown before a scheduled restart
// resets the board
const DefaultRestartSeconds = 10

// instantRestartSeconds is the shortened countdown for an owner restart
// flagged instant
const instantRestartSeconds = 1

// GameServiceRepository defines the repository methods GameService needs
type GameServiceRepository interface {
	repository.RoomRepository
	repository.PlayerRepository
	repository.ClaimRepository
	repository.MarkRepository
	repository.VoteRepository
	repository.ActivityRepository
}

// GameService handles claims, marks, win evaluation and restarts
type GameService struct {
	log            logger.Logger
	repo           GameServiceRepository
	sched          RestartScheduler
	broadcast      Broadcaster
	restartSeconds int
}

// NewGameService creates a new GameService
func NewGameService(log logger.Logger, repo GameServiceRepository, sched RestartScheduler) *GameService {
	return &GameService{
		log:            log,
		repo:           repo,
		sched:          sched,
		restartSeconds: DefaultRestartSeconds,
	}
}

// SetBroadcaster wires the room event publisher after construction
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcast = b
}

// SetRestartSeconds overrides the default restart countdown length
func (s *GameService) SetRestartSeconds(seconds int) {
	if seconds > 0 {
		s.restartSeconds = seconds
	}
}

func (s *GameService) publish(roomID, event string, payload interface{}) {
	if s.broadcast != nil {
		s.broadcast.Publish(roomID, event, payload)
	}
}

// ClaimResult reports what a claim toggle did
type ClaimResult struct {
	Added bool         `json:"added"`
	Won   bool         `json:"won"`
	Lines []bingo.Line `json:"lines,omitempty"`
}

// Claim toggles the caller's team claim on a cell and, when the toggle
// added a claim, evaluates the win condition for that team only. The
// win-side effect is guarded by the conditional finish update, so of
// two racing winning claims exactly one fires the win event.
func (s *GameService) Claim(ctx context.Context, actor models.Identity, roomID string, cellIndex int) (*ClaimResult, error) {
	room, player, err := s.loadRoomPlayer(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if !room.Mode.TeamClaims() {
		return nil, errors.Conflictf("claims are not available in %s mode", room.Mode.Tag)
	}
	if room.GameFinished {
		return nil, ErrGameFinished
	}
	if cellIndex < 0 || cellIndex >= room.GridSize*room.GridSize {
		return nil, ErrCellNotFound
	}
	if player.TeamIndex == nil {
		return nil, ErrTeamRequired
	}
	team := *player.TeamIndex

	added, err := s.repo.ToggleClaim(ctx, roomID, cellIndex, team, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, roomID, actor.UserID)

	title := s.cellTitle(room, cellIndex)
	action := models.ActionUnclaimed
	if added {
		action = models.ActionClaimed
	}
	s.appendActivity(ctx, roomID, actor, action, title, &cellIndex, &team)
	s.publish(roomID, models.EventItemClaimed, map[string]interface{}{
		"user_id":    actor.UserID,
		"user_name":  actor.DisplayName,
		"cell_index": cellIndex,
		"team_index": team,
		"added":      added,
		"title":      title,
	})

	result := &ClaimResult{Added: added}
	if !added {
		return result, nil
	}

	claims, err := s.repo.ListClaims(ctx, roomID)
	if err != nil {
		return nil, err
	}
	win := bingo.CheckWin(claims, team, room.GridSize, room.Mode.RequiredLines)
	if !win.Won {
		return result, nil
	}

	first, err := s.repo.FinishRoom(ctx, roomID, team)
	if err != nil {
		return nil, err
	}
	if first {
		result.Won = true
		result.Lines = win.Lines
		s.appendActivity(ctx, roomID, actor, models.ActionWin, "", nil, &team)
		s.log.Info("Team won", "room", roomID, "team", team, "lines", len(win.Lines))
		s.publish(roomID, models.EventTeamWon, map[string]interface{}{
			"team_index": team,
			"user_id":    actor.UserID,
			"lines":      win.Lines,
		})
	}
	return result, nil
}

// MarkResult reports what a mark toggle did
type MarkResult struct {
	Added bool `json:"added"`
	Won   bool `json:"won"`
}

// Mark toggles a cell in the caller's personal marks (lockout-style
// modes). Marking is exclusive to the player, not to the cell. A player
// on a team wins lockout by marking more than half the board.
func (s *GameService) Mark(ctx context.Context, actor models.Identity, roomID string, cellIndex int) (*MarkResult, error) {
	room, player, err := s.loadRoomPlayer(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if room.Mode.TeamClaims() {
		return nil, errors.Conflictf("marks are not available in %s mode", room.Mode.Tag)
	}
	if room.GameFinished {
		return nil, ErrGameFinished
	}
	if cellIndex < 0 || cellIndex >= room.GridSize*room.GridSize {
		return nil, ErrCellNotFound
	}

	added, err := s.repo.ToggleMark(ctx, roomID, actor.UserID, cellIndex)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, roomID, actor.UserID)

	title := s.cellTitle(room, cellIndex)
	action := models.ActionUnmarked
	if added {
		action = models.ActionMarked
	}
	s.appendActivity(ctx, roomID, actor, action, title, &cellIndex, player.TeamIndex)
	s.publish(roomID, models.EventItemMarked, map[string]interface{}{
		"user_id":    actor.UserID,
		"user_name":  actor.DisplayName,
		"cell_index": cellIndex,
		"added":      added,
		"title":      title,
	})

	result := &MarkResult{Added: added}
	if !added || room.Mode.Kind != models.ModeLockout || player.TeamIndex == nil {
		return result, nil
	}

	marks, err := s.repo.ListMarks(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !bingo.CheckLockoutWin(len(marks), room.GridSize) {
		return result, nil
	}

	team := *player.TeamIndex
	first, err := s.repo.FinishRoom(ctx, roomID, team)
	if err != nil {
		return nil, err
	}
	if first {
		result.Won = true
		s.appendActivity(ctx, roomID, actor, models.ActionWin, "", nil, &team)
		s.log.Info("Lockout won", "room", roomID, "team", team, "marks", len(marks))
		s.publish(roomID, models.EventTeamWon, map[string]interface{}{
			"team_index": team,
			"user_id":    actor.UserID,
		})
	}
	return result, nil
}

// Reset clears the game state back to a fresh board. Owner only.
func (s *GameService) Reset(ctx context.Context, actor models.Identity, roomID string) error {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != actor.UserID {
		return ErrNotOwner
	}

	s.sched.Cancel(roomID)
	return s.performReset(ctx, roomID, actor)
}

// performReset is the shared reset transition used by the owner action
// and by countdown expiry
func (s *GameService) performReset(ctx context.Context, roomID string, actor models.Identity) error {
	err := s.repo.ClearGameState(ctx, roomID)
	if err == repository.ErrNotFound {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	s.appendActivity(ctx, roomID, actor, models.ActionBoardReset, "", nil, nil)
	s.log.Info("Board reset", "room", roomID, "by", actor.UserID)
	s.publish(roomID, models.EventBoardReset, map[string]interface{}{
		"room_id": roomID,
		"by":      actor.UserID,
	})
	return nil
}

// VoteResult reports the restart vote tally
type VoteResult struct {
	Votes     int  `json:"votes"`
	Needed    int  `json:"needed"`
	Scheduled bool `json:"scheduled"`
}

// VoteRestart casts the caller's restart vote on a finished game. Once
// votes reach a majority of the current player count, a restart
// countdown is scheduled (unless one already is).
func (s *GameService) VoteRestart(ctx context.Context, actor models.Identity, roomID string) (*VoteResult, error) {
	room, _, err := s.loadRoomPlayer(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !room.GameFinished {
		return nil, ErrGameNotFinished
	}

	added, err := s.repo.AddRestartVote(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyVoted
	}

	votes, err := s.repo.CountRestartVotes(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	// Majority of the players present right now, not a fixed quorum
	needed := (len(players) + 1) / 2

	s.publish(roomID, models.EventRestartVote, map[string]interface{}{
		"user_id":   actor.UserID,
		"user_name": actor.DisplayName,
		"votes":     votes,
		"needed":    needed,
	})

	result := &VoteResult{Votes: votes, Needed: needed}
	if votes >= needed {
		scheduled, err := s.scheduleRestart(ctx, roomID, s.restartSeconds)
		if err != nil {
			return nil, err
		}
		result.Scheduled = scheduled
	}
	return result, nil
}

// Restart schedules a restart countdown without a vote. Owner only.
// instant shortens the countdown to a single tick.
func (s *GameService) Restart(ctx context.Context, actor models.Identity, roomID string, instant bool) error {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != actor.UserID {
		return ErrNotOwner
	}

	seconds := s.restartSeconds
	if instant {
		seconds = instantRestartSeconds
	}
	_, err = s.scheduleRestart(ctx, roomID, seconds)
	return err
}

// scheduleRestart arms the countdown for a room. The store-side guard
// and the scheduler's own pending check both make re-scheduling a no-op
// while a countdown is in flight.
func (s *GameService) scheduleRestart(ctx context.Context, roomID string, seconds int) (bool, error) {
	armed, err := s.repo.ScheduleRestart(ctx, roomID, time.Now().UTC().Add(time.Duration(seconds)*time.Second))
	if err != nil {
		return false, err
	}
	if !armed {
		return false, nil
	}

	scheduled := s.sched.Schedule(roomID, seconds,
		func(remaining int) {
			s.publish(roomID, models.EventRestartCountdown, map[string]interface{}{
				"room_id":           roomID,
				"seconds_remaining": remaining,
			})
		},
		func() {
			// Countdown expiry runs outside any request
			ctx := context.Background()
			if err := s.performReset(ctx, roomID, models.Identity{DisplayName: "system"}); err != nil {
				s.log.Error("Scheduled restart failed", "room", roomID, "error", err)
			}
		},
	)

	if scheduled {
		s.log.Info("Restart scheduled", "room", roomID, "seconds", seconds)
		s.publish(roomID, models.EventRestartScheduled, map[string]interface{}{
			"room_id": roomID,
			"seconds": seconds,
		})
	}
	return scheduled, nil
}

// Disconnected records a player dropping their live connection
func (s *GameService) Disconnected(ctx context.Context, roomID string, actor models.Identity) error {
	if err := s.requirePlayer(ctx, roomID, actor.UserID); err != nil {
		return err
	}
	s.touch(ctx, roomID, actor.UserID)
	s.appendActivity(ctx, roomID, actor, models.ActionDisconnected, "", nil, nil)
	s.publish(roomID, models.EventPlayerDisconnected, map[string]interface{}{
		"user_id":   actor.UserID,
		"user_name": actor.DisplayName,
	})
	return nil
}

// Reconnected records a player re-establishing their live connection.
// A user who never joined the room cannot reconnect to it.
func (s *GameService) Reconnected(ctx context.Context, roomID string, actor models.Identity) error {
	if err := s.requirePlayer(ctx, roomID, actor.UserID); err != nil {
		return err
	}
	s.touch(ctx, roomID, actor.UserID)
	s.appendActivity(ctx, roomID, actor, models.ActionReconnected, "", nil, nil)
	s.publish(roomID, models.EventPlayerReconnected, map[string]interface{}{
		"user_id":   actor.UserID,
		"user_name": actor.DisplayName,
	})
	return nil
}

// ==================== helpers ====================

func (s *GameService) getRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err == repository.ErrNotFound {
		return nil, ErrRoomNotFound
	}
	return room, err
}

func (s *GameService) loadRoomPlayer(ctx context.Context, roomID, userID string) (*models.Room, *models.Player, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	player, err := s.repo.GetPlayer(ctx, roomID, userID)
	if err == repository.ErrNotFound {
		return nil, nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return room, player, nil
}

func (s *GameService) requirePlayer(ctx context.Context, roomID, userID string) error {
	_, err := s.repo.GetPlayer(ctx, roomID, userID)
	if err == repository.ErrNotFound {
		return ErrNeverJoined
	}
	return err
}

func (s *GameService) touch(ctx context.Context, roomID, userID string) {
	if err := s.repo.TouchPlayer(ctx, roomID, userID, time.Now().UTC()); err != nil {
		s.log.Debug("Failed to touch player", "room", roomID, "user", userID, "error", err)
	}
}

// cellTitle resolves a cell's title for activity records. Board
// generation is deterministic, so regenerating here is safe.
func (s *GameService) cellTitle(room *models.Room, cellIndex int) string {
	cells, err := bingo.GenerateBoard(room.Seed, room.GridSize, room.Items)
	if err != nil || cellIndex < 0 || cellIndex >= len(cells) {
		return ""
	}
	return cells[cellIndex].Title
}

func (s *GameService) appendActivity(ctx context.Context, roomID string, actor models.Identity, action, itemTitle string, cellIndex, teamIndex *int) {
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
