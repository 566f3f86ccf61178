package services

import (
	"context"
	"time"

	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/repository"
)

// MatchStatus is the coarse lifecycle state of one logical match
type MatchStatus string

const (
	StatusNotStarted   MatchStatus = "not_started"
	StatusInProgress   MatchStatus = "in_progress"
	StatusFinishedWon  MatchStatus = "finished_won"
	StatusFinishedLost MatchStatus = "finished_lost"
	StatusCancelled    MatchStatus = "cancelled"
)

// inactivityCutoff is how long every player must be idle before a match
// counts as cancelled. Pure read-time classification, not a timer.
const inactivityCutoff = time.Hour

// Match is one logical match reconstructed from a room. A room that was
// won and then reset yields two of these: the frozen finished match and
// the live one.
type Match struct {
	RoomID       string      `json:"room_id"`
	Sequence     int         `json:"sequence"`
	Status       MatchStatus `json:"status"`
	WinningTeam  *int        `json:"winning_team,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	ClaimsByTeam map[int]int `json:"claims_by_team,omitempty"`
}

// MatchServiceRepository defines the repository methods MatchService needs
type MatchServiceRepository interface {
	repository.RoomRepository
	repository.PlayerRepository
	repository.ClaimRepository
	repository.ActivityRepository
}

// MatchService reconstructs match status and history from persisted
// state. It is purely read-side; nothing here mutates a room.
type MatchService struct {
	log  logger.Logger
	repo MatchServiceRepository
}

// NewMatchService creates a new MatchService
func NewMatchService(log logger.Logger, repo MatchServiceRepository) *MatchService {
	return &MatchService{log: log, repo: repo}
}

// ProjectStatus classifies a room's current lifecycle state. The live
// room fields are authoritative for finished games; scanning the
// activity log for a win not superseded by a later reset is the
// fallback for historical views. viewerTeam frames finished games as
// won or lost from the viewer's side.
func ProjectStatus(room *models.Room, players []models.Player, activities []models.Activity, viewerTeam *int, now time.Time) MatchStatus {
	if len(players) > 0 {
		allIdle := true
		for _, p := range players {
			if now.Sub(p.LastActive) <= inactivityCutoff {
				allIdle = false
				break
			}
		}
		if allIdle {
			return StatusCancelled
		}
	}

	if len(players) == 0 {
		return StatusNotStarted
	}

	winner := room.WinningTeam
	if !room.GameFinished {
		winner = lastStandingWin(activities)
	}
	if winner != nil {
		if viewerTeam != nil && *viewerTeam == *winner {
			return StatusFinishedWon
		}
		return StatusFinishedLost
	}

	return StatusInProgress
}

// lastStandingWin finds a win event not superseded by a later reset
func lastStandingWin(activities []models.Activity) *int {
	var winner *int
	for _, a := range activities {
		switch a.Action {
		case models.ActionWin:
			winner = a.TeamIndex
		case models.ActionBoardReset:
			winner = nil
		}
	}
	return winner
}

// ListMatches synthesizes the logical matches played in one room. Each
// win followed by a board reset freezes a finished match whose stats
// are replayed from the activity log up to the win; the tail of the log
// plus live state forms the current match.
func (s *MatchService) ListMatches(ctx context.Context, roomID, viewerID string) ([]Match, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err == repository.ErrNotFound {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	players, err := s.repo.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ListActivities(ctx, roomID, 0)
	if err != nil {
		return nil, err
	}

	var viewerTeam *int
	for _, p := range players {
		if p.UserID == viewerID {
			viewerTeam = p.TeamIndex
			break
		}
	}

	var matches []Match
	sequence := 0
	startedAt := room.CreatedAt
	counts := make(map[int]int)

	// A win freezes the running stats; the reset that follows it closes
	// the match. A reset without a preceding win just clears the board
	// within the same match.
	var frozen *Match

	for _, a := range activities {
		switch a.Action {
		case models.ActionClaimed:
			if a.TeamIndex != nil {
				counts[*a.TeamIndex]++
			}
		case models.ActionUnclaimed:
			if a.TeamIndex != nil && counts[*a.TeamIndex] > 0 {
				counts[*a.TeamIndex]--
			}
		case models.ActionWin:
			finishedAt := a.CreatedAt
			frozen = &Match{
				RoomID:       roomID,
				Sequence:     sequence,
				WinningTeam:  a.TeamIndex,
				StartedAt:    startedAt,
				FinishedAt:   &finishedAt,
				ClaimsByTeam: copyCounts(counts),
			}
			frozen.Status = StatusFinishedLost
			if viewerTeam != nil && a.TeamIndex != nil && *viewerTeam == *a.TeamIndex {
				frozen.Status = StatusFinishedWon
			}
		case models.ActionBoardReset:
			if frozen != nil {
				matches = append(matches, *frozen)
				frozen = nil
				sequence++
			}
			startedAt = a.CreatedAt
			counts = make(map[int]int)
		}
	}

	// Current match from live state
	claims, err := s.repo.ListClaims(ctx, roomID)
	if err != nil {
		return nil, err
	}
	liveCounts := make(map[int]int)
	for _, c := range claims {
		liveCounts[c.TeamIndex]++
	}

	current := Match{
		RoomID:       roomID,
		Sequence:     sequence,
		Status:       ProjectStatus(room, players, activities, viewerTeam, time.Now().UTC()),
		WinningTeam:  room.WinningTeam,
		StartedAt:    startedAt,
		ClaimsByTeam: liveCounts,
	}
	if room.GameFinished {
		// Finish time approximated by the room's last update unless the
		// log has the win event
		finishedAt := room.LastUpdated
		for i := len(activities) - 1; i >= 0; i-- {
			if activities[i].Action == models.ActionWin {
				finishedAt = activities[i].CreatedAt
				break
			}
		}
		current.FinishedAt = &finishedAt
	}
	matches = append(matches, current)

	return matches, nil
}

func copyCounts(counts map[int]int) map[int]int {
	out := make(map[int]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
