package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/services"
)

func activeRoom() *models.Room {
	return &models.Room{ID: "room-1", CreatedAt: time.Now().UTC()}
}

func activePlayers(now time.Time, teams ...*int) []models.Player {
	players := make([]models.Player, len(teams))
	for i, team := range teams {
		players[i] = models.Player{
			RoomID: "room-1", UserID: string(rune('a' + i)),
			TeamIndex: team, LastActive: now,
		}
	}
	return players
}

func TestProjectStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("no players means not started", func(t *testing.T) {
		status := services.ProjectStatus(activeRoom(), nil, nil, nil, now)
		if status != services.StatusNotStarted {
			t.Errorf("got %v", status)
		}
	})

	t.Run("active players mean in progress", func(t *testing.T) {
		status := services.ProjectStatus(activeRoom(), activePlayers(now, intPtr(0)), nil, nil, now)
		if status != services.StatusInProgress {
			t.Errorf("got %v", status)
		}
	})

	t.Run("finished game framed by viewer team", func(t *testing.T) {
		room := activeRoom()
		room.GameFinished = true
		room.WinningTeam = intPtr(1)
		players := activePlayers(now, intPtr(0), intPtr(1))

		if got := services.ProjectStatus(room, players, nil, intPtr(1), now); got != services.StatusFinishedWon {
			t.Errorf("winner's view: got %v", got)
		}
		if got := services.ProjectStatus(room, players, nil, intPtr(0), now); got != services.StatusFinishedLost {
			t.Errorf("loser's view: got %v", got)
		}
		if got := services.ProjectStatus(room, players, nil, nil, now); got != services.StatusFinishedLost {
			t.Errorf("spectator's view: got %v", got)
		}
	})

	t.Run("all players idle past the cutoff means cancelled", func(t *testing.T) {
		room := activeRoom()
		room.GameFinished = true
		room.WinningTeam = intPtr(0)
		idle := activePlayers(now.Add(-2*time.Hour), intPtr(0), intPtr(1))

		// cancellation outranks the finished state
		if got := services.ProjectStatus(room, idle, nil, intPtr(0), now); got != services.StatusCancelled {
			t.Errorf("got %v", got)
		}
	})

	t.Run("one active player keeps the match alive", func(t *testing.T) {
		players := activePlayers(now.Add(-2*time.Hour), intPtr(0), intPtr(1))
		players[1].LastActive = now
		if got := services.ProjectStatus(activeRoom(), players, nil, nil, now); got != services.StatusInProgress {
			t.Errorf("got %v", got)
		}
	})

	t.Run("win in the log counts until a reset supersedes it", func(t *testing.T) {
		players := activePlayers(now, intPtr(0))
		won := []models.Activity{
			{Action: models.ActionWin, TeamIndex: intPtr(0)},
		}
		if got := services.ProjectStatus(activeRoom(), players, won, intPtr(0), now); got != services.StatusFinishedWon {
			t.Errorf("log-only win: got %v", got)
		}

		reset := append(won, models.Activity{Action: models.ActionBoardReset})
		if got := services.ProjectStatus(activeRoom(), players, reset, intPtr(0), now); got != services.StatusInProgress {
			t.Errorf("win after reset: got %v", got)
		}
	})
}

func TestListMatches_SingleLiveMatch(t *testing.T) {
	f := setupGameService(t)
	matches := services.NewMatchService(logger.New(), f.repo)
	room := newClassicRoom(t, f)
	ctx := context.Background()

	if _, err := f.game.Claim(ctx, alice, room.ID, 3); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if _, err := f.game.Claim(ctx, bob, room.ID, 8); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	list, err := matches.ListMatches(ctx, room.ID, alice.UserID)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 match, got %d", len(list))
	}
	m := list[0]
	if m.Sequence != 0 || m.Status != services.StatusInProgress {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.ClaimsByTeam[0] != 1 || m.ClaimsByTeam[1] != 1 {
		t.Errorf("claim counts: %v", m.ClaimsByTeam)
	}
	if m.FinishedAt != nil {
		t.Error("live match has a finish time")
	}
}

func TestListMatches_WinThenResetYieldsTwoMatches(t *testing.T) {
	f := setupGameService(t)
	matches := services.NewMatchService(logger.New(), f.repo)
	room := newClassicRoom(t, f)
	ctx := context.Background()

	// first match: bob takes a cell, alice wins a row, owner resets
	if _, err := f.game.Claim(ctx, bob, room.ID, 10); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	winRow(t, f, room.ID, 0)
	if err := f.game.Reset(ctx, owner, room.ID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	// second match under way
	if _, err := f.game.Claim(ctx, bob, room.ID, 12); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	list, err := matches.ListMatches(ctx, room.ID, alice.UserID)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}

	first, current := list[0], list[1]
	if first.Sequence != 0 || current.Sequence != 1 {
		t.Errorf("sequences: %d, %d", first.Sequence, current.Sequence)
	}
	if first.Status != services.StatusFinishedWon {
		t.Errorf("first match status from winner's view: %v", first.Status)
	}
	if first.WinningTeam == nil || *first.WinningTeam != 0 {
		t.Errorf("first match winner: %v", first.WinningTeam)
	}
	if first.FinishedAt == nil {
		t.Error("finished match has no finish time")
	}
	if first.ClaimsByTeam[0] != 5 || first.ClaimsByTeam[1] != 1 {
		t.Errorf("first match claim counts: %v", first.ClaimsByTeam)
	}

	if current.Status != services.StatusInProgress {
		t.Errorf("current match status: %v", current.Status)
	}
	if current.ClaimsByTeam[1] != 1 || current.ClaimsByTeam[0] != 0 {
		t.Errorf("current match claim counts: %v", current.ClaimsByTeam)
	}

	// bob lost the first match
	bobView, err := matches.ListMatches(ctx, room.ID, bob.UserID)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if bobView[0].Status != services.StatusFinishedLost {
		t.Errorf("first match status from loser's view: %v", bobView[0].Status)
	}
}

func TestListMatches_FinishedCurrentMatch(t *testing.T) {
	f := setupGameService(t)
	matches := services.NewMatchService(logger.New(), f.repo)
	room := newClassicRoom(t, f)
	ctx := context.Background()

	winRow(t, f, room.ID, 2)

	list, err := matches.ListMatches(ctx, room.ID, alice.UserID)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 match, got %d", len(list))
	}
	if list[0].Status != services.StatusFinishedWon {
		t.Errorf("status: %v", list[0].Status)
	}
	if list[0].FinishedAt == nil {
		t.Error("no finish time on finished match")
	}
}

func TestListMatches_UnclaimedReducesCount(t *testing.T) {
	f := setupGameService(t)
	matches := services.NewMatchService(logger.New(), f.repo)
	room := newClassicRoom(t, f)
	ctx := context.Background()

	if _, err := f.game.Claim(ctx, alice, room.ID, 3); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if _, err := f.game.Claim(ctx, alice, room.ID, 3); err != nil {
		t.Fatalf("unclaim failed: %v", err)
	}
	winRow(t, f, room.ID, 1)
	if err := f.game.Reset(ctx, owner, room.ID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	list, err := matches.ListMatches(ctx, room.ID, alice.UserID)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if list[0].ClaimsByTeam[0] != 5 {
		t.Errorf("frozen count ignores the unclaim: %v", list[0].ClaimsByTeam)
	}
}

func TestListMatches_RoomNotFound(t *testing.T) {
	f := setupGameService(t)
	matches := services.NewMatchService(logger.New(), f.repo)

	if _, err := matches.ListMatches(context.Background(), "missing", ""); err != services.ErrRoomNotFound {
		t.Errorf("got %v", err)
	}
}
