package services

import "github.com/lryanle/bingobongo/internal/errors"

// Domain errors shared across services
var (
	ErrRoomNotFound    = errors.NotFound("room not found")
	ErrPlayerNotFound  = errors.NotFound("player is not in this room")
	ErrCellNotFound    = errors.NotFound("cell does not exist on this board")
	ErrNotOwner        = errors.Forbidden("only the room owner can do that")
	ErrGameFinished    = errors.Conflict("game is already finished")
	ErrGameNotFinished = errors.Conflict("game is not finished yet")
	ErrAlreadyVoted    = errors.Conflict("you have already voted to restart")
	ErrTeamRequired    = errors.Conflict("pick a team before playing")
	ErrNeverJoined     = errors.NotFound("user never joined this room")
)
