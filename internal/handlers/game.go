package handlers

import (
	"net/http"

	"github.com/lryanle/bingobongo/internal/auth"
)

// handleClaim toggles the caller's team claim on a cell
func (h *Handlers) handleClaim(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req CellRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Game.Claim(r.Context(), identity, roomID, req.CellIndex)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleMark toggles a cell in the caller's personal marks
func (h *Handlers) handleMark(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req CellRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Game.Mark(r.Context(), identity, roomID, req.CellIndex)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleReset resets a room's game state. Owner only.
func (h *Handlers) handleReset(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Game.Reset(r.Context(), identity, roomID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Board reset")
}

// handleRestart schedules a restart countdown. Owner only.
func (h *Handlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req RestartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Game.Restart(r.Context(), identity, roomID, req.Instant); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Restart scheduled")
}

// handleVoteRestart casts the caller's restart vote
func (h *Handlers) handleVoteRestart(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Game.VoteRestart(r.Context(), identity, roomID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
