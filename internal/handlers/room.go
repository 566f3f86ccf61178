package handlers

import (
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/lryanle/bingobongo/internal/auth"
	"github.com/lryanle/bingobongo/internal/services"
)

// handleCreateRoom creates a new room owned by the caller
func (h *Handlers) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var params services.CreateRoomParams
	if err := decodeJSON(r, &params); err != nil {
		respondError(w, err)
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), identity, params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, room)
}

// handleListRooms returns all rooms
func (h *Handlers) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.ListRooms(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rooms)
}

// handleGetRoom returns one room
func (h *Handlers) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	room, err := h.Rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, room)
}

// handleDeleteRoom deletes a room. Owner only.
func (h *Handlers) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rooms.DeleteRoom(r.Context(), identity, roomID); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleGetBoard returns the board with the live claim overlay; the
// caller's own marks are included when a session is present
func (h *Handlers) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	viewerID := ""
	if identity, ok := h.Sessions.FromRequest(r); ok {
		viewerID = identity.UserID
	}

	board, err := h.Rooms.Board(r.Context(), roomID, viewerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, board)
}

// handleListPlayers returns a room's players
func (h *Handlers) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	players, err := h.Rooms.ListPlayers(r.Context(), roomID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, players)
}

// handleListActivities returns a room's activity log
func (h *Handlers) handleListActivities(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	activities, err := h.Rooms.ListActivities(r.Context(), roomID, queryInt(r, "limit", 0))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, activities)
}

// handleListMatches returns the logical matches played in a room
func (h *Handlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	viewerID := ""
	if identity, ok := h.Sessions.FromRequest(r); ok {
		viewerID = identity.UserID
	}

	matches, err := h.Matches.ListMatches(r.Context(), roomID, viewerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, matches)
}

// handleRoomQR renders an invite QR code pointing at the room
func (h *Handlers) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.Rooms.GetRoom(r.Context(), roomID); err != nil {
		respondError(w, err)
		return
	}

	inviteURL := fmt.Sprintf("%s/rooms/%s", h.baseURL, roomID)
	png, err := qrcode.Encode(inviteURL, qrcode.Medium, 256)
	if err != nil {
		respondError(w, InternalError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleUpdateItems replaces a room's item pool. Owner only.
func (h *Handlers) handleUpdateItems(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpdateItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rooms.UpdateItems(r.Context(), identity, roomID, req.Items); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Items updated")
}

// handleJoin adds the caller to a room
func (h *Handlers) handleJoin(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req JoinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	player, err := h.Rooms.Join(r.Context(), identity, roomID, req.TeamIndex)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, player)
}

// handleLeave removes the caller from a room
func (h *Handlers) handleLeave(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rooms.Leave(r.Context(), identity, roomID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Left room")
}

// handleKick removes another player. Owner only.
func (h *Handlers) handleKick(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req KickRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.UserID == "" {
		respondError(w, BadRequest("Missing user_id"))
		return
	}

	if err := h.Rooms.Kick(r.Context(), identity, roomID, req.UserID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Player kicked")
}

// handleSwitchTeam moves the caller to another team
func (h *Handlers) handleSwitchTeam(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	roomID, err := roomIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req SwitchTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Rooms.SwitchTeam(r.Context(), identity, roomID, req.TeamIndex); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Team changed")
}
