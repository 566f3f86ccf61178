package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lryanle/bingobongo/internal/auth"
	"github.com/lryanle/bingobongo/internal/handlers"
	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/scheduler"
	"github.com/lryanle/bingobongo/internal/services"
	"github.com/lryanle/bingobongo/internal/testutil"
	"github.com/lryanle/bingobongo/internal/websocket"
)

type apiFixture struct {
	server   *httptest.Server
	sessions *auth.Sessions
}

func setupAPI(t *testing.T) apiFixture {
	t.Helper()

	log := logger.New()
	repo := testutil.NewTestRepository(t)
	sessions := auth.New()
	sched := scheduler.New(log)

	roomService := services.NewRoomService(log, repo, sched, nil)
	gameService := services.NewGameService(log, repo, sched)
	matchService := services.NewMatchService(log, repo)

	hub := websocket.New(log, sessions)
	hub.Start()
	roomService.SetBroadcaster(hub)
	gameService.SetBroadcaster(hub)

	h := handlers.New(roomService, gameService, matchService, sessions, hub, log, "http://test.local")
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	return apiFixture{server: server, sessions: sessions}
}

// do issues one request, optionally authenticated with a session cookie
func (f apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

// register creates a guest session directly against the store
func (f apiFixture) register(name string) string {
	token, _ := f.sessions.Register(name, "")
	return token
}

func roomParams() map[string]interface{} {
	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprintf("Item %03d", i)
	}
	return map[string]interface{}{
		"name":       "API Test Room",
		"seed":       "api-seed",
		"mode":       "classic",
		"grid_class": "5x5",
		"teams": []map[string]string{
			{"name": "Red", "color": "#ff0000"},
			{"name": "Blue", "color": "#0000ff"},
		},
		"items": items,
	}
}

func (f apiFixture) createRoom(t *testing.T, token string) models.Room {
	t.Helper()
	resp, raw := f.do(t, http.MethodPost, "/api/rooms", token, roomParams())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room: status %d: %s", resp.StatusCode, raw)
	}
	var room models.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	return room
}

func TestSessionEndpoints(t *testing.T) {
	f := setupAPI(t)

	// register
	resp, raw := f.do(t, http.MethodPost, "/api/session", "", map[string]string{"display_name": "Alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d: %s", resp.StatusCode, raw)
	}
	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if identity.UserID == "" || identity.DisplayName != "Alice" {
		t.Errorf("identity = %+v", identity)
	}

	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			token = cookie.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie set")
	}

	// resolve
	resp, _ = f.do(t, http.MethodGet, "/api/session", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get session: status %d", resp.StatusCode)
	}

	// revoke
	resp, _ = f.do(t, http.MethodDelete, "/api/session", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("revoke: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, "/api/session", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("get revoked session: status %d", resp.StatusCode)
	}
}

func TestRegisterSession_Validation(t *testing.T) {
	f := setupAPI(t)

	resp, _ := f.do(t, http.MethodPost, "/api/session", "", map[string]string{"display_name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty name: status %d", resp.StatusCode)
	}
}

func TestMutationsRequireSession(t *testing.T) {
	f := setupAPI(t)

	resp, raw := f.do(t, http.MethodPost, "/api/rooms", "", roomParams())
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("sessionless create: status %d", resp.StatusCode)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Code != "UNAUTHORIZED" {
		t.Errorf("error body: %s", raw)
	}
}

func TestRoomLifecycle(t *testing.T) {
	f := setupAPI(t)
	ownerToken := f.register("Owner")
	room := f.createRoom(t, ownerToken)

	// public reads work without a session
	resp, raw := f.do(t, http.MethodGet, "/api/rooms/"+room.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get room: status %d: %s", resp.StatusCode, raw)
	}
	resp, raw = f.do(t, http.MethodGet, "/api/rooms", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("list rooms: status %d", resp.StatusCode)
	}
	var rooms []models.Room
	if err := json.Unmarshal(raw, &rooms); err != nil || len(rooms) != 1 {
		t.Errorf("room list: %s", raw)
	}

	resp, raw = f.do(t, http.MethodGet, "/api/rooms/"+room.ID+"/board", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("board: status %d", resp.StatusCode)
	}
	var board []services.BoardCell
	if err := json.Unmarshal(raw, &board); err != nil || len(board) != 25 {
		t.Errorf("board: %d cells, err %v", len(board), err)
	}

	// only the owner deletes
	otherToken := f.register("Other")
	resp, _ = f.do(t, http.MethodDelete, "/api/rooms/"+room.ID, otherToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-owner delete: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodDelete, "/api/rooms/"+room.ID, ownerToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("owner delete: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, "/api/rooms/"+room.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted room: status %d", resp.StatusCode)
	}
}

func TestCreateRoom_ValidationStatus(t *testing.T) {
	f := setupAPI(t)
	token := f.register("Owner")

	params := roomParams()
	params["grid_class"] = "6x6"
	resp, raw := f.do(t, http.MethodPost, "/api/rooms", token, params)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.StatusCode, raw)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("error body: %s", raw)
	}
}

func TestPlayThroughAPI(t *testing.T) {
	f := setupAPI(t)
	ownerToken := f.register("Owner")
	room := f.createRoom(t, ownerToken)

	aliceToken := f.register("Alice")

	// joining a classic room without a team conflicts
	resp, _ := f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", aliceToken, map[string]interface{}{})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("teamless join: status %d", resp.StatusCode)
	}

	resp, raw := f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", aliceToken, map[string]interface{}{"team_index": 0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d: %s", resp.StatusCode, raw)
	}

	// claim a full row through the API; the last toggle reports the win
	var result services.ClaimResult
	for cell := 0; cell < 5; cell++ {
		resp, raw = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/claim", aliceToken, map[string]int{"cell_index": cell})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("claim %d: status %d: %s", cell, resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("decode claim result: %v", err)
		}
	}
	if !result.Won {
		t.Error("completing a row did not report a win")
	}

	// the board is locked now
	resp, _ = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/claim", aliceToken, map[string]int{"cell_index": 20})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("claim on finished game: status %d", resp.StatusCode)
	}

	// match history shows the finished match from the winner's side
	resp, raw = f.do(t, http.MethodGet, "/api/rooms/"+room.ID+"/matches", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("matches: status %d", resp.StatusCode)
	}
	var matches []services.Match
	if err := json.Unmarshal(raw, &matches); err != nil || len(matches) != 1 {
		t.Fatalf("matches: %s", raw)
	}
	if matches[0].Status != services.StatusFinishedWon {
		t.Errorf("match status: %v", matches[0].Status)
	}

	// the activity log recorded the play
	resp, raw = f.do(t, http.MethodGet, "/api/rooms/"+room.ID+"/activities", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activities: status %d", resp.StatusCode)
	}
	var activities []models.Activity
	if err := json.Unmarshal(raw, &activities); err != nil {
		t.Fatalf("decode activities: %v", err)
	}
	sawWin := false
	for _, a := range activities {
		if a.Action == models.ActionWin {
			sawWin = true
		}
	}
	if !sawWin {
		t.Error("win not in activity log")
	}

	// owner resets and play resumes
	resp, _ = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/reset", ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("reset: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/claim", aliceToken, map[string]int{"cell_index": 20})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("claim after reset: status %d", resp.StatusCode)
	}
}

func TestVoteRestartAPI(t *testing.T) {
	f := setupAPI(t)
	ownerToken := f.register("Owner")
	room := f.createRoom(t, ownerToken)

	aliceToken := f.register("Alice")
	resp, _ := f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", aliceToken, map[string]interface{}{"team_index": 0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d", resp.StatusCode)
	}

	// voting before the game is finished conflicts
	resp, _ = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/restart/vote", aliceToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("premature vote: status %d", resp.StatusCode)
	}

	for cell := 0; cell < 5; cell++ {
		resp, raw := f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/claim", aliceToken, map[string]int{"cell_index": cell})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("claim: status %d: %s", resp.StatusCode, raw)
		}
	}

	resp, raw := f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/restart/vote", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: status %d: %s", resp.StatusCode, raw)
	}
	var result services.VoteResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode vote result: %v", err)
	}
	// alice is the only player, so her vote is the majority
	if result.Votes != 1 || result.Needed != 1 || !result.Scheduled {
		t.Errorf("vote result: %+v", result)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/restart/vote", aliceToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate vote: status %d", resp.StatusCode)
	}
}

func TestRoomQR(t *testing.T) {
	f := setupAPI(t)
	token := f.register("Owner")
	room := f.createRoom(t, token)

	resp, raw := f.do(t, http.MethodGet, "/api/rooms/"+room.ID+"/qr", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qr: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if len(raw) == 0 {
		t.Error("empty png")
	}

	resp, _ = f.do(t, http.MethodGet, "/api/rooms/missing/qr", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("qr for missing room: status %d", resp.StatusCode)
	}
}

func TestUpdateItemsAPI(t *testing.T) {
	f := setupAPI(t)
	ownerToken := f.register("Owner")
	room := f.createRoom(t, ownerToken)

	items := make([]string, 40)
	for i := range items {
		items[i] = fmt.Sprintf("New %03d", i)
	}
	resp, raw := f.do(t, http.MethodPut, "/api/rooms/"+room.ID+"/items", ownerToken, map[string]interface{}{"items": items})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update items: status %d: %s", resp.StatusCode, raw)
	}

	otherToken := f.register("Other")
	resp, _ = f.do(t, http.MethodPut, "/api/rooms/"+room.ID+"/items", otherToken, map[string]interface{}{"items": items})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-owner update: status %d", resp.StatusCode)
	}
}
