package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lryanle/bingobongo/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// A single connection keeps every toggle transaction serialized,
	// which is what makes the read-modify-write in ToggleClaim and
	// ToggleMark atomic. SQLite works best this way anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an existing database handle (used by error-path tests)
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed TEXT NOT NULL,
			mode_tag TEXT NOT NULL,
			grid_size INTEGER NOT NULL,
			owner_id TEXT NOT NULL,
			teams TEXT NOT NULL,
			items TEXT NOT NULL,
			game_finished INTEGER NOT NULL DEFAULT 0,
			winning_team INTEGER,
			restart_at DATETIME,
			created_at DATETIME NOT NULL,
			last_updated DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			team_index INTEGER,
			joined_at DATETIME NOT NULL,
			last_active DATETIME NOT NULL,
			PRIMARY KEY (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			room_id TEXT NOT NULL,
			cell_index INTEGER NOT NULL,
			team_index INTEGER NOT NULL,
			claimed_by TEXT NOT NULL,
			claimed_at DATETIME NOT NULL,
			UNIQUE (room_id, cell_index, team_index),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS marks (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			cell_index INTEGER NOT NULL,
			marked_at DATETIME NOT NULL,
			UNIQUE (room_id, user_id, cell_index),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS restart_votes (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			action TEXT NOT NULL,
			item_title TEXT NOT NULL DEFAULT '',
			cell_index INTEGER,
			team_index INTEGER,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_room ON claims(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_room_user ON marks(room_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_players_room ON players(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_room_time ON activities(room_id, created_at, id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// ==================== Room Methods ====================

// CreateRoom inserts a new room with its immutable config
func (r *Repository) CreateRoom(ctx context.Context, room *models.Room) error {
	teams, err := json.Marshal(room.Teams)
	if err != nil {
		return err
	}
	items, err := json.Marshal(room.Items)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, seed, mode_tag, grid_size, owner_id, teams, items,
			game_finished, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, room.ID, room.Name, room.Seed, room.Mode.Tag, room.GridSize, room.OwnerID,
		string(teams), string(items), room.CreatedAt, room.LastUpdated)
	return err
}

// GetRoom retrieves a room by id
func (r *Repository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, seed, mode_tag, grid_size, owner_id, teams, items,
			game_finished, winning_team, restart_at, created_at, last_updated
		FROM rooms WHERE id = ?
	`, id)
	return scanRoom(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	var modeTag, teams, items string
	var winningTeam sql.NullInt64
	var restartAt sql.NullTime

	err := row.Scan(&room.ID, &room.Name, &room.Seed, &modeTag, &room.GridSize,
		&room.OwnerID, &teams, &items, &room.GameFinished, &winningTeam,
		&restartAt, &room.CreatedAt, &room.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	room.Mode = models.ResolveGameMode(modeTag)
	if err := json.Unmarshal([]byte(teams), &room.Teams); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &room.Items); err != nil {
		return nil, err
	}
	if winningTeam.Valid {
		team := int(winningTeam.Int64)
		room.WinningTeam = &team
	}
	if restartAt.Valid {
		at := restartAt.Time
		room.RestartAt = &at
	}
	return &room, nil
}

// ListRooms returns all rooms, most recently updated first
func (r *Repository) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, seed, mode_tag, grid_size, owner_id, teams, items,
			game_finished, winning_team, restart_at, created_at, last_updated
		FROM rooms ORDER BY last_updated DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room and everything hanging off it
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"claims", "marks", "restart_votes", "players", "activities"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE room_id = ?`, id); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// SetRoomItems replaces a room's item pool. The seed is untouched, so
// every reader regenerates the same board from the new pool.
func (r *Repository) SetRoomItems(ctx context.Context, id string, items []string) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET items = ?, last_updated = ? WHERE id = ?
	`, string(encoded), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishRoom marks a room finished with the winning team, in one
// conditional update. Returns true only for the caller that actually
// flipped the flag, so a racing second winner never fires a second
// win event. game_finished and winning_team always move together.
func (r *Repository) FinishRoom(ctx context.Context, id string, winningTeam int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET game_finished = 1, winning_team = ?, last_updated = ?
		WHERE id = ? AND game_finished = 0
	`, winningTeam, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ClearGameState resets a room back to a fresh board: claims, marks,
// restart votes, finished flag, winner and pending restart all go;
// the room config stays.
func (r *Repository) ClearGameState(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"claims", "marks", "restart_votes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE room_id = ?`, id); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE rooms SET game_finished = 0, winning_team = NULL, restart_at = NULL, last_updated = ?
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ScheduleRestart records a pending restart time, but only when none is
// pending already. Returns false when a countdown was already scheduled.
func (r *Repository) ScheduleRestart(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET restart_at = ?, last_updated = ?
		WHERE id = ? AND restart_at IS NULL
	`, at, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ==================== Player Methods ====================

// UpsertPlayer creates a player record, or refreshes team/activity on
// rejoin. At most one record ever exists per (room, user).
func (r *Repository) UpsertPlayer(ctx context.Context, player *models.Player) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (room_id, user_id, display_name, team_index, joined_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (room_id, user_id) DO UPDATE SET
			display_name = excluded.display_name,
			team_index = excluded.team_index,
			last_active = excluded.last_active
	`, player.RoomID, player.UserID, player.DisplayName, player.TeamIndex,
		player.JoinedAt, player.LastActive)
	return err
}

// GetPlayer retrieves one player record
func (r *Repository) GetPlayer(ctx context.Context, roomID, userID string) (*models.Player, error) {
	var player models.Player
	var teamIndex sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT room_id, user_id, display_name, team_index, joined_at, last_active
		FROM players WHERE room_id = ? AND user_id = ?
	`, roomID, userID).Scan(&player.RoomID, &player.UserID, &player.DisplayName,
		&teamIndex, &player.JoinedAt, &player.LastActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if teamIndex.Valid {
		team := int(teamIndex.Int64)
		player.TeamIndex = &team
	}
	return &player, nil
}

// ListPlayers returns all players in a room, oldest join first
func (r *Repository) ListPlayers(ctx context.Context, roomID string) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id, user_id, display_name, team_index, joined_at, last_active
		FROM players WHERE room_id = ? ORDER BY joined_at, user_id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var player models.Player
		var teamIndex sql.NullInt64
		if err := rows.Scan(&player.RoomID, &player.UserID, &player.DisplayName,
			&teamIndex, &player.JoinedAt, &player.LastActive); err != nil {
			return nil, err
		}
		if teamIndex.Valid {
			team := int(teamIndex.Int64)
			player.TeamIndex = &team
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

// SetPlayerTeam moves a player to another team
func (r *Repository) SetPlayerTeam(ctx context.Context, roomID, userID string, teamIndex int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET team_index = ?, last_active = ? WHERE room_id = ? AND user_id = ?
	`, teamIndex, time.Now().UTC(), roomID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchPlayer refreshes a player's last-active timestamp
func (r *Repository) TouchPlayer(ctx context.Context, roomID, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET last_active = ? WHERE room_id = ? AND user_id = ?
	`, at, roomID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePlayer removes a player and their personal marks
func (r *Repository) DeletePlayer(ctx context.Context, roomID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM marks WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM players WHERE room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ==================== Claim / Mark Methods ====================

// ToggleClaim atomically toggles a team's claim on a cell and reports
// whether this call added it. The delete-then-insert runs in a single
// transaction on the single writer connection, and "added" comes from
// the statement results rather than a pre-read, so concurrent toggles
// on the same cell can never lose an update or double-report an add.
func (r *Repository) ToggleClaim(ctx context.Context, roomID string, cellIndex, teamIndex int, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM claims WHERE room_id = ? AND cell_index = ? AND team_index = ?
	`, roomID, cellIndex, teamIndex)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	added := false
	if removed == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO claims (room_id, cell_index, team_index, claimed_by, claimed_at)
			VALUES (?, ?, ?, ?, ?)
		`, roomID, cellIndex, teamIndex, userID, time.Now().UTC())
		if err != nil {
			return false, err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		added = inserted > 0
	}

	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET last_updated = ? WHERE id = ?`, time.Now().UTC(), roomID); err != nil {
		return false, err
	}

	return added, tx.Commit()
}

// ListClaims returns all claims in a room
func (r *Repository) ListClaims(ctx context.Context, roomID string) ([]models.Claim, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cell_index, team_index, claimed_by, claimed_at
		FROM claims WHERE room_id = ? ORDER BY claimed_at, cell_index
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var claim models.Claim
		if err := rows.Scan(&claim.CellIndex, &claim.TeamIndex, &claim.ClaimedBy, &claim.ClaimedAt); err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// ToggleMark atomically toggles a cell in one player's personal marks.
// Same protocol as ToggleClaim.
func (r *Repository) ToggleMark(ctx context.Context, roomID, userID string, cellIndex int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM marks WHERE room_id = ? AND user_id = ? AND cell_index = ?
	`, roomID, userID, cellIndex)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	added := false
	if removed == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO marks (room_id, user_id, cell_index, marked_at)
			VALUES (?, ?, ?, ?)
		`, roomID, userID, cellIndex, time.Now().UTC())
		if err != nil {
			return false, err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		added = inserted > 0
	}

	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET last_updated = ? WHERE id = ?`, time.Now().UTC(), roomID); err != nil {
		return false, err
	}

	return added, tx.Commit()
}

// ListMarks returns one player's marked cell indices in mark order
func (r *Repository) ListMarks(ctx context.Context, roomID, userID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cell_index FROM marks WHERE room_id = ? AND user_id = ? ORDER BY marked_at, cell_index
	`, roomID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []int
	for rows.Next() {
		var cell int
		if err := rows.Scan(&cell); err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// ==================== Vote Methods ====================

// AddRestartVote records a user's restart vote. Returns false when the
// user already voted; the unique index makes the duplicate check atomic.
func (r *Repository) AddRestartVote(ctx context.Context, roomID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO restart_votes (room_id, user_id, created_at) VALUES (?, ?, ?)
	`, roomID, userID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CountRestartVotes returns the number of restart votes in a room
func (r *Repository) CountRestartVotes(ctx context.Context, roomID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM restart_votes WHERE room_id = ?
	`, roomID).Scan(&count)
	return count, err
}

// ==================== Activity Methods ====================

// AppendActivity writes one event record. Activities are immutable;
// there is no update path.
func (r *Repository) AppendActivity(ctx context.Context, activity *models.Activity) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (room_id, user_id, user_name, action, item_title, cell_index, team_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, activity.RoomID, activity.UserID, activity.UserName, activity.Action,
		activity.ItemTitle, activity.CellIndex, activity.TeamIndex, activity.CreatedAt)
	if err != nil {
		return err
	}
	activity.ID, err = res.LastInsertId()
	return err
}

// ListActivities returns a room's activities ordered by time, with the
// row id as stable tie-break for same-instant events. limit <= 0 means
// no limit.
func (r *Repository) ListActivities(ctx context.Context, roomID string, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, room_id, user_id, user_name, action, item_title, cell_index, team_index, created_at
		FROM activities WHERE room_id = ? ORDER BY created_at, id
	`
	args := []interface{}{roomID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var cellIndex, teamIndex sql.NullInt64
		if err := rows.Scan(&a.ID, &a.RoomID, &a.UserID, &a.UserName, &a.Action,
			&a.ItemTitle, &cellIndex, &teamIndex, &a.CreatedAt); err != nil {
			return nil, err
		}
		if cellIndex.Valid {
			cell := int(cellIndex.Int64)
			a.CellIndex = &cell
		}
		if teamIndex.Valid {
			team := int(teamIndex.Int64)
			a.TeamIndex = &team
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
