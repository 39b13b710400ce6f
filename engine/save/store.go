package save

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// ErrNotFound is returned when a save slot does not exist.
var ErrNotFound = errors.New("save slot not found")

// Slot describes one stored save without its payload.
type Slot struct {
	Name      string
	Game      string
	Adventure string
	Turn      int
	SavedAt   time.Time
}

// Store keeps named save slots in a SQLite database.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// runMigrations applies each embedded migration at most once.
func (s *Store) runMigrations() error {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := s.sqlDB.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(sub, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := s.sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin migration transaction %s: %w", file, err)
		}
		if _, err := tx.Exec(upSQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// extractUpMigration returns the SQL in the -- +migrate Up section.
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// Put stores a session under name, replacing any previous save there.
func (s *Store) Put(ctx context.Context, name string, sd *SaveData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("slot name is required")
	}
	if sd == nil {
		return fmt.Errorf("save data is required")
	}

	payload, err := json.Marshal(sd)
	if err != nil {
		return fmt.Errorf("marshal save data: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO save_slots (name, game, adventure, turn, payload, saved_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    game = excluded.game,
    adventure = excluded.adventure,
    turn = excluded.turn,
    payload = excluded.payload,
    saved_at = excluded.saved_at`,
		name, sd.Game, sd.Adventure, sd.Turn, string(payload), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put save slot %s: %w", name, err)
	}
	return nil
}

// Get loads the session stored under name.
func (s *Store) Get(ctx context.Context, name string) (*SaveData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var payload string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT payload FROM save_slots WHERE name = ?", name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get save slot %s: %w", name, err)
	}
	sd, err := Load([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decode save slot %s: %w", name, err)
	}
	return sd, nil
}

// List returns every slot, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT name, game, adventure, turn, saved_at FROM save_slots ORDER BY saved_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("list save slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var (
			slot    Slot
			savedAt int64
		)
		if err := rows.Scan(&slot.Name, &slot.Game, &slot.Adventure, &slot.Turn, &savedAt); err != nil {
			return nil, fmt.Errorf("scan save slot: %w", err)
		}
		slot.SavedAt = time.UnixMilli(savedAt).UTC()
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list save slots: %w", err)
	}
	return slots, nil
}

// Delete removes a slot. Deleting a missing slot returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM save_slots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete save slot %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete save slot %s: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
