/*
Package sqlite provides a SQLite-backed implementation of board.DocumentStore.

PURPOSE:
  Persists the board aggregate in normalized tables while preserving the
  read-whole/write-whole contract: Load assembles the full document, Save
  rewrites every table inside one transaction.

OPTIMISTIC CONCURRENCY:
  A single-row board_revision table carries the document version. Save
  bumps it with a guarded UPDATE (WHERE rev = expected); zero rows affected
  means another writer landed first and the caller gets
  engine.ErrConcurrentModification. This closes the lost-update window of a
  naive overwrite-the-blob design.

KEY TABLES:
  board_revision: Single row holding the CAS version stamp
  kids, chores, completions, rewards, redemptions: One row per entity

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/board.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := board.NewService(store, clock)

SEE ALSO:
  - board/store.go: Interface definition
  - board/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starboard/chore-engine/board"
	"github.com/starboard/chore-engine/engine"
)

// Store implements board.DocumentStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Document version stamp for optimistic concurrency
	CREATE TABLE IF NOT EXISTS board_revision (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		rev INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO board_revision (id, rev) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS kids (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chores (
		id TEXT PRIMARY KEY,
		kid_ids_json TEXT NOT NULL,
		title TEXT NOT NULL,
		emoji TEXT,
		stars TEXT NOT NULL,
		chore_type TEXT NOT NULL,
		cadence TEXT,
		days_of_week_json TEXT,
		paused_until TEXT,
		scheduled_for TEXT,
		time_of_day TEXT,
		requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		chore_id TEXT NOT NULL,
		kid_id TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		stars_awarded TEXT NOT NULL,
		pending_approval BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_completions_chore_kid
		ON completions(chore_id, kid_id);
	CREATE INDEX IF NOT EXISTS idx_completions_kid
		ON completions(kid_id);

	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		kid_ids_json TEXT NOT NULL,
		title TEXT NOT NULL,
		emoji TEXT,
		cost TEXT NOT NULL,
		reward_type TEXT NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS redemptions (
		id TEXT PRIMARY KEY,
		reward_id TEXT NOT NULL,
		kid_id TEXT NOT NULL,
		redeemed_at TEXT NOT NULL,
		cost TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_redemptions_reward_kid
		ON redemptions(reward_id, kid_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENT STORE (board.DocumentStore interface)
// =============================================================================

// Load assembles the full document from all tables.
func (s *Store) Load(ctx context.Context) (*engine.Document, board.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rev board.Revision
	if err := s.db.QueryRowContext(ctx, "SELECT rev FROM board_revision WHERE id = 1").Scan(&rev); err != nil {
		return nil, 0, fmt.Errorf("failed to read revision: %w", err)
	}

	doc := &engine.Document{}
	var err error
	if doc.Kids, err = s.loadKids(ctx); err != nil {
		return nil, 0, err
	}
	if doc.Chores, err = s.loadChores(ctx); err != nil {
		return nil, 0, err
	}
	if doc.Completions, err = s.loadCompletions(ctx); err != nil {
		return nil, 0, err
	}
	if doc.Rewards, err = s.loadRewards(ctx); err != nil {
		return nil, 0, err
	}
	if doc.Redemptions, err = s.loadRedemptions(ctx); err != nil {
		return nil, 0, err
	}

	return doc, rev, nil
}

// Save rewrites the whole document atomically, guarded by the revision check.
func (s *Store) Save(ctx context.Context, doc *engine.Document, expected board.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE board_revision SET rev = rev + 1 WHERE id = 1 AND rev = ?", expected)
	if err != nil {
		return fmt.Errorf("failed to bump revision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrConcurrentModification
	}

	for _, table := range []string{"kids", "chores", "completions", "rewards", "redemptions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertKids(ctx, tx, doc.Kids); err != nil {
		return err
	}
	if err := insertChores(ctx, tx, doc.Chores); err != nil {
		return err
	}
	if err := insertCompletions(ctx, tx, doc.Completions); err != nil {
		return err
	}
	if err := insertRewards(ctx, tx, doc.Rewards); err != nil {
		return err
	}
	if err := insertRedemptions(ctx, tx, doc.Redemptions); err != nil {
		return err
	}

	return tx.Commit()
}

// =============================================================================
// LOADERS
// =============================================================================

func (s *Store) loadKids(ctx context.Context) ([]engine.Kid, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color, created_at FROM kids ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query kids: %w", err)
	}
	defer rows.Close()

	var kids []engine.Kid
	for rows.Next() {
		var k engine.Kid
		var createdAt string
		if err := rows.Scan(&k.ID, &k.Name, &k.Color, &createdAt); err != nil {
			return nil, err
		}
		k.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		kids = append(kids, k)
	}
	return kids, rows.Err()
}

func (s *Store) loadChores(ctx context.Context) ([]engine.Chore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kid_ids_json, title, emoji, stars, chore_type, cadence,
		       days_of_week_json, paused_until, scheduled_for, time_of_day,
		       requires_approval, created_at, completed_at
		FROM chores
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chores: %w", err)
	}
	defer rows.Close()

	var chores []engine.Chore
	for rows.Next() {
		var (
			c           engine.Chore
			kidIDsJSON  string
			emoji       sql.NullString
			stars       string
			cadence     sql.NullString
			daysJSON    sql.NullString
			pausedUntil sql.NullString
			scheduled   sql.NullString
			timeOfDay   sql.NullString
			createdAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&c.ID, &kidIDsJSON, &c.Title, &emoji, &stars, &c.Type,
			&cadence, &daysJSON, &pausedUntil, &scheduled, &timeOfDay,
			&c.RequiresApproval, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chore: %w", err)
		}

		json.Unmarshal([]byte(kidIDsJSON), &c.KidIDs)
		c.Emoji = emoji.String
		c.Stars = engine.MustParseStars(stars)
		c.TimeOfDay = engine.TimeOfDay(timeOfDay.String)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		if cadence.Valid && cadence.String != "" {
			sched := &engine.Schedule{Cadence: engine.Cadence(cadence.String)}
			if daysJSON.Valid && daysJSON.String != "" {
				var days []int
				json.Unmarshal([]byte(daysJSON.String), &days)
				for _, d := range days {
					sched.DaysOfWeek = append(sched.DaysOfWeek, time.Weekday(d))
				}
			}
			c.Schedule = sched
		}
		if pausedUntil.Valid && pausedUntil.String != "" {
			day := engine.CivilDay(pausedUntil.String)
			c.PausedUntil = &day
		}
		if scheduled.Valid && scheduled.String != "" {
			day := engine.CivilDay(scheduled.String)
			c.ScheduledFor = &day
		}
		if completedAt.Valid && completedAt.String != "" {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			c.CompletedAt = &t
		}

		chores = append(chores, c)
	}
	return chores, rows.Err()
}

func (s *Store) loadCompletions(ctx context.Context) ([]engine.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chore_id, kid_id, completed_at, stars_awarded, pending_approval
		FROM completions
		ORDER BY completed_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var completions []engine.Completion
	for rows.Next() {
		var c engine.Completion
		var completedAt, stars string
		if err := rows.Scan(&c.ID, &c.ChoreID, &c.KidID, &completedAt, &stars, &c.PendingApproval); err != nil {
			return nil, err
		}
		c.Timestamp, _ = time.Parse(time.RFC3339, completedAt)
		c.StarsAwarded = engine.MustParseStars(stars)
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func (s *Store) loadRewards(ctx context.Context) ([]engine.Reward, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kid_ids_json, title, emoji, cost, reward_type, archived, created_at
		FROM rewards
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var rewards []engine.Reward
	for rows.Next() {
		var r engine.Reward
		var kidIDsJSON, cost, createdAt string
		var emoji sql.NullString
		if err := rows.Scan(&r.ID, &kidIDsJSON, &r.Title, &emoji, &cost, &r.Type, &r.Archived, &createdAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(kidIDsJSON), &r.KidIDs)
		r.Emoji = emoji.String
		r.Cost = engine.MustParseStars(cost)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

func (s *Store) loadRedemptions(ctx context.Context) ([]engine.RewardRedemption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reward_id, kid_id, redeemed_at, cost
		FROM redemptions
		ORDER BY redeemed_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []engine.RewardRedemption
	for rows.Next() {
		var r engine.RewardRedemption
		var redeemedAt, cost string
		if err := rows.Scan(&r.ID, &r.RewardID, &r.KidID, &redeemedAt, &cost); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, redeemedAt)
		r.Cost = engine.MustParseStars(cost)
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}

// =============================================================================
// WRITERS
// =============================================================================

func insertKids(ctx context.Context, tx *sql.Tx, kids []engine.Kid) error {
	for _, k := range kids {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO kids (id, name, color, created_at) VALUES (?, ?, ?, ?)",
			k.ID, k.Name, k.Color, k.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert kid %s: %w", k.ID, err)
		}
	}
	return nil
}

func insertChores(ctx context.Context, tx *sql.Tx, chores []engine.Chore) error {
	for _, c := range chores {
		kidIDsJSON, _ := json.Marshal(c.KidIDs)

		var cadence, daysJSON, pausedUntil, scheduledFor, completedAt any
		if c.Schedule != nil {
			cadence = string(c.Schedule.Cadence)
			days := make([]int, len(c.Schedule.DaysOfWeek))
			for i, d := range c.Schedule.DaysOfWeek {
				days[i] = int(d)
			}
			b, _ := json.Marshal(days)
			daysJSON = string(b)
		}
		if c.PausedUntil != nil {
			pausedUntil = c.PausedUntil.String()
		}
		if c.ScheduledFor != nil {
			scheduledFor = c.ScheduledFor.String()
		}
		if c.CompletedAt != nil {
			completedAt = c.CompletedAt.UTC().Format(time.RFC3339)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO chores
			(id, kid_ids_json, title, emoji, stars, chore_type, cadence,
			 days_of_week_json, paused_until, scheduled_for, time_of_day,
			 requires_approval, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			c.ID, string(kidIDsJSON), c.Title, c.Emoji, c.Stars.String(), c.Type,
			cadence, daysJSON, pausedUntil, scheduledFor, string(c.TimeOfDay),
			c.RequiresApproval, c.CreatedAt.UTC().Format(time.RFC3339), completedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chore %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertCompletions(ctx context.Context, tx *sql.Tx, completions []engine.Completion) error {
	for _, c := range completions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO completions (id, chore_id, kid_id, completed_at, stars_awarded, pending_approval)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			c.ID, c.ChoreID, c.KidID, c.Timestamp.UTC().Format(time.RFC3339),
			c.StarsAwarded.String(), c.PendingApproval)
		if err != nil {
			return fmt.Errorf("failed to insert completion %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertRewards(ctx context.Context, tx *sql.Tx, rewards []engine.Reward) error {
	for _, r := range rewards {
		kidIDsJSON, _ := json.Marshal(r.KidIDs)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rewards (id, kid_ids_json, title, emoji, cost, reward_type, archived, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID, string(kidIDsJSON), r.Title, r.Emoji, r.Cost.String(), r.Type,
			r.Archived, r.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert reward %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertRedemptions(ctx context.Context, tx *sql.Tx, redemptions []engine.RewardRedemption) error {
	for _, r := range redemptions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO redemptions (id, reward_id, kid_id, redeemed_at, cost)
			VALUES (?, ?, ?, ?, ?)
		`,
			r.ID, r.RewardID, r.KidID, r.Timestamp.UTC().Format(time.RFC3339), r.Cost.String())
		if err != nil {
			return fmt.Errorf("failed to insert redemption %s: %w", r.ID, err)
		}
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data and resets the revision (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"kids", "chores", "completions", "rewards", "redemptions"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, "UPDATE board_revision SET rev = 0 WHERE id = 1")
	return err
}
