package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/SsToRR/HourlyBot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// TouchContact creates the user row on first contact and refreshes name and
// conversation reference on every later one. New users start inactive; the
// active flag is only ever changed through Subscribe/Unsubscribe.
func (r *SQLiteRepo) TouchContact(ctx context.Context, userID, name, conversationRef string) error {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, name, is_active, conversation_ref, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name             = excluded.name,
			conversation_ref = excluded.conversation_ref,
			updated_at       = excluded.updated_at`,
		userID, name, conversationRef, now, now,
	)
	if err != nil {
		return fmt.Errorf("touch contact %s: %w", userID, err)
	}
	return nil
}

// GetUser returns a user by ID or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, name, is_active, ever_subscribed, conversation_ref, created_at, updated_at
		FROM users
		WHERE user_id = ?`,
		userID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// Subscribe activates the user, reusing the existing identity row if one
// exists. The outcome tells the caller which acknowledgment applies.
func (r *SQLiteRepo) Subscribe(ctx context.Context, userID, name string) (domain.SubscribeOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("subscribe %s: %w", userID, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Unix()

	var active, ever int
	err = tx.QueryRowContext(ctx,
		`SELECT is_active, ever_subscribed FROM users WHERE user_id = ?`, userID,
	).Scan(&active, &ever)

	var outcome domain.SubscribeOutcome
	switch {
	case errors.Is(err, sql.ErrNoRows):
		outcome = domain.SubscribedNew
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (user_id, name, is_active, ever_subscribed, conversation_ref, created_at, updated_at)
			VALUES (?, ?, 1, 1, '', ?, ?)`,
			userID, name, now, now,
		)
	case err != nil:
		return 0, fmt.Errorf("subscribe %s: %w", userID, err)
	case active != 0:
		outcome = domain.SubscribedAlready
	default:
		// A row created by first contact that never subscribed still counts
		// as a brand-new subscription.
		outcome = domain.SubscribedAgain
		if ever == 0 {
			outcome = domain.SubscribedNew
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET is_active = 1, ever_subscribed = 1, name = ?, updated_at = ? WHERE user_id = ?`,
			name, now, userID,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("subscribe %s: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("subscribe %s: %w", userID, err)
	}
	return outcome, nil
}

// Unsubscribe deactivates the user. Returns false if the user was not
// subscribed in the first place. The identity row is kept.
func (r *SQLiteRepo) Unsubscribe(ctx context.Context, userID string) (bool, error) {
	now := time.Now().UTC().Unix()
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = 0, updated_at = ? WHERE user_id = ? AND is_active = 1`,
		now, userID,
	)
	if err != nil {
		return false, fmt.Errorf("unsubscribe %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unsubscribe %s: %w", userID, err)
	}
	return n > 0, nil
}

// ActiveUsers returns all subscribed users.
func (r *SQLiteRepo) ActiveUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, is_active, ever_subscribed, conversation_ref, created_at, updated_at
		FROM users
		WHERE is_active = 1
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("active users: %w", err)
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	return res, nil
}

// UpsertPlaceholder inserts an empty response for (user, date, slot) if none
// exists. The primary key on that tuple makes concurrent calls collapse into
// one row; an existing row (placeholder or answered) is left untouched.
func (r *SQLiteRepo) UpsertPlaceholder(ctx context.Context, userID, date string, slot domain.Slot) error {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO responses (user_id, question_date, slot_m, response_text, recorded_at)
		VALUES (?, ?, ?, '', ?)
		ON CONFLICT(user_id, question_date, slot_m) DO NOTHING`,
		userID, date, int(slot), now,
	)
	if err != nil {
		return fmt.Errorf("upsert placeholder %s %s %s: %w", userID, date, slot, err)
	}
	return nil
}

// RecordAnswer writes the answer text for (user, date, slot). A pre-existing
// row (placeholder or earlier answer) is overwritten; only the latest answer
// is kept.
func (r *SQLiteRepo) RecordAnswer(ctx context.Context, userID, date string, slot domain.Slot, text string) (domain.RecordOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record answer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM responses WHERE user_id = ? AND question_date = ? AND slot_m = ?`,
		userID, date, int(slot),
	).Scan(&exists)

	outcome := domain.RecordUpdated
	if errors.Is(err, sql.ErrNoRows) {
		outcome = domain.RecordCreated
	} else if err != nil {
		return 0, fmt.Errorf("record answer: %w", err)
	}

	now := time.Now().UTC().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO responses (user_id, question_date, slot_m, response_text, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, question_date, slot_m) DO UPDATE SET
			response_text = excluded.response_text,
			recorded_at   = excluded.recorded_at`,
		userID, date, int(slot), text, now,
	)
	if err != nil {
		return 0, fmt.Errorf("record answer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record answer: %w", err)
	}
	return outcome, nil
}

// ListResponses returns the user's responses for a date ordered by slot ascending.
func (r *SQLiteRepo) ListResponses(ctx context.Context, userID, date string) ([]domain.Response, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, question_date, slot_m, response_text, recorded_at
		FROM responses
		WHERE user_id = ? AND question_date = ?
		ORDER BY slot_m ASC`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var res []domain.Response
	for rows.Next() {
		var (
			resp     domain.Response
			slotM    int
			recorded int64
		)
		if err := rows.Scan(&resp.UserID, &resp.Date, &slotM, &resp.Text, &recorded); err != nil {
			return nil, fmt.Errorf("list responses: %w", err)
		}
		resp.Slot = domain.Slot(slotM)
		resp.RecordedAt = time.Unix(recorded, 0).UTC()
		res = append(res, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return res, nil
}

// PurgeOlderThan deletes responses dated strictly before cutoffDate and
// returns the number of rows removed. Date keys compare lexicographically.
func (r *SQLiteRepo) PurgeOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM responses WHERE question_date < ?`, cutoffDate,
	)
	if err != nil {
		return 0, fmt.Errorf("purge responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge responses: %w", err)
	}
	return n, nil
}
