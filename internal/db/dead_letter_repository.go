package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kennethwltu/smspanel/internal/models"
)

// DeadLetterRepository defines the interface for dead letter data access
type DeadLetterRepository interface {
	Create(entry *models.DeadLetterEntry) error
	GetByID(id int64) (*models.DeadLetterEntry, error)
	List(statusFilter string, limit int) ([]*models.DeadLetterEntry, error)
	GetPending(limit int) ([]*models.DeadLetterEntry, error)
	IncrementRetry(id int64) error
	MarkRetried(id int64) error
	MarkAbandoned(id int64) error
	CountByStatus() (*models.DeadLetterStats, error)
}

// deadLetterRepository implements DeadLetterRepository interface
type deadLetterRepository struct {
	db *sql.DB
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *sql.DB) DeadLetterRepository {
	return &deadLetterRepository{db: db}
}

const deadLetterColumns = `id, message_id, recipient, content, error_message, error_type,
	retry_count, max_retries, status, created_at, last_attempt_at, retried_at`

// Create persists a new dead letter entry in pending state
func (r *deadLetterRepository) Create(entry *models.DeadLetterEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.Recipient == "" {
		return fmt.Errorf("recipient cannot be empty")
	}

	if entry.Status == "" {
		entry.Status = models.DeadLetterStatusPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(
		`INSERT INTO dead_letters (message_id, recipient, content, error_message, error_type,
			retry_count, max_retries, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MessageID, entry.Recipient, entry.Content, entry.ErrorMessage, entry.ErrorType,
		entry.RetryCount, entry.MaxRetries, entry.Status, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dead letter entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read dead letter id: %w", err)
	}
	entry.ID = id

	return nil
}

// GetByID retrieves a dead letter entry by ID
func (r *deadLetterRepository) GetByID(id int64) (*models.DeadLetterEntry, error) {
	row := r.db.QueryRow(`SELECT `+deadLetterColumns+` FROM dead_letters WHERE id = ?`, id)
	entry, err := scanDeadLetter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter entry: %w", err)
	}
	return entry, nil
}

// List retrieves dead letter entries newest first, optionally filtered by status
func (r *deadLetterRepository) List(statusFilter string, limit int) ([]*models.DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if statusFilter != "" {
		rows, err = r.db.Query(
			`SELECT `+deadLetterColumns+` FROM dead_letters WHERE status = ?
			 ORDER BY created_at DESC, id DESC LIMIT ?`, statusFilter, limit,
		)
	} else {
		rows, err = r.db.Query(
			`SELECT `+deadLetterColumns+` FROM dead_letters
			 ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letter entries: %w", err)
	}
	defer rows.Close()

	return collectDeadLetters(rows)
}

// GetPending retrieves pending entries that still have retries left,
// oldest first so the longest-waiting entries are retried first
func (r *deadLetterRepository) GetPending(limit int) ([]*models.DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT `+deadLetterColumns+` FROM dead_letters
		 WHERE status = ? AND retry_count < max_retries
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		models.DeadLetterStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending dead letter entries: %w", err)
	}
	defer rows.Close()

	return collectDeadLetters(rows)
}

// IncrementRetry bumps the retry counter and stamps the attempt time after a
// failed admin retry
func (r *deadLetterRepository) IncrementRetry(id int64) error {
	res, err := r.db.Exec(
		`UPDATE dead_letters SET retry_count = retry_count + 1, last_attempt_at = ?
		 WHERE id = ? AND retry_count < max_retries`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}
	return requireRowAffected(res, "dead letter entry", id)
}

// MarkRetried transitions a pending entry to the terminal retried state
func (r *deadLetterRepository) MarkRetried(id int64) error {
	now := time.Now().UTC()
	res, err := r.db.Exec(
		`UPDATE dead_letters SET status = ?, retried_at = ?, last_attempt_at = ?
		 WHERE id = ? AND status = ?`,
		models.DeadLetterStatusRetried, now, now, id, models.DeadLetterStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark dead letter entry retried: %w", err)
	}
	return requireRowAffected(res, "dead letter entry", id)
}

// MarkAbandoned transitions a pending entry to the terminal abandoned state.
// Fails when the entry is not pending.
func (r *deadLetterRepository) MarkAbandoned(id int64) error {
	res, err := r.db.Exec(
		`UPDATE dead_letters SET status = ? WHERE id = ? AND status = ?`,
		models.DeadLetterStatusAbandoned, id, models.DeadLetterStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark dead letter entry abandoned: %w", err)
	}
	return requireRowAffected(res, "dead letter entry", id)
}

// CountByStatus returns dead letter entry counts grouped by status
func (r *deadLetterRepository) CountByStatus() (*models.DeadLetterStats, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM dead_letters GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count dead letter entries: %w", err)
	}
	defer rows.Close()

	stats := &models.DeadLetterStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case models.DeadLetterStatusPending:
			stats.Pending = count
		case models.DeadLetterStatusRetried:
			stats.Retried = count
		case models.DeadLetterStatusAbandoned:
			stats.Abandoned = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeadLetter(row rowScanner) (*models.DeadLetterEntry, error) {
	entry := &models.DeadLetterEntry{}
	err := row.Scan(
		&entry.ID, &entry.MessageID, &entry.Recipient, &entry.Content,
		&entry.ErrorMessage, &entry.ErrorType, &entry.RetryCount, &entry.MaxRetries,
		&entry.Status, &entry.CreatedAt, &entry.LastAttemptAt, &entry.RetriedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func collectDeadLetters(rows *sql.Rows) ([]*models.DeadLetterEntry, error) {
	var entries []*models.DeadLetterEntry
	for rows.Next() {
		entry, err := scanDeadLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dead letter entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
