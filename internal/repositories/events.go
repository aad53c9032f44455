package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
)

// SessionEventRepository stores [models.SessionEvent] rows.
type SessionEventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionEventRepository creates a new [SessionEventRepository] with the given database connection
func NewSessionEventRepository(db *sql.DB) *SessionEventRepository {
	return &SessionEventRepository{db: db, now: time.Now}
}

// Record appends an event with a generated ID.
func (r *SessionEventRepository) Record(kind models.SessionEventKind, customerID, detail string) (*models.SessionEvent, error) {
	event := &models.SessionEvent{
		ID:         shared.GenerateID(),
		Kind:       kind,
		CustomerID: customerID,
		Detail:     detail,
		CreatedAt:  r.now().UTC(),
	}

	query := `INSERT INTO session_events (id, kind, customer_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, event.ID, string(event.Kind), event.CustomerID, event.Detail, event.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert session event: %w", err)
	}
	return event, nil
}

// Recent returns up to limit events, newest first.
func (r *SessionEventRepository) Recent(limit int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, customer_id, detail, created_at
		FROM session_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		var (
			e          models.SessionEvent
			kind       string
			customerID sql.NullString
			detail     sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &customerID, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		e.Kind = models.SessionEventKind(kind)
		e.CustomerID = customerID.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune deletes events older than before and returns how many were removed.
func (r *SessionEventRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM session_events WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune session events: %w", err)
	}
	return res.RowsAffected()
}
