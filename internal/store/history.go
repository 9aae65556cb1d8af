package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/models"
)

// mustUUID converts ids that were already validated at the edge. The
// auth middleware only puts parsed uuids on the context.
func mustUUID(id string) uuid.UUID {
	return uuid.MustParse(id)
}

// appendHistory writes the audit row inside the caller's transaction so
// the trail never drifts from the state it describes. Book and user are
// denormalized on purpose: audit rows outlive catalog and account rows.
func appendHistory(ctx context.Context, tx *sql.Tx, entry *models.HistoryEntry) error {
	query := `
			INSERT INTO history(book_id, user_id, book_title, username, action, issued_date, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	if _, err := tx.ExecContext(ctx, query, entry.Book_id, entry.User_id, entry.Book_title, entry.Username, entry.Action, entry.Issued_date, entry.Due_date); err != nil {
		return fmt.Errorf("error appending history entry: %v", err)
	}

	return nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, limit int, offset int) ([]models.HistoryEntry, error) {
	query := `
			SELECT id, book_id, user_id, book_title, username, action, issued_date, due_date, returned_date
			FROM history ORDER BY issued_date DESC
			LIMIT $1 OFFSET $2;
	`

	rows, err := s.DB.QueryContext(ctx, query, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("error querying history table: %v", err)
	}

	defer rows.Close()

	var entries []models.HistoryEntry

	for rows.Next() {
		var entry models.HistoryEntry

		if err := rows.Scan(&entry.Id, &entry.Book_id, &entry.User_id, &entry.Book_title, &entry.Username, &entry.Action, &entry.Issued_date, &entry.Due_date, &entry.Returned_date); err != nil {
			return nil, fmt.Errorf("error scanning history entry: %v", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *PostgresStore) PurgeHistory(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM history;")

	if err != nil {
		return 0, fmt.Errorf("error purging history: %v", err)
	}

	rows, err := res.RowsAffected()

	if err != nil {
		return 0, fmt.Errorf("error reading rows affected: %v", err)
	}

	return rows, nil
}
