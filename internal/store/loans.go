package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/oseayemenre/libsy/internal/models"
)

var (
	ErrNoCopiesAvailable = errors.New("no available copies for this book")
	ErrQuotaExceeded     = errors.New("book issue limit reached")
	ErrAlreadyIssued     = errors.New("book already issued to this user")
	ErrNotIssuedByUser   = errors.New("book not issued to this user")
)

// validateIssue applies the lending rules in the order the API reports
// them: quota, availability, duplicate loan. The transaction re-enforces
// availability with a guarded write and serializes quota per user with a
// row lock, so a pair of racing requests cannot both pass these checks
// and commit.
func validateIssue(book *models.Book, openLoans int, quota int, alreadyIssued bool) error {
	switch {
	case openLoans >= quota:
		return ErrQuotaExceeded
	case book.Issued_copies >= book.Total_copies:
		return ErrNoCopiesAvailable
	case alreadyIssued:
		return ErrAlreadyIssued
	}

	return nil
}

func (s *PostgresStore) GetUserLoans(ctx context.Context, userID string) ([]models.IssuedBook, error) {
	query := `
			SELECT b.id, b.title, b.author, COALESCE(b.cover, ''), ib.issued_date, ib.due_date
			FROM issued_books ib
			JOIN books b ON (b.id = ib.book_id)
			WHERE ib.user_id = $1
			ORDER BY ib.issued_date;
	`

	rows, err := s.DB.QueryContext(ctx, query, userID)

	if err != nil {
		return nil, fmt.Errorf("error querying issued books: %v", err)
	}

	defer rows.Close()

	var loans []models.IssuedBook

	for rows.Next() {
		var loan models.IssuedBook

		if err := rows.Scan(&loan.Book_id, &loan.Title, &loan.Author, &loan.Cover, &loan.Issued_date, &loan.Due_date); err != nil {
			return nil, fmt.Errorf("error scanning issued book: %v", err)
		}

		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

// IssueBook runs the whole lend as one transaction. Either every write
// lands (copy counter, loan row, history row) or none do.
func (s *PostgresStore) IssueBook(ctx context.Context, userID string, bookID string, quota int, loanPeriod time.Duration) (*models.LoanReceipt, error) {
	tx, err := s.DB.BeginTx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var username string

	// FOR UPDATE pins the user row for the rest of the transaction. Two
	// concurrent issues for the same user queue up here, so the loan
	// count below cannot miss an insert committing on another book.
	if err = tx.QueryRowContext(ctx, "SELECT username FROM users WHERE id = $1 FOR UPDATE;", userID).Scan(&username); err != nil {
		if err == sql.ErrNoRows {
			err = ErrUserNotFound
			return nil, err
		}

		return nil, fmt.Errorf("error querying users table: %v", err)
	}

	var book models.Book

	query := fmt.Sprintf("SELECT %s FROM books WHERE id = $1;", bookColumns)

	if err = scanBook(tx.QueryRowContext(ctx, query, bookID), &book); err != nil {
		if err == sql.ErrNoRows {
			err = ErrBookNotFound
			return nil, err
		}

		return nil, fmt.Errorf("error querying books table: %v", err)
	}

	var openLoans int

	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM issued_books WHERE user_id = $1;", userID).Scan(&openLoans); err != nil {
		return nil, fmt.Errorf("error counting issued books: %v", err)
	}

	var alreadyIssued bool

	if err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM issued_books WHERE user_id = $1 AND book_id = $2);", userID, bookID).Scan(&alreadyIssued); err != nil {
		return nil, fmt.Errorf("error checking open loan: %v", err)
	}

	if err = validateIssue(&book, openLoans, quota, alreadyIssued); err != nil {
		return nil, err
	}

	// Guarded increment: fails instead of over-issuing when another
	// transaction grabbed the last copy since the read above.
	query = `
			UPDATE books SET issued_copies = issued_copies + 1
			WHERE id = $1 AND issued_copies < total_copies
			RETURNING issued_copies;
	`

	if err = tx.QueryRowContext(ctx, query, bookID).Scan(&book.Issued_copies); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNoCopiesAvailable
			return nil, err
		}

		return nil, fmt.Errorf("error incrementing issued copies: %v", err)
	}

	issuedDate := time.Now()
	dueDate := issuedDate.Add(loanPeriod)

	// The user row lock above keeps this count stable; the guard is a
	// backstop, and the pair's primary key rejects a duplicate loan.
	query = `
			INSERT INTO issued_books(user_id, book_id, issued_date, due_date)
			SELECT $1, $2, $3, $4
			WHERE (SELECT COUNT(*) FROM issued_books WHERE user_id = $1) < $5;
	`

	var res sql.Result

	res, err = tx.ExecContext(ctx, query, userID, bookID, issuedDate, dueDate, quota)

	if err != nil {
		var pqErr *pq.Error

		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			err = ErrAlreadyIssued
			return nil, err
		}

		return nil, fmt.Errorf("error inserting issued book: %v", err)
	}

	var rows int64

	rows, err = res.RowsAffected()

	if err != nil {
		return nil, fmt.Errorf("error reading rows affected: %v", err)
	}

	if rows == 0 {
		err = ErrQuotaExceeded
		return nil, err
	}

	if err = appendHistory(ctx, tx, &models.HistoryEntry{
		Book_id:     book.Id,
		User_id:     mustUUID(userID),
		Book_title:  book.Title,
		Username:    username,
		Action:      "issued",
		Issued_date: issuedDate,
		Due_date:    &dueDate,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %v", err)
	}

	return &models.LoanReceipt{
		Book:       book,
		Due_date:   dueDate,
		Open_loans: openLoans + 1,
	}, nil
}

// ReturnBook undoes one loan: drops the loan row, releases the copy and
// closes the matching open history entry.
func (s *PostgresStore) ReturnBook(ctx context.Context, userID string, bookID string) (*models.LoanReceipt, error) {
	tx, err := s.DB.BeginTx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists bool

	if err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1);", userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("error querying users table: %v", err)
	}

	if !exists {
		err = ErrUserNotFound
		return nil, err
	}

	if err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM books WHERE id = $1);", bookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("error querying books table: %v", err)
	}

	if !exists {
		err = ErrBookNotFound
		return nil, err
	}

	var res sql.Result

	res, err = tx.ExecContext(ctx, "DELETE FROM issued_books WHERE user_id = $1 AND book_id = $2;", userID, bookID)

	if err != nil {
		return nil, fmt.Errorf("error deleting issued book: %v", err)
	}

	var rows int64

	rows, err = res.RowsAffected()

	if err != nil {
		return nil, fmt.Errorf("error reading rows affected: %v", err)
	}

	if rows == 0 {
		err = ErrNotIssuedByUser
		return nil, err
	}

	var book models.Book

	query := fmt.Sprintf(`
			UPDATE books SET issued_copies = GREATEST(issued_copies - 1, 0)
			WHERE id = $1
			RETURNING %s;
	`, bookColumns)

	if err = scanBook(tx.QueryRowContext(ctx, query, bookID), &book); err != nil {
		return nil, fmt.Errorf("error decrementing issued copies: %v", err)
	}

	query = `
			UPDATE history SET action = 'returned', returned_date = now()
			WHERE id = (
				SELECT id FROM history
				WHERE book_id = $1 AND user_id = $2 AND returned_date IS NULL
				ORDER BY issued_date DESC LIMIT 1
			);
	`

	if _, err = tx.ExecContext(ctx, query, bookID, userID); err != nil {
		return nil, fmt.Errorf("error closing history entry: %v", err)
	}

	var openLoans int

	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM issued_books WHERE user_id = $1;", userID).Scan(&openLoans); err != nil {
		return nil, fmt.Errorf("error counting issued books: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %v", err)
	}

	return &models.LoanReceipt{
		Book:       book,
		Open_loans: openLoans,
	}, nil
}
