package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oseayemenre/libsy/internal/models"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidCopyCount = errors.New("total copies cannot drop below copies currently issued")
)

const bookColumns = "id, title, author, COALESCE(cover, ''), category, COALESCE(description, ''), total_copies, issued_copies, created_at"

func scanBook(row interface{ Scan(...any) error }, book *models.Book) error {
	return row.Scan(&book.Id, &book.Title, &book.Author, &book.Cover, &book.Category, &book.Description, &book.Total_copies, &book.Issued_copies, &book.Created_at)
}

func (s *PostgresStore) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	category := book.Category

	if category == "" {
		category = "Uncategorized"
	}

	var created models.Book

	query := fmt.Sprintf(`
			INSERT INTO books(title, author, cover, category, description, total_copies, issued_copies)
			VALUES ($1, $2, $3, $4, $5, $6, 0) RETURNING %s;
	`, bookColumns)

	row := s.DB.QueryRowContext(ctx, query, book.Title, book.Author, book.Cover, category, book.Description, book.Total_copies)

	if err := scanBook(row, &created); err != nil {
		return nil, fmt.Errorf("error inserting into books table: %v", err)
	}

	return &created, nil
}

// EditBook refuses to shrink total_copies below the copies out on loan;
// the guard lives in the WHERE clause so a concurrent issue cannot slip
// a book under its own counter.
func (s *PostgresStore) EditBook(ctx context.Context, id string, params *models.HandleUpsertBookParams) (*models.Book, error) {
	category := params.Category

	if category == "" {
		category = "Uncategorized"
	}

	var updated models.Book

	query := fmt.Sprintf(`
			UPDATE books
			SET title = $1, author = $2, cover = $3, category = $4, description = $5, total_copies = $6
			WHERE id = $7 AND $6 >= issued_copies
			RETURNING %s;
	`, bookColumns)

	row := s.DB.QueryRowContext(ctx, query, params.Title, params.Author, params.Cover, category, params.Description, params.Total_copies, id)

	err := scanBook(row, &updated)

	if err == nil {
		return &updated, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("error updating books table: %v", err)
	}

	var exists bool

	if err := s.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM books WHERE id = $1);", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("error checking book existence: %v", err)
	}

	if !exists {
		return nil, ErrBookNotFound
	}

	return nil, ErrInvalidCopyCount
}

func (s *PostgresStore) GetBooks(ctx context.Context) ([]models.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books ORDER BY created_at;", bookColumns)

	rows, err := s.DB.QueryContext(ctx, query)

	if err != nil {
		return nil, fmt.Errorf("error querying books table: %v", err)
	}

	defer rows.Close()

	var books []models.Book

	for rows.Next() {
		var book models.Book

		if err := scanBook(rows, &book); err != nil {
			return nil, fmt.Errorf("error scanning book: %v", err)
		}

		books = append(books, book)
	}

	return books, rows.Err()
}

// DeleteBook relies on the issued_books cascade to pull the title out of
// every account still holding it.
func (s *PostgresStore) DeleteBook(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM books WHERE id = $1;", id)

	if err != nil {
		return fmt.Errorf("error deleting book: %v", err)
	}

	rows, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading rows affected: %v", err)
	}

	if rows == 0 {
		return ErrBookNotFound
	}

	return nil
}
