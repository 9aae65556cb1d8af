package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")
)

func (s *PostgresStore) CheckIfUserExists(ctx context.Context, email string, username string) (*uuid.UUID, error) {
	var id uuid.UUID

	query := `
			SELECT id FROM users WHERE email = $1 OR username = $2;
	`

	if err := s.DB.QueryRowContext(ctx, query, email, username).Scan(&id); err != nil {
		return nil, fmt.Errorf("error retrieving user id: %w", err)
	}

	return &id, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*uuid.UUID, error) {
	var id uuid.UUID

	role := user.Role

	if role == "" {
		role = "user"
	}

	query := `
			INSERT INTO users(username, email, password, role, image)
			VALUES ($1, $2, $3, $4, $5) RETURNING id;
	`

	if err := s.DB.QueryRowContext(ctx, query, user.Username, user.Email, user.Password, role, user.Image).Scan(&id); err != nil {
		return nil, fmt.Errorf("error inserting in users table: %v", err)
	}

	return &id, nil
}

func (s *PostgresStore) GetUserById(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	query := `
			SELECT id, username, email, role, COALESCE(image, ''), created_at
			FROM users WHERE id = $1;
	`

	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&user.Id, &user.Username, &user.Email, &user.Role, &user.Image, &user.Created_at); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying users table: %w", err)
	}

	return &user, nil
}

func (s *PostgresStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User

	query := `
			SELECT id, username, email, password, role, COALESCE(image, ''), created_at
			FROM users WHERE username = $1 OR email = $1;
	`

	if err := s.DB.QueryRowContext(ctx, query, identifier).Scan(&user.Id, &user.Username, &user.Email, &user.Password, &user.Role, &user.Image, &user.Created_at); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying users table: %w", err)
	}

	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	clauses := []string{}
	arguments := []interface{}{user.Id}
	index := 1

	if user.Username != "" {
		index++
		clauses = append(clauses, fmt.Sprintf("username = $%d", index))
		arguments = append(arguments, user.Username)
	}

	if user.Email != "" {
		index++
		clauses = append(clauses, fmt.Sprintf("email = $%d", index))
		arguments = append(arguments, user.Email)
	}

	if user.Password != "" {
		index++
		clauses = append(clauses, fmt.Sprintf("password = $%d", index))
		arguments = append(arguments, user.Password)
	}

	if user.Image != "" {
		index++
		clauses = append(clauses, fmt.Sprintf("image = $%d", index))
		arguments = append(arguments, user.Image)
	}

	if len(clauses) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $1;", strings.Join(clauses, ", "))

	res, err := s.DB.ExecContext(ctx, query, arguments...)

	if err != nil {
		return fmt.Errorf("error updating users table: %v", err)
	}

	rows, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading rows affected: %v", err)
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *PostgresStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	query := `
			SELECT id, username, email, role, COALESCE(image, ''), created_at
			FROM users ORDER BY created_at;
	`

	rows, err := s.DB.QueryContext(ctx, query)

	if err != nil {
		return nil, fmt.Errorf("error querying users table: %v", err)
	}

	defer rows.Close()

	var users []models.User

	for rows.Next() {
		var user models.User

		if err := rows.Scan(&user.Id, &user.Username, &user.Email, &user.Role, &user.Image, &user.Created_at); err != nil {
			return nil, fmt.Errorf("error scanning user: %v", err)
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

// DeleteUser reclaims every copy the user still holds before the row goes
// away. The cascade on issued_books removes the open loans themselves.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
			UPDATE books SET issued_copies = GREATEST(issued_copies - held.count, 0)
			FROM (
				SELECT book_id, COUNT(*) AS count
				FROM issued_books WHERE user_id = $1
				GROUP BY book_id
			) held
			WHERE books.id = held.book_id;
	`

	if _, err = tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error reclaiming issued copies: %v", err)
	}

	var res sql.Result

	res, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1;", id)

	if err != nil {
		return fmt.Errorf("error deleting user: %v", err)
	}

	var rows int64

	rows, err = res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error reading rows affected: %v", err)
	}

	if rows == 0 {
		err = ErrUserNotFound
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	query := `
			INSERT INTO password_resets(token, user_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET token = $1, expires_at = $3;
	`

	if _, err := s.DB.ExecContext(ctx, query, token, userID, expiresAt); err != nil {
		return fmt.Errorf("error inserting password reset: %v", err)
	}

	return nil
}

func (s *PostgresStore) ConsumePasswordReset(ctx context.Context, token string, hashedPassword string) error {
	tx, err := s.DB.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var userID uuid.UUID

	query := `
			DELETE FROM password_resets WHERE token = $1 AND expires_at > now()
			RETURNING user_id;
	`

	if err = tx.QueryRowContext(ctx, query, token).Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrResetTokenInvalid
			return err
		}

		return fmt.Errorf("error consuming reset token: %v", err)
	}

	if _, err = tx.ExecContext(ctx, "UPDATE users SET password = $1 WHERE id = $2;", hashedPassword, userID); err != nil {
		return fmt.Errorf("error updating password: %v", err)
	}

	return tx.Commit()
}
