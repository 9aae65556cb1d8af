package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/oseayemenre/libsy/internal/models"
)

type Store interface {
	CheckIfUserExists(ctx context.Context, email string, username string) (*uuid.UUID, error)
	CreateUser(ctx context.Context, user *models.User) (*uuid.UUID, error)
	GetUserById(ctx context.Context, id string) (*models.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreatePasswordReset(ctx context.Context, token string, userID string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, token string, hashedPassword string) error

	CreateBook(ctx context.Context, book *models.Book) (*models.Book, error)
	EditBook(ctx context.Context, id string, params *models.HandleUpsertBookParams) (*models.Book, error)
	GetBooks(ctx context.Context) ([]models.Book, error)
	DeleteBook(ctx context.Context, id string) error

	GetUserLoans(ctx context.Context, userID string) ([]models.IssuedBook, error)
	IssueBook(ctx context.Context, userID string, bookID string, quota int, loanPeriod time.Duration) (*models.LoanReceipt, error)
	ReturnBook(ctx context.Context, userID string, bookID string) (*models.LoanReceipt, error)

	GetHistory(ctx context.Context, limit int, offset int) ([]models.HistoryEntry, error)
	PurgeHistory(ctx context.Context) (int64, error)
}

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(conn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", conn)

	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging db: %v", err)
	}

	return &PostgresStore{
		DB: db,
	}, nil
}
