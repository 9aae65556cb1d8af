package routes

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/config"
	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/notify"
	"github.com/oseayemenre/libsy/internal/shared"
	"github.com/oseayemenre/libsy/internal/store"
)

type testLogger struct{}

func (l *testLogger) Info(msg string, args ...any)  {}
func (l *testLogger) Warn(msg string, args ...any)  {}
func (l *testLogger) Error(msg string, args ...any) {}

type testObjectStore struct{}

func (s *testObjectStore) UploadFile(ctx context.Context, file io.Reader, id string) (string, error) {
	return "http://mock-url.com", nil
}

type testNotifier struct {
	mu     sync.Mutex
	events []*notify.Event
	err    error
}

func (n *testNotifier) Publish(ctx context.Context, event *notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}

	n.events = append(n.events, event)
	return nil
}

func (n *testNotifier) Close() error {
	return nil
}

// testStore fakes just enough of the store for handler tests; error
// fields flip individual operations into their failure modes.
type testStore struct {
	user          *models.User
	existingID    *uuid.UUID
	books         []models.Book
	loans         []models.IssuedBook
	history       []models.HistoryEntry
	receipt       *models.LoanReceipt
	issueErr      error
	returnErr     error
	editErr       error
	deleteUserErr error
	deleteBookErr error
	returned      map[string]bool
}

func (s *testStore) CheckIfUserExists(ctx context.Context, email string, username string) (*uuid.UUID, error) {
	if s.existingID == nil {
		return nil, fmt.Errorf("error retrieving user id: %w", sql.ErrNoRows)
	}
	return s.existingID, nil
}

func (s *testStore) CreateUser(ctx context.Context, user *models.User) (*uuid.UUID, error) {
	id := uuid.New()
	return &id, nil
}

func (s *testStore) GetUserById(ctx context.Context, id string) (*models.User, error) {
	if s.user == nil {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *testStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if s.user == nil {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *testStore) UpdateUser(ctx context.Context, user *models.User) error {
	return nil
}

func (s *testStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	if s.user == nil {
		return nil, nil
	}
	return []models.User{*s.user}, nil
}

func (s *testStore) DeleteUser(ctx context.Context, id string) error {
	return s.deleteUserErr
}

func (s *testStore) CreatePasswordReset(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	return nil
}

func (s *testStore) ConsumePasswordReset(ctx context.Context, token string, hashedPassword string) error {
	if token != "valid-token" {
		return store.ErrResetTokenInvalid
	}
	return nil
}

func (s *testStore) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	created := *book
	created.Id = uuid.New()
	return &created, nil
}

func (s *testStore) EditBook(ctx context.Context, id string, params *models.HandleUpsertBookParams) (*models.Book, error) {
	if s.editErr != nil {
		return nil, s.editErr
	}
	return &models.Book{Id: uuid.MustParse(id), Title: params.Title, Author: params.Author, Total_copies: params.Total_copies}, nil
}

func (s *testStore) GetBooks(ctx context.Context) ([]models.Book, error) {
	return s.books, nil
}

func (s *testStore) DeleteBook(ctx context.Context, id string) error {
	return s.deleteBookErr
}

func (s *testStore) GetUserLoans(ctx context.Context, userID string) ([]models.IssuedBook, error) {
	return s.loans, nil
}

func (s *testStore) IssueBook(ctx context.Context, userID string, bookID string, quota int, loanPeriod time.Duration) (*models.LoanReceipt, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return s.receipt, nil
}

func (s *testStore) ReturnBook(ctx context.Context, userID string, bookID string) (*models.LoanReceipt, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}

	if s.returned == nil {
		s.returned = map[string]bool{}
	}

	// a pair can only be returned once
	if s.returned[bookID] {
		return nil, store.ErrNotIssuedByUser
	}

	s.returned[bookID] = true

	return s.receipt, nil
}

func (s *testStore) GetHistory(ctx context.Context, limit int, offset int) ([]models.HistoryEntry, error) {
	return s.history, nil
}

func (s *testStore) PurgeHistory(ctx context.Context) (int64, error) {
	return int64(len(s.history)), nil
}

func newTestServer(ts *testStore) *Server {
	return &Server{
		Server: &shared.Server{
			Logger:      &testLogger{},
			ObjectStore: &testObjectStore{},
			Store:       ts,
			Notifier:    &testNotifier{},
			Config: &config.Config{
				Jwt_secret:       "test-secret",
				Max_issued_books: 3,
				Loan_period_days: 7,
			},
		},
	}
}

func testUser(role string) *models.User {
	return &models.User{
		Id:       uuid.New(),
		Username: "reader",
		Email:    "reader@example.com",
		Role:     role,
	}
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "user", user))
}
