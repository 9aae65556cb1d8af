package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oseayemenre/libsy/internal/models"
)

func TestValidateIssue(t *testing.T) {
	tests := []struct {
		name          string
		book          models.Book
		openLoans     int
		alreadyIssued bool
		expected      error
	}{
		{
			name:      "should allow issuing an available book",
			book:      models.Book{Total_copies: 2, Issued_copies: 1},
			openLoans: 0,
		},
		{
			name:      "should allow issuing the last copy",
			book:      models.Book{Total_copies: 1, Issued_copies: 0},
			openLoans: 2,
		},
		{
			name:      "should reject when the user already holds the quota",
			book:      models.Book{Total_copies: 5, Issued_copies: 0},
			openLoans: 3,
			expected:  ErrQuotaExceeded,
		},
		{
			name:      "should reject when every copy is out",
			book:      models.Book{Total_copies: 1, Issued_copies: 1},
			openLoans: 0,
			expected:  ErrNoCopiesAvailable,
		},
		{
			name:          "should reject a second loan of the same book",
			book:          models.Book{Total_copies: 3, Issued_copies: 1},
			openLoans:     1,
			alreadyIssued: true,
			expected:      ErrAlreadyIssued,
		},
		{
			name:      "should report the quota before availability",
			book:      models.Book{Total_copies: 1, Issued_copies: 1},
			openLoans: 3,
			expected:  ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIssue(&tt.book, tt.openLoans, 3, tt.alreadyIssued)

			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	conn := os.Getenv("DB_CONN")

	if conn == "" {
		t.Skip("DB_CONN not set, skipping db tests")
	}

	s, err := NewPostgresStore(conn)

	require.NoError(t, err)

	t.Cleanup(func() { s.DB.Close() })

	return s
}

func createTestUser(t *testing.T, s *PostgresStore) string {
	t.Helper()

	suffix := uuid.NewString()[:8]

	id, err := s.CreateUser(context.Background(), &models.User{
		Username: fmt.Sprintf("reader_%s", suffix),
		Email:    fmt.Sprintf("reader_%s@example.com", suffix),
		Password: "hashed",
	})

	require.NoError(t, err)

	t.Cleanup(func() { s.DeleteUser(context.Background(), id.String()) })

	return id.String()
}

func createTestBook(t *testing.T, s *PostgresStore, copies int) *models.Book {
	t.Helper()

	book, err := s.CreateBook(context.Background(), &models.Book{
		Title:        fmt.Sprintf("test book %s", uuid.NewString()[:8]),
		Author:       "test author",
		Total_copies: copies,
	})

	require.NoError(t, err)

	t.Cleanup(func() { s.DeleteBook(context.Background(), book.Id.String()) })

	return book
}

func TestIssueAndReturnRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s)
	book := createTestBook(t, s, 2)

	receipt, err := s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)

	require.NoError(t, err)
	require.Equal(t, 1, receipt.Book.Issued_copies)
	require.Equal(t, 1, receipt.Open_loans)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), receipt.Due_date, time.Minute)

	returned, err := s.ReturnBook(ctx, userID, book.Id.String())

	require.NoError(t, err)
	require.Equal(t, book.Issued_copies, returned.Book.Issued_copies)
	require.Equal(t, 0, returned.Open_loans)

	loans, err := s.GetUserLoans(ctx, userID)

	require.NoError(t, err)
	require.Empty(t, loans)

	// a second return of the same pair must fail, not double-release
	_, err = s.ReturnBook(ctx, userID, book.Id.String())

	require.ErrorIs(t, err, ErrNotIssuedByUser)
}

func TestIssueBookEnforcesQuota(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s)

	for i := 0; i < 3; i++ {
		book := createTestBook(t, s, 1)

		_, err := s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)

		require.NoError(t, err)
	}

	extra := createTestBook(t, s, 1)

	_, err := s.IssueBook(ctx, userID, extra.Id.String(), 3, 7*24*time.Hour)

	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestIssueBookDuplicateLoan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s)
	book := createTestBook(t, s, 5)

	_, err := s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)

	require.NoError(t, err)

	_, err = s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)

	require.ErrorIs(t, err, ErrAlreadyIssued)
}

func TestEditBookRejectsShrinkBelowIssued(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := createTestBook(t, s, 3)

	u1 := createTestUser(t, s)
	u2 := createTestUser(t, s)

	_, err := s.IssueBook(ctx, u1, book.Id.String(), 3, 7*24*time.Hour)
	require.NoError(t, err)

	_, err = s.IssueBook(ctx, u2, book.Id.String(), 3, 7*24*time.Hour)
	require.NoError(t, err)

	_, err = s.EditBook(ctx, book.Id.String(), &models.HandleUpsertBookParams{
		Title:        book.Title,
		Author:       book.Author,
		Total_copies: 1,
	})

	require.ErrorIs(t, err, ErrInvalidCopyCount)

	books, err := s.GetBooks(ctx)
	require.NoError(t, err)

	for _, b := range books {
		if b.Id == book.Id {
			require.Equal(t, 3, b.Total_copies)
			require.Equal(t, 2, b.Issued_copies)
		}
	}
}

func TestDeleteUserReclaimsCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s)
	b1 := createTestBook(t, s, 1)
	b2 := createTestBook(t, s, 2)

	_, err := s.IssueBook(ctx, userID, b1.Id.String(), 3, 7*24*time.Hour)
	require.NoError(t, err)

	_, err = s.IssueBook(ctx, userID, b2.Id.String(), 3, 7*24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, userID))

	_, err = s.GetUserById(ctx, userID)
	require.ErrorIs(t, err, ErrUserNotFound)

	books, err := s.GetBooks(ctx)
	require.NoError(t, err)

	for _, b := range books {
		if b.Id == b1.Id || b.Id == b2.Id {
			require.Equal(t, 0, b.Issued_copies)
		}
	}
}

// Two racing issue calls for different books must not push a user past
// the quota; the user row lock serializes them so the loser sees the
// winner's committed loan.
func TestConcurrentIssueQuotaBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s)

	for i := 0; i < 2; i++ {
		book := createTestBook(t, s, 1)

		_, err := s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)

		require.NoError(t, err)
	}

	b1 := createTestBook(t, s, 1)
	b2 := createTestBook(t, s, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, bookID := range []string{b1.Id.String(), b2.Id.String()} {
		wg.Add(1)

		go func(i int, bookID string) {
			defer wg.Done()
			_, errs[i] = s.IssueBook(ctx, userID, bookID, 3, 7*24*time.Hour)
		}(i, bookID)
	}

	wg.Wait()

	successes := 0

	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrQuotaExceeded)
		}
	}

	require.Equal(t, 1, successes)

	loans, err := s.GetUserLoans(ctx, userID)

	require.NoError(t, err)
	require.Len(t, loans, 3)
}

// Two racing issue calls against a single remaining copy must not both
// commit; the guarded UPDATE makes the loser fail cleanly.
func TestConcurrentIssueLastCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := createTestBook(t, s, 1)
	u1 := createTestUser(t, s)
	u2 := createTestUser(t, s)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, userID := range []string{u1, u2} {
		wg.Add(1)

		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = s.IssueBook(ctx, userID, book.Id.String(), 3, 7*24*time.Hour)
		}(i, userID)
	}

	wg.Wait()

	successes := 0

	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrNoCopiesAvailable)
		}
	}

	require.Equal(t, 1, successes)

	books, err := s.GetBooks(ctx)
	require.NoError(t, err)

	for _, b := range books {
		if b.Id == book.Id {
			require.Equal(t, 1, b.Issued_copies)
		}
	}
}
