package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/store"
)

func withURLParam(r *http.Request, key string, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleIssueBookService(t *testing.T) {
	bookID := uuid.New()

	receipt := &models.LoanReceipt{
		Book:       models.Book{Id: bookID, Title: "The Go Programming Language", Total_copies: 3, Issued_copies: 1},
		Due_date:   time.Now().Add(7 * 24 * time.Hour),
		Open_loans: 1,
	}

	tests := []struct {
		name           string
		bookID         string
		store          *testStore
		expectedStatus int
	}{
		{
			name:           "Test issue book, invalid book id",
			bookID:         "not-a-uuid",
			store:          &testStore{receipt: receipt},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test issue book, book not found",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: store.ErrBookNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Test issue book, user not found",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: store.ErrUserNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Test issue book, no copies available",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: store.ErrNoCopiesAvailable},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test issue book, quota exceeded",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: store.ErrQuotaExceeded},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test issue book, already issued",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: store.ErrAlreadyIssued},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test issue book, store failure",
			bookID:         bookID.String(),
			store:          &testStore{issueErr: fmt.Errorf("connection reset")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Test issue book, success",
			bookID:         bookID.String(),
			store:          &testStore{receipt: receipt},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(tt.store)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/books/"+tt.bookID+"/issue", nil)
			r = withUser(withURLParam(r, "bookID", tt.bookID), testUser("user"))

			w := httptest.NewRecorder()

			server.HandleIssueBook(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response models.HandleLoanResponse

			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("error decoding response: %v", err)
			}

			if response.Book.Id != bookID {
				t.Errorf("expected book id %s, got %s", bookID, response.Book.Id)
			}

			if response.Remaining_books != 2 {
				t.Errorf("expected 2 remaining books, got %d", response.Remaining_books)
			}
		})
	}
}

func TestHandleReturnBookService(t *testing.T) {
	bookID := uuid.New()

	receipt := &models.LoanReceipt{
		Book:       models.Book{Id: bookID, Title: "The Go Programming Language", Total_copies: 3},
		Open_loans: 0,
	}

	tests := []struct {
		name           string
		bookID         string
		store          *testStore
		expectedStatus int
	}{
		{
			name:           "Test return book, invalid book id",
			bookID:         "not-a-uuid",
			store:          &testStore{receipt: receipt},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test return book, book not found",
			bookID:         bookID.String(),
			store:          &testStore{returnErr: store.ErrBookNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Test return book, not issued by user",
			bookID:         bookID.String(),
			store:          &testStore{returnErr: store.ErrNotIssuedByUser},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test return book, success",
			bookID:         bookID.String(),
			store:          &testStore{receipt: receipt},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(tt.store)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/books/"+tt.bookID+"/return", nil)
			r = withUser(withURLParam(r, "bookID", tt.bookID), testUser("user"))

			w := httptest.NewRecorder()

			server.HandleReturnBook(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestHandleReturnBookServiceTwice(t *testing.T) {
	bookID := uuid.New()

	ts := &testStore{
		receipt: &models.LoanReceipt{
			Book: models.Book{Id: bookID, Title: "The Go Programming Language", Total_copies: 3},
		},
	}

	server := newTestServer(ts)
	user := testUser("user")

	for i, expected := range []int{http.StatusOK, http.StatusBadRequest} {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/books/"+bookID.String()+"/return", nil)
		r = withUser(withURLParam(r, "bookID", bookID.String()), user)

		w := httptest.NewRecorder()

		server.HandleReturnBook(w, r)

		if w.Code != expected {
			t.Errorf("return %d: expected status %d, got %d", i+1, expected, w.Code)
		}
	}
}

func TestHandleGetBooksService(t *testing.T) {
	issuedBook := models.Book{Id: uuid.New(), Title: "Clean Architecture", Total_copies: 4, Issued_copies: 2}
	otherBook := models.Book{Id: uuid.New(), Title: "The Mythical Man-Month", Total_copies: 1, Issued_copies: 0}

	due := time.Now().Add(3 * 24 * time.Hour)

	ts := &testStore{
		books: []models.Book{issuedBook, otherBook},
		loans: []models.IssuedBook{{Book_id: issuedBook.Id, Due_date: due}},
	}

	server := newTestServer(ts)

	r := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/books", nil), testUser("user"))
	w := httptest.NewRecorder()

	server.HandleGetBooks(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.HandleGetBooksResponse

	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if len(response.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(response.Books))
	}

	for _, book := range response.Books {
		switch book.Id {
		case issuedBook.Id:
			if !book.Issued_by_user {
				t.Error("expected issued book to be flagged as held by the caller")
			}
			if book.Available_copies != 2 {
				t.Errorf("expected 2 available copies, got %d", book.Available_copies)
			}
			if book.Due_date == nil {
				t.Error("expected a due date on the issued book")
			}
		case otherBook.Id:
			if book.Issued_by_user {
				t.Error("expected other book not to be flagged as held by the caller")
			}
			if book.Available_copies != 1 {
				t.Errorf("expected 1 available copy, got %d", book.Available_copies)
			}
		}
	}
}

func TestHandleGetMyBooksService(t *testing.T) {
	ts := &testStore{
		loans: []models.IssuedBook{
			{Book_id: uuid.New(), Due_date: time.Now().Add(24 * time.Hour)},
			{Book_id: uuid.New(), Due_date: time.Now().Add(48 * time.Hour)},
		},
	}

	server := newTestServer(ts)

	r := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/books/mine", nil), testUser("user"))
	w := httptest.NewRecorder()

	server.HandleGetMyBooks(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.HandleGetMyBooksResponse

	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if len(response.Books) != 2 {
		t.Errorf("expected 2 loans, got %d", len(response.Books))
	}
}
