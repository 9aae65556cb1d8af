package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/notify"
	"github.com/oseayemenre/libsy/internal/store"
)

const catalogCacheKey = "catalog:books"

const catalogCacheTTL = 30 * time.Second

func (s *Server) invalidateCatalog(r *http.Request) {
	if s.Cache != nil {
		s.Cache.Del(r.Context(), catalogCacheKey)
	}
}

func (s *Server) loanPeriod() time.Duration {
	return time.Duration(s.Config.Loan_period_days) * 24 * time.Hour
}

// HandleGetBooks godoc
//
//	@Summary		List the catalog
//	@Description	Every book with availability and the caller's own issued status
//	@Tags			books
//	@Produce		json
//	@Failure		500	{object}	models.ErrorResponse
//	@Success		200	{object}	models.HandleGetBooksResponse
//	@Router			/books [get]
func (s *Server) HandleGetBooks(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	var books []models.Book

	if s.Cache != nil {
		if raw, ok := s.Cache.Get(r.Context(), catalogCacheKey); ok {
			if err := json.Unmarshal(raw, &books); err != nil {
				books = nil
			}
		}
	}

	if books == nil {
		var err error

		books, err = s.Store.GetBooks(r.Context())

		if err != nil {
			s.Logger.Error(err.Error(), "service", "HandleGetBooks")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
			return
		}

		if s.Cache != nil {
			if raw, err := json.Marshal(books); err == nil {
				s.Cache.Set(r.Context(), catalogCacheKey, raw, catalogCacheTTL)
			}
		}
	}

	loans, err := s.Store.GetUserLoans(r.Context(), user.Id.String())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleGetBooks")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	dueDates := make(map[uuid.UUID]time.Time, len(loans))

	for _, loan := range loans {
		dueDates[loan.Book_id] = loan.Due_date
	}

	catalog := make([]models.CatalogBook, 0, len(books))

	for _, book := range books {
		entry := models.CatalogBook{
			Book:             book,
			Available_copies: book.Total_copies - book.Issued_copies,
		}

		if due, ok := dueDates[book.Id]; ok {
			entry.Issued_by_user = true
			entry.Due_date = &due
		}

		catalog = append(catalog, entry)
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleGetBooksResponse{Books: catalog})
}

// HandleGetMyBooks godoc
//
//	@Summary	List the caller's open loans
//	@Tags		books
//	@Produce	json
//	@Failure	500	{object}	models.ErrorResponse
//	@Success	200	{object}	models.HandleGetMyBooksResponse
//	@Router		/books/mine [get]
func (s *Server) HandleGetMyBooks(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	loans, err := s.Store.GetUserLoans(r.Context(), user.Id.String())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleGetMyBooks")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleGetMyBooksResponse{Books: loans})
}

// HandleIssueBook godoc
//
//	@Summary		Issue a book to the logged in user
//	@Description	Lends one copy for the configured loan period
//	@Tags			books
//	@Produce		json
//	@Param			bookID	path		string	true	"book id"
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Success		200		{object}	models.HandleLoanResponse
//	@Router			/books/{bookID}/issue [post]
func (s *Server) HandleIssueBook(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	bookID := chi.URLParam(r, "bookID")

	if _, err := uuid.Parse(bookID); err != nil {
		s.Logger.Warn("book id is not a valid uuid", "service", "HandleIssueBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("book id is not a valid uuid"))
		return
	}

	receipt, err := s.Store.IssueBook(r.Context(), user.Id.String(), bookID, s.Config.Max_issued_books, s.loanPeriod())

	if err != nil {
		switch err {
		case store.ErrUserNotFound, store.ErrBookNotFound:
			s.Logger.Warn(err.Error(), "service", "HandleIssueBook")
			respondWithError(w, http.StatusNotFound, err)
		case store.ErrNoCopiesAvailable, store.ErrQuotaExceeded, store.ErrAlreadyIssued:
			s.Logger.Warn(err.Error(), "service", "HandleIssueBook")
			respondWithError(w, http.StatusBadRequest, err)
		default:
			s.Logger.Error(err.Error(), "service", "HandleIssueBook")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}
		return
	}

	s.invalidateCatalog(r)

	s.broadcast(BOOK_ISSUED, &loanEvent{
		BookId:   receipt.Book.Id.String(),
		Title:    receipt.Book.Title,
		Username: user.Username,
	})

	s.publishLoanNotice(r, notify.EventBookIssued, user, receipt)

	respondWithSuccess(w, http.StatusOK, &models.HandleLoanResponse{
		Message:         "Book issued successfully",
		Book:            receipt.Book,
		Remaining_books: s.Config.Max_issued_books - receipt.Open_loans,
	})
}

// HandleReturnBook godoc
//
//	@Summary	Return a book held by the logged in user
//	@Tags		books
//	@Produce	json
//	@Param		bookID	path		string	true	"book id"
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Failure	500		{object}	models.ErrorResponse
//	@Success	200		{object}	models.HandleLoanResponse
//	@Router		/books/{bookID}/return [post]
func (s *Server) HandleReturnBook(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	bookID := chi.URLParam(r, "bookID")

	if _, err := uuid.Parse(bookID); err != nil {
		s.Logger.Warn("book id is not a valid uuid", "service", "HandleReturnBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("book id is not a valid uuid"))
		return
	}

	receipt, err := s.Store.ReturnBook(r.Context(), user.Id.String(), bookID)

	if err != nil {
		switch err {
		case store.ErrUserNotFound, store.ErrBookNotFound:
			s.Logger.Warn(err.Error(), "service", "HandleReturnBook")
			respondWithError(w, http.StatusNotFound, err)
		case store.ErrNotIssuedByUser:
			s.Logger.Warn(err.Error(), "service", "HandleReturnBook")
			respondWithError(w, http.StatusBadRequest, err)
		default:
			s.Logger.Error(err.Error(), "service", "HandleReturnBook")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}
		return
	}

	s.invalidateCatalog(r)

	s.broadcast(BOOK_RETURNED, &loanEvent{
		BookId:   receipt.Book.Id.String(),
		Title:    receipt.Book.Title,
		Username: user.Username,
	})

	s.publishLoanNotice(r, notify.EventBookReturned, user, receipt)

	respondWithSuccess(w, http.StatusOK, &models.HandleLoanResponse{
		Message:         "Book returned successfully",
		Book:            receipt.Book,
		Remaining_books: s.Config.Max_issued_books - receipt.Open_loans,
	})
}

// publishLoanNotice is best effort; a queue outage should not undo a
// loan that already committed.
func (s *Server) publishLoanNotice(r *http.Request, eventType string, user *models.User, receipt *models.LoanReceipt) {
	if s.Notifier == nil {
		return
	}

	var subject, body string

	switch eventType {
	case notify.EventBookIssued:
		subject = fmt.Sprintf("You borrowed %q", receipt.Book.Title)
		body = fmt.Sprintf("Due back on %s", receipt.Due_date.Format("Mon, 02 Jan 2006"))
	case notify.EventBookReturned:
		subject = fmt.Sprintf("You returned %q", receipt.Book.Title)
		body = "Thanks for returning it on time"
	}

	if err := s.Notifier.Publish(r.Context(), &notify.Event{
		Type:    eventType,
		To:      user.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		s.Logger.Error(fmt.Sprintf("error publishing message to queue: %v", err), "service", "publishLoanNotice")
	}
}
