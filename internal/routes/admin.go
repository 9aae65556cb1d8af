package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/shared"
	"github.com/oseayemenre/libsy/internal/store"
)

// HandleGetUsers godoc
//
//	@Summary	List every account
//	@Tags		admin
//	@Produce	json
//	@Failure	500	{object}	models.ErrorResponse
//	@Success	200	{object}	models.HandleGetUsersResponse
//	@Router		/admin/users [get]
func (s *Server) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.GetAllUsers(r.Context())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleGetUsers")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleGetUsersResponse{Users: users})
}

// HandleDeleteUser godoc
//
//	@Summary		Delete an account
//	@Description	Copies the account still holds are released back to the catalog first
//	@Tags			admin
//	@Produce		json
//	@Param			userID	path		string	true	"user id"
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Success		200		{object}	models.MessageResponse
//	@Router			/admin/users/{userID} [delete]
func (s *Server) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := uuid.Parse(userID); err != nil {
		s.Logger.Warn("user id is not a valid uuid", "service", "HandleDeleteUser")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("user id is not a valid uuid"))
		return
	}

	if err := s.Store.DeleteUser(r.Context(), userID); err != nil {
		if err == store.ErrUserNotFound {
			s.Logger.Warn(err.Error(), "service", "HandleDeleteUser")
			respondWithError(w, http.StatusNotFound, err)
			return
		}
		s.Logger.Error(err.Error(), "service", "HandleDeleteUser")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	s.invalidateCatalog(r)

	respondWithSuccess(w, http.StatusOK, &models.MessageResponse{Message: "User deleted successfully"})
}

// HandleCreateBook godoc
//
//	@Summary	Add a book to the catalog
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		book	body		models.HandleUpsertBookParams	true	"book"
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	500		{object}	models.ErrorResponse
//	@Success	201		{object}	models.HandleBookResponse
//	@Router		/admin/books [post]
func (s *Server) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	var params models.HandleUpsertBookParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleCreateBook")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleCreateBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	book, err := s.Store.CreateBook(r.Context(), &models.Book{
		Title:        params.Title,
		Author:       params.Author,
		Cover:        params.Cover,
		Category:     params.Category,
		Description:  params.Description,
		Total_copies: params.Total_copies,
	})

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleCreateBook")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	s.invalidateCatalog(r)

	respondWithSuccess(w, http.StatusCreated, &models.HandleBookResponse{Message: "Book added successfully", Book: *book})
}

// HandleEditBook godoc
//
//	@Summary		Edit a book
//	@Description	Rejects a total copy count below the copies currently issued
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			bookID	path		string							true	"book id"
//	@Param			book	body		models.HandleUpsertBookParams	true	"book"
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Success		200		{object}	models.HandleBookResponse
//	@Router			/admin/books/{bookID} [put]
func (s *Server) HandleEditBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if _, err := uuid.Parse(bookID); err != nil {
		s.Logger.Warn("book id is not a valid uuid", "service", "HandleEditBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("book id is not a valid uuid"))
		return
	}

	var params models.HandleUpsertBookParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleEditBook")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleEditBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	book, err := s.Store.EditBook(r.Context(), bookID, &params)

	if err != nil {
		switch err {
		case store.ErrBookNotFound:
			s.Logger.Warn(err.Error(), "service", "HandleEditBook")
			respondWithError(w, http.StatusNotFound, err)
		case store.ErrInvalidCopyCount:
			s.Logger.Warn(err.Error(), "service", "HandleEditBook")
			respondWithError(w, http.StatusBadRequest, err)
		default:
			s.Logger.Error(err.Error(), "service", "HandleEditBook")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}
		return
	}

	s.invalidateCatalog(r)

	respondWithSuccess(w, http.StatusOK, &models.HandleBookResponse{Message: "Book updated successfully", Book: *book})
}

// HandleDeleteBook godoc
//
//	@Summary		Delete a book
//	@Description	Open loans of the book are dropped from every account
//	@Tags			admin
//	@Produce		json
//	@Param			bookID	path		string	true	"book id"
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Success		200		{object}	models.MessageResponse
//	@Router			/admin/books/{bookID} [delete]
func (s *Server) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if _, err := uuid.Parse(bookID); err != nil {
		s.Logger.Warn("book id is not a valid uuid", "service", "HandleDeleteBook")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("book id is not a valid uuid"))
		return
	}

	if err := s.Store.DeleteBook(r.Context(), bookID); err != nil {
		if err == store.ErrBookNotFound {
			s.Logger.Warn(err.Error(), "service", "HandleDeleteBook")
			respondWithError(w, http.StatusNotFound, err)
			return
		}
		s.Logger.Error(err.Error(), "service", "HandleDeleteBook")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	s.invalidateCatalog(r)

	respondWithSuccess(w, http.StatusOK, &models.MessageResponse{Message: "Book deleted successfully"})
}

// HandleGetHistory godoc
//
//	@Summary	List the issue/return audit trail
//	@Tags		admin
//	@Produce	json
//	@Param		limit	query		int	false	"page size"
//	@Param		offset	query		int	false	"page offset"
//	@Failure	500		{object}	models.ErrorResponse
//	@Success	200		{object}	models.HandleGetHistoryResponse
//	@Router		/admin/history [get]
func (s *Server) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))

	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))

	if err != nil || offset < 0 {
		offset = 0
	}

	entries, err := s.Store.GetHistory(r.Context(), limit, offset)

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleGetHistory")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleGetHistoryResponse{History: entries})
}

// HandlePurgeHistory godoc
//
//	@Summary	Purge the audit trail
//	@Tags		admin
//	@Produce	json
//	@Failure	500	{object}	models.ErrorResponse
//	@Success	200	{object}	models.MessageResponse
//	@Router		/admin/history [delete]
func (s *Server) HandlePurgeHistory(w http.ResponseWriter, r *http.Request) {
	purged, err := s.Store.PurgeHistory(r.Context())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandlePurgeHistory")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.MessageResponse{Message: fmt.Sprintf("Purged %d history entries", purged)})
}
