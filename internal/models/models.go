package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Role       string    `json:"role"`
	Image      string    `json:"image,omitempty"`
	Created_at time.Time `json:"createdAt"`
}

type Book struct {
	Id            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Cover         string    `json:"cover"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Total_copies  int       `json:"totalCopies"`
	Issued_copies int       `json:"issuedCopies"`
	Created_at    time.Time `json:"createdAt"`
}

// IssuedBook is one open loan held by a user, joined with the book it
// points at for display.
type IssuedBook struct {
	Book_id     uuid.UUID `json:"bookId"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Cover       string    `json:"cover"`
	Issued_date time.Time `json:"issuedDate"`
	Due_date    time.Time `json:"dueDate"`
}

type HistoryEntry struct {
	Id            uuid.UUID  `json:"id"`
	Book_id       uuid.UUID  `json:"bookId"`
	User_id       uuid.UUID  `json:"userId"`
	Book_title    string     `json:"bookTitle"`
	Username      string     `json:"username"`
	Action        string     `json:"action"`
	Issued_date   time.Time  `json:"issuedDate"`
	Due_date      *time.Time `json:"dueDate,omitempty"`
	Returned_date *time.Time `json:"returnedDate,omitempty"`
}

// LoanReceipt is what an issue or return transaction hands back: the
// book as it now stands and how many loans the user still holds open.
type LoanReceipt struct {
	Book       Book
	Due_date   time.Time
	Open_loans int
}

type HandleRegisterParams struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type HandleRegisterResponse struct {
	Id string `json:"id"`
}

type HandleLoginParams struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type HandleLoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type HandleForgotPasswordParams struct {
	Email string `json:"email" validate:"required,email"`
}

type HandleResetPasswordParams struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type HandleUpsertBookParams struct {
	Title        string `json:"title" validate:"required"`
	Author       string `json:"author" validate:"required"`
	Cover        string `json:"cover"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Total_copies int    `json:"totalCopies" validate:"required,min=1"`
}

type CatalogBook struct {
	Book
	Available_copies int        `json:"availableCopies"`
	Issued_by_user   bool       `json:"issuedByUser"`
	Due_date         *time.Time `json:"dueDate,omitempty"`
}

type HandleGetBooksResponse struct {
	Books []CatalogBook `json:"books"`
}

type HandleLoanResponse struct {
	Message         string `json:"message"`
	Book            Book   `json:"book"`
	Remaining_books int    `json:"remainingBooks"`
}

type HandleGetMyBooksResponse struct {
	Books []IssuedBook `json:"books"`
}

type HandleGetUsersResponse struct {
	Users []User `json:"users"`
}

type HandleGetHistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

type HandleBookResponse struct {
	Message string `json:"message"`
	Book    Book   `json:"book"`
}

type HandleProfileResponse struct {
	User         User         `json:"user"`
	Issued_books []IssuedBook `json:"issuedBooks"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
