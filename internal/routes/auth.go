package routes

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"github.com/oseayemenre/libsy/internal/bcrypt"
	"github.com/oseayemenre/libsy/internal/cookies"
	"github.com/oseayemenre/libsy/internal/jwt"
	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/notify"
	"github.com/oseayemenre/libsy/internal/shared"
	"github.com/oseayemenre/libsy/internal/store"
)

// HandleRegister godoc
//
//	@Summary		Register user
//	@Description	Register user using email, username and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		models.HandleRegisterParams	true	"user"
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		409		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Success		201		{object}	models.HandleRegisterResponse
//	@Router			/auth/register [post]
func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var params models.HandleRegisterParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleRegister")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleRegister")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	id, err := s.Store.CheckIfUserExists(r.Context(), params.Email, params.Username)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.Logger.Error(err.Error(), "service", "HandleRegister")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	if id != nil {
		s.Logger.Warn("user already exists", "service", "HandleRegister")
		respondWithError(w, http.StatusConflict, fmt.Errorf("username or email already exists"))
		return
	}

	hashedPassword, err := bcrypt.HashPassword(params.Password)

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleRegister")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	newID, err := s.Store.CreateUser(r.Context(), &models.User{
		Username: params.Username,
		Email:    params.Email,
		Password: hashedPassword,
	})

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleRegister")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, &models.HandleRegisterResponse{Id: newID.String()})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Login with username or email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			user_credentials	body		models.HandleLoginParams	true	"user credentials"
//	@Failure		400					{object}	models.ErrorResponse
//	@Failure		401					{object}	models.ErrorResponse
//	@Failure		404					{object}	models.ErrorResponse
//	@Failure		500					{object}	models.ErrorResponse
//	@Success		200					{object}	models.HandleLoginResponse
//	@Header			200					{string}	Set-Cookie	"access_token=12345 refresh_token=12345"
//	@Router			/auth/login [post]
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var params models.HandleLoginParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleLogin")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleLogin")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	user, err := s.Store.GetUserByIdentifier(r.Context(), params.Identifier)

	if err != nil {
		if err == store.ErrUserNotFound {
			s.Logger.Warn("account does not exist", "service", "HandleLogin")
			respondWithError(w, http.StatusNotFound, fmt.Errorf("account does not exist"))
			return
		}
		s.Logger.Error(err.Error(), "service", "HandleLogin")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	if err := bcrypt.ComparePassword(params.Password, user.Password); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleLogin")
		respondWithError(w, http.StatusUnauthorized, err)
		return
	}

	token, err := cookies.CreateAccessAndRefreshTokens(w, user.Id.String(), s.Config.Jwt_secret)

	if err != nil {
		s.Server.Logger.Error(err.Error(), "service", "HandleLogin")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleLoginResponse{Token: token, User: *user})
}

// HandleLogout godoc
//
//	@Summary	Logout user
//	@Tags		auth
//	@Success	204
//	@Router		/auth/logout [post]
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookies.ClearTokens(w)

	respondWithSuccess(w, http.StatusNoContent, nil)
}

// HandleRefreshToken godoc
//
//	@Summary		Refresh token
//	@Description	Get new access token
//	@Tags			auth
//	@Failure		401	{object}	models.ErrorResponse
//	@Failure		500	{object}	models.ErrorResponse
//	@Success		204
//	@Router			/auth/refresh-token [post]
func (s *Server) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := r.Cookie("refresh_token")

	if err != nil {
		s.Server.Logger.Warn("refresh token cookie not found", "service", "HandleRefreshToken")
		respondWithError(w, http.StatusUnauthorized, fmt.Errorf("refresh token cookie not found"))
		return
	}

	id, err := jwt.DecodeJWTToken(token.Value, s.Config.Jwt_secret)

	if err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleRefreshToken")
		respondWithError(w, http.StatusUnauthorized, err)
		return
	}

	access_token, err := jwt.CreateJWTToken(id, s.Config.Jwt_secret)

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleRefreshToken")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    access_token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   24 * 60 * 60,
	})

	respondWithSuccess(w, http.StatusNoContent, nil)
}

// HandleForgotPassword queues a reset mail for the notifier worker. The
// response does not reveal whether the address exists.
func (s *Server) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var params models.HandleForgotPasswordParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleForgotPassword")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleForgotPassword")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	response := &models.MessageResponse{Message: "If that account exists, a reset link has been sent"}

	user, err := s.Store.GetUserByIdentifier(r.Context(), params.Email)

	if err != nil {
		if err == store.ErrUserNotFound {
			respondWithSuccess(w, http.StatusOK, response)
			return
		}
		s.Logger.Error(err.Error(), "service", "HandleForgotPassword")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	token := uuid.NewString()

	if err := s.Store.CreatePasswordReset(r.Context(), token, user.Id.String(), time.Now().Add(time.Hour)); err != nil {
		s.Logger.Error(err.Error(), "service", "HandleForgotPassword")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	if s.Notifier != nil {
		if err := s.Notifier.Publish(r.Context(), &notify.Event{
			Type:    notify.EventPasswordReset,
			To:      user.Email,
			Subject: "Reset your password",
			Body:    fmt.Sprintf("%s/reset-password?token=%s", s.Config.Host, token),
		}); err != nil {
			s.Logger.Error(fmt.Sprintf("error publishing message to queue: %v", err), "service", "HandleForgotPassword")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
			return
		}
	}

	respondWithSuccess(w, http.StatusOK, response)
}

func (s *Server) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var params models.HandleResetPasswordParams

	if err := decodeJson(r, &params); err != nil {
		s.Logger.Warn(err.Error(), "service", "HandleResetPassword")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	if err := shared.Validate.Struct(&params); err != nil {
		s.Logger.Warn(fmt.Sprintf("error validating fields: %v", err), "service", "HandleResetPassword")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error validating fields: %v", err))
		return
	}

	hashedPassword, err := bcrypt.HashPassword(params.Password)

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleResetPassword")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.Store.ConsumePasswordReset(r.Context(), params.Token, hashedPassword); err != nil {
		if err == store.ErrResetTokenInvalid {
			s.Logger.Warn(err.Error(), "service", "HandleResetPassword")
			respondWithError(w, http.StatusBadRequest, err)
			return
		}
		s.Logger.Error(err.Error(), "service", "HandleResetPassword")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.MessageResponse{Message: "Password updated successfully"})
}

func (s *Server) HandleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(context.WithValue(r.Context(), "provider", "google"))
	gothic.BeginAuthHandler(w, r)
}

func (s *Server) HandleGoogleSignInCallback(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(context.WithValue(r.Context(), "provider", "google"))

	gothUser, err := gothic.CompleteUserAuth(w, r)

	if err != nil {
		s.Logger.Warn(fmt.Sprintf("error retrieving user details: %v", err), "service", "HandleGoogleSignInCallback")
		respondWithError(w, http.StatusNotFound, fmt.Errorf("error retrieving user details: %v", err))
		return
	}

	id, err := s.Store.CheckIfUserExists(r.Context(), gothUser.Email, "")

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.Logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	if id == nil {
		// first sign-in; the account gets an unguessable placeholder
		// password, usable only through the reset flow
		placeholder, err := bcrypt.HashPassword(uuid.NewString())

		if err != nil {
			s.Logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
			respondWithError(w, http.StatusInternalServerError, err)
			return
		}

		username := fmt.Sprintf("%s_%s", strings.Split(gothUser.Email, "@")[0], uuid.NewString()[:8])

		id, err = s.Store.CreateUser(r.Context(), &models.User{
			Username: username,
			Email:    gothUser.Email,
			Password: placeholder,
			Image:    gothUser.AvatarURL,
		})

		if err != nil {
			s.Logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
			respondWithError(w, http.StatusInternalServerError, err)
			return
		}
	}

	if _, err := cookies.CreateAccessAndRefreshTokens(w, id.String(), s.Config.Jwt_secret); err != nil {
		s.Server.Logger.Error(err.Error(), "service", "HandleGoogleSignInCallback")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	http.Redirect(w, r, "/healthz", http.StatusFound)
}

// HandleGetProfile godoc
//
//	@Summary	Get the logged in user's profile and open loans
//	@Tags		auth
//	@Produce	json
//	@Failure	500	{object}	models.ErrorResponse
//	@Success	200	{object}	models.HandleProfileResponse
//	@Router		/auth/profile [get]
func (s *Server) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	loans, err := s.Store.GetUserLoans(r.Context(), user.Id.String())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleGetProfile")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respondWithSuccess(w, http.StatusOK, &models.HandleProfileResponse{User: *user, Issued_books: loans})
}

func (s *Server) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*models.User)

	r.Body = http.MaxBytesReader(w, r.Body, 500<<10)

	if err := r.ParseMultipartForm(500 << 10); err != nil {
		s.Logger.Warn(fmt.Sprintf("error parsing form: %v", err), "service", "HandleUpdateProfile")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	updated := models.User{
		Id:       user.Id,
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
	}

	if updated.Username == user.Username {
		updated.Username = ""
	}

	if updated.Email == user.Email {
		updated.Email = ""
	}

	if updated.Username != "" || updated.Email != "" {
		id, err := s.Store.CheckIfUserExists(r.Context(), updated.Email, updated.Username)

		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.Logger.Error(err.Error(), "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusInternalServerError, err)
			return
		}

		if id != nil && *id != user.Id {
			s.Logger.Warn("username or email already taken", "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusConflict, fmt.Errorf("username or email already taken"))
			return
		}
	}

	if password := r.FormValue("password"); strings.TrimSpace(password) != "" {
		hashed, err := bcrypt.HashPassword(password)

		if err != nil {
			s.Logger.Error(err.Error(), "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusInternalServerError, err)
			return
		}

		updated.Password = hashed
	}

	file, header, err := r.FormFile("image")

	if err != nil && err != http.ErrMissingFile {
		s.Logger.Error(fmt.Sprintf("error reading form file: %v", err), "service", "HandleUpdateProfile")
		respondWithError(w, http.StatusInternalServerError, fmt.Errorf("error reading form file: %v", err))
		return
	}

	if err == nil {
		defer file.Close()

		image, err := io.ReadAll(file)

		if err != nil {
			s.Logger.Error(fmt.Sprintf("error reading bytes: %v", err), "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("error reading bytes: %v", err))
			return
		}

		if len(image) > 400<<10 {
			s.Logger.Warn("image too large", "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("image too large"))
			return
		}

		if contentType := http.DetectContentType(image); !strings.HasPrefix(contentType, "image/") {
			s.Logger.Warn("invalid file type", "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid file type"))
			return
		}

		updated.Image, err = s.Server.ObjectStore.UploadFile(r.Context(), bytes.NewReader(image), fmt.Sprintf("%s_%s", user.Id, header.Filename))

		if err != nil {
			s.Logger.Error(err.Error(), "service", "HandleUpdateProfile")
			respondWithError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := s.Store.UpdateUser(r.Context(), &updated); err != nil {
		s.Logger.Error(err.Error(), "service", "HandleUpdateProfile")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	profile, err := s.Store.GetUserById(r.Context(), user.Id.String())

	if err != nil {
		s.Logger.Error(err.Error(), "service", "HandleUpdateProfile")
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, profile)
}
