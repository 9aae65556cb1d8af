package cookies

import (
	"net/http"

	"github.com/oseayemenre/libsy/internal/jwt"
)

func CreateAccessAndRefreshTokens(w http.ResponseWriter, id string, secret string) (string, error) {
	access_token, err := jwt.CreateJWTToken(id, secret)

	if err != nil {
		return "", err
	}

	refresh_token, err := jwt.CreateJWTToken(id, secret)

	if err != nil {
		return "", err
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

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refresh_token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   30 * 24 * 60 * 60,
	})

	return access_token, nil
}

func ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   "access_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.SetCookie(w, &http.Cookie{
		Name:   "refresh_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
