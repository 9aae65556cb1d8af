package cookies

import (
	"net/http/httptest"
	"testing"
)

func TestCreateAccessAndRefreshTokens(t *testing.T) {
	rr := httptest.NewRecorder()

	token, err := CreateAccessAndRefreshTokens(rr, "12345", "secret")

	if err != nil {
		t.Fatal(err)
	}

	if token == "" {
		t.Fatal("expected a token, got an empty string")
	}

	cookies := rr.Result().Cookies()

	var hasAccess, hasRefresh bool

	for _, c := range cookies {
		switch c.Name {
		case "access_token":
			hasAccess = true
			if !c.HttpOnly {
				t.Fatal("access token cookie should be http only")
			}
		case "refresh_token":
			hasRefresh = true
		}
	}

	if !hasAccess || !hasRefresh {
		t.Fatalf("expected access and refresh cookies, got %v", cookies)
	}
}

func TestClearTokens(t *testing.T) {
	rr := httptest.NewRecorder()

	ClearTokens(rr)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge != -1 {
			t.Fatalf("expected cookie %s to be expired", c.Name)
		}
	}
}
