package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"

	"github.com/xin-kz910/SE-project/internal/db/dbtest"
	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/utils"
)

func fakeGoogle(t *testing.T, email string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"` + email + `","verified_email":true,"name":"X"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func googleApp(t *testing.T, email string) (*fiber.App, *AuthHandler) {
	t.Helper()
	srv := fakeGoogle(t, email)
	auth := &AuthHandler{DB: dbtest.Open(t), JWTSecret: testSecret, Expires: 60}
	h := &GoogleOAuthHandler{
		Auth: auth,
		OAuth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://app/auth/google/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/auth",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: srv.URL + "/userinfo",
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/auth/google/start", h.GoogleStart)
	app.Get("/auth/google/callback", h.GoogleCallback)
	return app, auth
}

func callback(t *testing.T, app *fiber.App, state, cookieState string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state="+state, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestGoogleStart(t *testing.T) {
	app, _ := googleApp(t, "a@example.com")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTemporaryRedirect {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var state string
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			state = c.Value
		}
	}
	if state == "" || !strings.Contains(resp.Header.Get("Location"), "state="+state) {
		t.Fatalf("state cookie %q not in %q", state, resp.Header.Get("Location"))
	}
}

func TestGoogleCallback(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		app, _ := googleApp(t, "a@example.com")
		wantRedirect(t, callback(t, app, "s1", "s2"), "/login?e=google_state")
	})

	t.Run("unknown email", func(t *testing.T) {
		app, _ := googleApp(t, "nobody@example.com")
		wantRedirect(t, callback(t, app, "s1", "s1"), "/login?e=google_unlinked")
	})

	t.Run("linked account", func(t *testing.T) {
		app, auth := googleApp(t, "Carol@Example.com")
		email := "carol@example.com"
		u := models.User{Username: "carol", PasswordHash: "x", Role: models.RoleClient, FullName: "Carol", Email: &email, IsActive: true}
		if err := auth.DB.Create(&u).Error; err != nil {
			t.Fatal(err)
		}

		resp := callback(t, app, "s1", "s1")
		wantRedirect(t, resp, "/")

		var tok string
		for _, c := range resp.Cookies() {
			if c.Name == utils.CookieName {
				tok = c.Value
			}
		}
		claims, err := utils.ParseJWT(testSecret, tok)
		if err != nil || claims.UserID != u.ID {
			t.Fatalf("claims=%+v err=%v", claims, err)
		}
	})
}
