package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/config"
	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuthHandler signs in users whose account email matches their Google
// email. It never creates accounts, since the role has to be chosen at
// registration.
type GoogleOAuthHandler struct {
	Auth        *AuthHandler
	OAuth       *oauth2.Config
	UserInfoURL string
}

func NewGoogleOAuthHandler(auth *AuthHandler, cfg config.GoogleConfig) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		Auth: auth,
		OAuth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Auth.Secure,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	return c.Redirect(h.OAuth.AuthCodeURL(st), fiber.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	stCookie := c.Cookies("oauth_state")

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, Secure: h.Auth.Secure, SameSite: "Lax"})

	if code == "" || state == "" || stCookie == "" || stCookie != state {
		return c.Redirect("/login?e=google_state", fiber.StatusFound)
	}

	ctx := c.UserContext()
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		logger.Warn().Err(err).Str("request_id", logger.RequestID(c)).Msg("google code exchange failed")
		return c.Redirect("/login?e=google", fiber.StatusFound)
	}

	resp, err := h.OAuth.Client(ctx, tok).Get(h.UserInfoURL)
	if err != nil {
		logger.Warn().Err(err).Msg("google userinfo failed")
		return c.Redirect("/login?e=google", fiber.StatusFound)
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Redirect("/login?e=google", fiber.StatusFound)
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" || !gu.VerifiedEmail {
		return c.Redirect("/login?e=google", fiber.StatusFound)
	}

	var u models.User
	err = h.Auth.DB.WithContext(ctx).Where("LOWER(email) = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !u.IsActive) {
		return c.Redirect("/login?e=google_unlinked", fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	if err := h.Auth.setSession(c, &u); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}
