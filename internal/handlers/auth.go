package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/utils"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
	Secure    bool
}

func (h *AuthHandler) setSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID, u.Username, string(u.Role), h.Expires)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     utils.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
	return nil
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"action": "/login",
			"fields": []string{"username", "password"},
			"flags":  c.Queries(),
		},
	})
}

// Login checks the credentials and sets the session cookie. Legacy plain
// hashes are replaced with bcrypt on the first successful login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return c.Redirect("/login?e=1", fiber.StatusFound)
	}

	var u models.User
	err := h.DB.WithContext(c.UserContext()).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Redirect("/login?e=1", fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	if !u.IsActive || !utils.CheckPassword(u.PasswordHash, password) {
		return c.Redirect("/login?e=1", fiber.StatusFound)
	}

	if utils.NeedsUpgrade(u.PasswordHash) {
		if hashed, err := utils.HashPassword(password); err == nil {
			if err := h.DB.Model(&u).Update("password_hash", hashed).Error; err != nil {
				logger.Warn().Err(err).Uint("user_id", u.ID).Msg("password upgrade failed")
			}
		}
	}

	if err := h.setSession(c, &u); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     utils.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: "Lax",
	})
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"action": "/register",
			"fields": []string{"username", "password", "password2", "role", "full_name", "phone", "email", "agree"},
			"roles":  []models.Role{models.RoleClient, models.RoleFreelancer},
			"flags":  c.Queries(),
		},
	})
}

func registerFail(c *fiber.Ctx, code string) error {
	return c.Redirect("/register?e="+code, fiber.StatusFound)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	role := models.Role(strings.ToLower(strings.TrimSpace(c.FormValue("role"))))
	fullName := strings.TrimSpace(c.FormValue("full_name"))

	switch {
	case !models.ValidRole(role):
		return registerFail(c, "role")
	case password == "" || password != c.FormValue("password2"):
		return registerFail(c, "pwd")
	case c.FormValue("agree") == "":
		return registerFail(c, "agree")
	case fullName == "":
		return registerFail(c, "fullname")
	case username == "":
		return registerFail(c, "user")
	}

	db := h.DB.WithContext(c.UserContext())

	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		logger.Error().Err(err).Str("request_id", logger.RequestID(c)).Msg("register lookup failed")
		return registerFail(c, "dberr")
	}
	if n > 0 {
		return registerFail(c, "user")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	email := optional(strings.ToLower(c.FormValue("email")))
	u := models.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
		FullName:     fullName,
		Phone:        optional(c.FormValue("phone")),
		Email:        email,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return registerFail(c, "user")
		}
		logger.Error().Err(err).Str("request_id", logger.RequestID(c)).Msg("register insert failed")
		return registerFail(c, "dberr")
	}

	logger.Info().Uint("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return c.Redirect("/register?ok=1", fiber.StatusFound)
}
