// Package auth handles registration, login and logout, and owns the Gate
// that admits authenticated requests.
package auth

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/models"
	"kbdesk/store"
)

type AuthModule struct {
	store *store.Store
	gate  *Gate
}

func NewAuthModule(s *store.Store, gate *Gate) *AuthModule {
	return &AuthModule{store: s, gate: gate}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,min=1,max=255"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRoutes mounts the auth endpoints on api. register and login are
// public; logout and me need a session.
func (a *AuthModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/auth")
	group.POST("/register", a.register)
	group.POST("/login", a.login)
	group.POST("/logout", a.gate.Require(), a.logout)
	group.GET("/me", a.gate.Require(), a.me)
}

func (a *AuthModule) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	user, err := CreateAccount(c.Request.Context(), a.store, AccountInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     models.RoleEmployee,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := a.gate.Start(c, user); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (a *AuthModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	user, err := a.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if user == nil || !CheckPasswordHash(req.Password, user.PasswordHash) {
		apperr.Respond(c, apperr.Unauthenticated("invalid username or password"))
		return
	}

	if err := a.gate.Start(c, user); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (a *AuthModule) logout(c *gin.Context) {
	if err := a.gate.End(c); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (a *AuthModule) me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

// AccountInput is a user to be created with a plain-text password.
type AccountInput struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     string
}

// CreateAccount hashes the password and inserts the user. Username and
// full name are checked again after trimming. Duplicate usernames or emails
// fail with a conflict before any row is written.
func CreateAccount(ctx context.Context, s *store.Store, in AccountInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !models.IsValidRole(role) {
		return nil, apperr.Validation("role must be one of: admin employee")
	}

	username := strings.TrimSpace(in.Username)
	if utf8.RuneCountInString(username) < 3 {
		return nil, apperr.Validation("field 'username' must be at least 3 characters")
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, apperr.Validation("field 'fullName' is required")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Store("hashing password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
