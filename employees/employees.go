// Package employees exposes the user directory: every account is an
// employee, admins included.
package employees

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/auth"
	"kbdesk/store"
)

type EmployeesModule struct {
	store *store.Store
	gate  *auth.Gate
}

func NewEmployeesModule(s *store.Store, gate *auth.Gate) *EmployeesModule {
	return &EmployeesModule{store: s, gate: gate}
}

type createRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,min=1,max=255"`
	Role     string `json:"role" binding:"omitempty,oneof=admin employee"`
}

type updateRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin employee"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

func (e *EmployeesModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/employees")
	group.Use(e.gate.Require())
	{
		group.GET("", e.list)
		group.POST("", e.create)
		group.PATCH("/:id", e.update)
		group.DELETE("/:id", e.delete)
	}
}

func (e *EmployeesModule) list(c *gin.Context) {
	users, err := e.store.ListUsers(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (e *EmployeesModule) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	user, err := auth.CreateAccount(c.Request.Context(), e.store, auth.AccountInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (e *EmployeesModule) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	patch := store.UserPatch{Role: req.Role}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			apperr.Respond(c, apperr.Validation("field 'fullName' is required"))
			return
		}
		patch.FullName = &name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		patch.Email = &email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			apperr.Respond(c, apperr.Store("hashing password", err))
			return
		}
		patch.PasswordHash = &hash
	}

	user, err := e.store.UpdateUser(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// delete refuses to remove the caller's own account. Authors of articles
// cannot be removed either; the store reports that as a conflict.
func (e *EmployeesModule) delete(c *gin.Context) {
	id := c.Param("id")
	if id == auth.CurrentUserID(c) {
		apperr.Respond(c, apperr.Validation("you cannot delete your own account"))
		return
	}

	if err := e.store.DeleteUser(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted"})
}
