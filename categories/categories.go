package categories

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/auth"
	"kbdesk/models"
	"kbdesk/store"
)

type CategoriesModule struct {
	store *store.Store
	gate  *auth.Gate
}

func NewCategoriesModule(s *store.Store, gate *auth.Gate) *CategoriesModule {
	return &CategoriesModule{store: s, gate: gate}
}

type createRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description"`
	Color       string  `json:"color" binding:"omitempty,hexcolor"`
}

func (m *CategoriesModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/categories")
	group.Use(m.gate.Require())
	{
		group.GET("", m.list)
		group.POST("", m.create)
		group.DELETE("/:id", m.delete)
	}
}

func (m *CategoriesModule) list(c *gin.Context) {
	categories, err := m.store.ListCategories(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (m *CategoriesModule) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		apperr.Respond(c, apperr.Validation("field 'name' is required"))
		return
	}

	category := &models.Category{
		Name:        name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := m.store.CreateCategory(c.Request.Context(), category); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// delete leaves the category's articles in place, uncategorized.
func (m *CategoriesModule) delete(c *gin.Context) {
	if err := m.store.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
