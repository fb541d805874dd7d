package tags

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/auth"
	"kbdesk/models"
	"kbdesk/store"
)

type TagsModule struct {
	store *store.Store
	gate  *auth.Gate
}

func NewTagsModule(s *store.Store, gate *auth.Gate) *TagsModule {
	return &TagsModule{store: s, gate: gate}
}

type createRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

func (m *TagsModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/tags")
	group.Use(m.gate.Require())
	{
		group.GET("", m.list)
		group.POST("", m.create)
		group.DELETE("/:id", m.delete)
	}
}

func (m *TagsModule) list(c *gin.Context) {
	tags, err := m.store.ListTags(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (m *TagsModule) create(c *gin.Context) {
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

	tag := &models.Tag{Name: name}
	if err := m.store.CreateTag(c.Request.Context(), tag); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// delete drops the tag and its article links. Articles are untouched.
func (m *TagsModule) delete(c *gin.Context) {
	if err := m.store.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted"})
}
