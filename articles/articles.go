package articles

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/auth"
	"kbdesk/markdown"
)

type ArticlesModule struct {
	manager *Manager
	gate    *auth.Gate
}

func NewArticlesModule(manager *Manager, gate *auth.Gate) *ArticlesModule {
	return &ArticlesModule{manager: manager, gate: gate}
}

type createRequest struct {
	Title      string   `json:"title" binding:"required,min=1"`
	Content    string   `json:"content" binding:"required,min=1"`
	Excerpt    *string  `json:"excerpt"`
	CoverImage *string  `json:"coverImage"`
	Status     string   `json:"status" binding:"omitempty,oneof=draft published"`
	CategoryID *string  `json:"categoryId"`
	TagIDs     []string `json:"tagIds"`
}

// updateRequest distinguishes an absent tagIds (nil) from an empty one.
// categoryId set to null or "" detaches the category; leaving it out keeps it.
type updateRequest struct {
	Title      *string        `json:"title" binding:"omitempty,min=1"`
	Content    *string        `json:"content" binding:"omitempty,min=1"`
	Excerpt    *string        `json:"excerpt"`
	CoverImage *string        `json:"coverImage"`
	Status     *string        `json:"status" binding:"omitempty,oneof=draft published"`
	CategoryID optionalString `json:"categoryId"`
	TagIDs     *[]string      `json:"tagIds"`
}

// optionalString remembers whether its field was present in the body, so an
// explicit null is not mistaken for an omitted field.
type optionalString struct {
	Present bool
	Value   *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// patchValue maps the field onto ArticlePatch: nil when absent, "" when null.
func (o optionalString) patchValue() *string {
	if !o.Present {
		return nil
	}
	if o.Value == nil {
		detach := ""
		return &detach
	}
	return o.Value
}

// detailResponse is a resolved article plus its rendered body.
type detailResponse struct {
	*ArticleView
	ContentHTML string `json:"contentHtml"`
}

func (a *ArticlesModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/articles")
	group.Use(a.gate.Require())
	{
		group.GET("", a.list)
		group.GET("/recent", a.recent)
		group.GET("/:id", a.get)
		group.POST("", a.create)
		group.PATCH("/:id", a.update)
		group.DELETE("/:id", a.delete)
	}
}

func (a *ArticlesModule) list(c *gin.Context) {
	views, err := a.manager.List(c.Request.Context(), ListFilter{
		Status:     c.Query("status"),
		CategoryID: c.Query("categoryId"),
		TagID:      c.Query("tagId"),
		AuthorID:   c.Query("authorId"),
		Query:      strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (a *ArticlesModule) recent(c *gin.Context) {
	limit := DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apperr.Respond(c, apperr.Validation("field 'limit' must be a non-negative integer"))
			return
		}
		limit = n
	}

	views, err := a.manager.Recent(c.Request.Context(), limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// get counts a view unless the article is being opened for editing.
func (a *ArticlesModule) get(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if !isTruthy(c.Query("edit")) {
		if err := a.manager.IncrementViews(ctx, id); err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	view, err := a.manager.Get(ctx, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, detailResponse{
		ArticleView: view,
		ContentHTML: markdown.Render(view.Content),
	})
}

func (a *ArticlesModule) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	article, err := a.manager.Create(c.Request.Context(), ArticleInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Status:     req.Status,
		CategoryID: req.CategoryID,
		AuthorID:   auth.CurrentUserID(c),
	}, req.TagIDs)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (a *ArticlesModule) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	article, err := a.manager.Update(c.Request.Context(), c.Param("id"), ArticlePatch{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Status:     req.Status,
		CategoryID: req.CategoryID.patchValue(),
	}, req.TagIDs)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (a *ArticlesModule) delete(c *gin.Context) {
	if err := a.manager.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
