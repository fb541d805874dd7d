package dashboard

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kbdesk/apperr"
	"kbdesk/auth"
	"kbdesk/models"
	"kbdesk/store"
)

const topArticlesLimit = 5

type DashboardModule struct {
	store *store.Store
	gate  *auth.Gate
}

func NewDashboardModule(s *store.Store, gate *auth.Gate) *DashboardModule {
	return &DashboardModule{store: s, gate: gate}
}

// Stats are the headline numbers of the knowledge base.
type Stats struct {
	TotalArticles     int64 `json:"totalArticles"`
	PublishedArticles int64 `json:"publishedArticles"`
	DraftArticles     int64 `json:"draftArticles"`
	TotalEmployees    int64 `json:"totalEmployees"`
	TotalViews        int64 `json:"totalViews"`
	TotalCategories   int64 `json:"totalCategories"`
}

func (d *DashboardModule) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/dashboard")
	group.Use(d.gate.Require())
	{
		group.GET("/stats", d.stats)
		group.GET("/top-articles", d.topArticles)
	}
}

// Collect gathers the dashboard numbers.
func (d *DashboardModule) Collect(ctx context.Context) (Stats, error) {
	counts, err := d.store.CountArticles(ctx)
	if err != nil {
		return Stats{}, err
	}
	employees, err := d.store.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	categories, err := d.store.CountCategories(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalArticles:     counts.Total,
		PublishedArticles: counts.Published,
		DraftArticles:     counts.Draft,
		TotalEmployees:    employees,
		TotalViews:        counts.Views,
		TotalCategories:   categories,
	}, nil
}

func (d *DashboardModule) stats(c *gin.Context) {
	stats, err := d.Collect(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type topArticle struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Views  int64  `json:"views"`
}

func (d *DashboardModule) topArticles(c *gin.Context) {
	rows, err := d.store.TopArticles(c.Request.Context(), topArticlesLimit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	out := make([]topArticle, 0, len(rows))
	for _, a := range rows {
		out = append(out, summarize(a))
	}
	c.JSON(http.StatusOK, out)
}

func summarize(a models.Article) topArticle {
	return topArticle{ID: a.ID, Title: a.Title, Status: a.Status, Views: a.Views}
}
