// Package server assembles the HTTP router: middleware first, then every
// feature module under /api.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"kbdesk/articles"
	"kbdesk/auth"
	"kbdesk/categories"
	"kbdesk/config"
	"kbdesk/dashboard"
	"kbdesk/employees"
	"kbdesk/etag"
	"kbdesk/store"
	"kbdesk/tags"
)

// NewRouter wires the modules over s. sessionStore must be shared by every
// router serving the same users.
func NewRouter(conf *config.AppConfig, s *store.Store, sessionStore sessions.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{conf.Server.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(sessions.Sessions(conf.Session.Name, sessionStore))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gate := auth.NewGate(s, conf.Session.TTL)
	manager := articles.NewManager(s)

	api := router.Group("/api")
	api.Use(etag.Middleware())

	auth.NewAuthModule(s, gate).RegisterRoutes(api)
	dashboard.NewDashboardModule(s, gate).RegisterRoutes(api)
	articles.NewArticlesModule(manager, gate).RegisterRoutes(api)
	employees.NewEmployeesModule(s, gate).RegisterRoutes(api)
	categories.NewCategoriesModule(s, gate).RegisterRoutes(api)
	tags.NewTagsModule(s, gate).RegisterRoutes(api)

	return router
}
