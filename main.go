package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"kbdesk/auth"
	"kbdesk/common"
	"kbdesk/config"
	"kbdesk/database"
	"kbdesk/server"
	"kbdesk/store"
)

func main() {
	conf := config.MustLoad("config.yaml")

	gin.SetMode(conf.Server.Mode)

	db, err := common.ConnectDb(conf.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	sessionStore := auth.NewSessionStore(conf.Session)
	router := server.NewRouter(conf, store.New(db), sessionStore)

	log.Printf("Starting server on port %s...", conf.Server.Port)
	if err := router.Run(":" + conf.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
