package main

import (
	"log"

	"turtlesoup/config"
	"turtlesoup/handlers"
	"turtlesoup/middleware"
	"turtlesoup/models"
	"turtlesoup/routes"
	"turtlesoup/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Player{},
		&models.GameSession{},
		&models.QuestionRecord{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient := config.InitRedis(cfg)

	roomStore := services.NewGormRoomStore(db)
	roomService := services.NewRoomService(roomStore)
	hub := services.NewHub()

	oracle := services.NewOracle(cfg.OracleEndpoint, cfg.OracleAPIKey, cfg.OracleModel)
	sessionService := services.NewSessionService(db, redisClient, oracle)
	authService := services.NewAuthService(db, cfg.JWTSecret)
	adminService := services.NewAdminService(db, roomStore)

	authHandler := handlers.NewAuthHandler(authService)
	roomHandler := handlers.NewRoomHandler(roomService, hub)
	gameHandler := handlers.NewGameHandler(sessionService)
	adminHandler := handlers.NewAdminHandler(adminService)

	router := gin.Default()
	router.Use(middleware.CORS())

	routes.SetupRoutes(router, authHandler, roomHandler, gameHandler, adminHandler, hub, cfg.JWTSecret)

	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
