package routes

import (
	"log"
	"net/http"

	"turtlesoup/handlers"
	"turtlesoup/middleware"
	"turtlesoup/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin filtering is handled by the CORS middleware
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	gameHandler *handlers.GameHandler,
	adminHandler *handlers.AdminHandler,
	hub *services.Hub,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Turtle-soup game sessions
			game := protected.Group("/game")
			{
				game.POST("/start", gameHandler.StartSession)
				game.POST("/:sessionId/ask", gameHandler.AskQuestion)
				game.POST("/:sessionId/hint", gameHandler.RequestHint)
				game.GET("/:sessionId/status", gameHandler.SessionStatus)
				game.GET("/:sessionId/state", gameHandler.SessionState)
				game.GET("/records", gameHandler.GetRecords)
				game.PUT("/records/time", gameHandler.UpdateTimeRecord)
			}

			// Room lobby
			rooms := protected.Group("/rooms")
			{
				rooms.POST("", roomHandler.CreateRoom)
				rooms.GET("", roomHandler.ListRooms)
				rooms.POST("/join", roomHandler.JoinRoomByName)
				rooms.GET("/name/:roomName", roomHandler.GetRoomByName)
				rooms.GET("/:roomId", roomHandler.GetRoom)
				rooms.POST("/:roomId/join", roomHandler.JoinRoom)
				rooms.POST("/:roomId/start", roomHandler.StartGame)
				rooms.POST("/:roomId/finish", roomHandler.FinishGame)
				rooms.PATCH("/:roomId/players/:playerId/ready", roomHandler.SetReady)
				rooms.DELETE("/:roomId/players/:playerId", roomHandler.LeaveRoom)
			}

			// Admin screens
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", adminHandler.ListUsers)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/rooms", adminHandler.ListRooms)
				admin.PUT("/rooms/:id", adminHandler.UpdateRoom)
				admin.DELETE("/rooms/:id", adminHandler.DeleteRoom)
			}
		}
	}

	// Realtime channel. Room membership happens in-band: the client sends
	// joinRoom/leaveRoom messages after the upgrade.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
