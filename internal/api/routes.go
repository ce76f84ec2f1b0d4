package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/api/handlers"
	"github.com/pokertables/backend/internal/config"
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/middleware"
	"github.com/pokertables/backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	pub := events.NewPublisher(rdb)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Lobby / room directory
		v1.GET("/rooms", handlers.ListRooms(db))
		v1.POST("/rooms", handlers.CreateRoom(db, pub))
		v1.GET("/lobby/ws", handlers.HandleLobbyWebSocket(hub))

		// Aggregate all-tables display
		v1.GET("/tables", handlers.ListTableStates(db))

		room := v1.Group("/rooms/:roomID")
		{
			room.DELETE("", handlers.DeleteRoom(db, pub))
			room.GET("/state", handlers.GetTableState(db))
			room.GET("/ws", handlers.HandleTableWebSocket(db, hub))

			// Joining
			room.GET("/seats", handlers.GetOccupancy(db))
			room.POST("/join", handlers.Join(db, pub, cfg))
			room.GET("/resume", handlers.Resume(db, cfg))

			// Player self view
			room.GET("/participants/:id", handlers.GetParticipant(db))
			room.DELETE("/participants/:id", handlers.Leave(db, pub))

			// In-room admin panel; every call re-verifies the actor's
			// admin flag
			adm := room.Group("/admin/:adminID")
			{
				adm.GET("/roster", handlers.ListRoster(db))
				adm.PUT("/participants/:id/money", handlers.UpdateMoney(db, pub))
				adm.PUT("/money", handlers.BulkUpdateMoney(db, pub))
				adm.POST("/participants/:id/dealer", handlers.MakeDealer(db, pub))
				adm.POST("/participants/:id/admin", handlers.MakeAdmin(db, pub))
				adm.DELETE("/participants/:id", handlers.RemoveParticipant(db, pub))
			}
		}

		// Back-office operators
		ops := v1.Group("/ops")
		{
			ops.POST("/login", handlers.OperatorLogin(db, rdb, cfg))
			ops.POST("/logout", handlers.OperatorLogout(rdb))
			ops.GET("/audit", middleware.OperatorAuth(rdb), handlers.GetAuditLogs(db))
		}
	}
}
