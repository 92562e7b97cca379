package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes registered
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(recoveryMiddleware())
	r.Use(loggerMiddleware())
	r.Use(corsMiddleware())

	api := r.Group("/api/v1")
	{
		accounts := api.Group("/accounts")
		{
			accounts.POST("", h.RegisterAccount)
			accounts.GET("/:id", h.GetAccount)
			accounts.GET("/:id/transactions", h.GetAccountTransactions)
		}

		transfers := api.Group("/transfers")
		{
			transfers.POST("", h.Transfer)
			transfers.GET("/check", h.CheckTransferLimit)
		}

		rankings := api.Group("/rankings")
		{
			rankings.GET("", h.GetRankings)
			rankings.GET("/:id", h.GetUserRanking)
		}

		rooms := api.Group("/rooms")
		{
			rooms.POST("", h.CreateRoom)
			rooms.GET("/:code", h.GetRoom)
			rooms.POST("/:code/join", h.JoinRoom)
			rooms.POST("/:code/leave", h.LeaveRoom)
			rooms.POST("/:code/heartbeat", h.Heartbeat)
			rooms.GET("/:code/members", h.GetRoomMembers)
			rooms.GET("/:code/transactions", h.GetRoomTransactions)
			rooms.POST("/:code/transfers", h.RoomTransfer)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/rules", h.GetRules)
			admin.POST("/rules", h.CreateRule)
			admin.PATCH("/rules/:id", h.UpdateRule)
			admin.POST("/adjust", h.Adjust)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
