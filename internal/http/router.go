package http

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())
	if mw := corsFor(allowedOrigins); mw != nil {
		r.Use(mw)
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/account", h.GetAccount)
		api.POST("/account/connect", h.ConnectAccount)
		api.POST("/account/disconnect", h.DisconnectAccount)

		api.GET("/cards", h.ListCards)
		api.POST("/cards/refresh", h.RefreshCards)
		api.POST("/cards/mint", h.MintCard)
		api.GET("/cards/:"+paramID, h.GetCard)

		api.GET("/operations", h.ListOperations)
		api.POST("/operations/:"+paramTx+"/retry", h.RetryOperation)
		api.DELETE("/operations/:"+paramTx, h.DismissOperation)

		api.GET("/events", h.RecentEvents)
	}

	return r
}
