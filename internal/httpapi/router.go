package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jakejheack/hanapp/internal/common"
	"github.com/jakejheack/hanapp/internal/config"
	"github.com/jakejheack/hanapp/internal/httpapi/handlers"
	"github.com/jakejheack/hanapp/internal/httpapi/middleware"
	"github.com/jakejheack/hanapp/internal/notify"
	"github.com/jakejheack/hanapp/internal/store/redisstore"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub notify.EventPublisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, pub)

	r.GET("/ping", func(c *gin.Context) {
		common.OK(c, gin.H{"pong": true})
	})

	r.GET("/users/:id", h.GetUserByID)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	authGroup.PUT("/users/availability", h.UpdateAvailability)

	// ASAP lifecycle
	authGroup.POST("/asap/listings", h.CreateAsapListing)
	authGroup.GET("/asap/listings/:id/status", h.ListingStatus)
	authGroup.POST("/asap/search-doers", h.SearchDoers)
	authGroup.POST("/asap/select-doer", h.SelectDoer)
	authGroup.POST("/asap/convert-to-public", h.ConvertToPublic)

	// operational trigger, same path the cron used to hit
	authGroup.POST("/internal/sweep", h.TriggerSweep)

	// chat
	authGroup.GET("/chat/conversations", h.ListConversations)
	authGroup.POST("/chat/messages", h.SendMessage)
	authGroup.GET("/chat/conversations/:id/messages", h.ListMessages)

	// notifications
	authGroup.GET("/notifications", h.ListNotifications)
	authGroup.GET("/notifications/unread-count", h.UnreadCount)
	authGroup.POST("/notifications/:id/read", h.MarkNotificationRead)

	return r
}
