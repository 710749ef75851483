package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/config"
	"github.com/vovakirdan/bookstore-server/internal/core"
	"github.com/vovakirdan/bookstore-server/internal/store"
)

// NewServer builds the HTTP server: REST API, health check and the realtime endpoint.
func NewServer(router *core.Router, gate *core.Gate, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	messageHandlers := NewMessageHandlers(router, st, logger)
	requireAuth := AuthMiddleware(authService, logger)

	api := engine.Group("/api")

	users := api.Group("/users")
	users.POST("/register", apiHandlers.Register)
	users.POST("/login", apiHandlers.Login)
	users.GET("/me", requireAuth, userHandlers.Me)
	users.PUT("/me", requireAuth, userHandlers.UpdateMe)
	users.GET("/all", requireAuth, AdminMiddleware(logger), userHandlers.ListAll)

	messages := api.Group("/messages", requireAuth)
	messages.POST("", messageHandlers.Send)
	messages.GET("/:receiverId", messageHandlers.Conversation)

	// The websocket handler hijacks the connection itself, so it stays outside gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(router, gate, cfg, logger))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
