package main

import (
	"line-gateway/internal/api"
	"line-gateway/internal/config"
	"line-gateway/internal/database"
	"line-gateway/internal/engine"
	"line-gateway/internal/line"
	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/internal/webhook"
	"line-gateway/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel)

	var (
		persist      store.Persistence
		activitySink store.ActivitySink
		friends      store.FriendStore
	)
	if cfg.DemoMode {
		log.Info().Msg("Demo mode: using in-memory stores")
		persist = store.NewMemoryPersistence()
		activitySink = store.NewMemoryActivitySink()
		friends = store.NewMemoryFriendStore()
	} else {
		db, err := database.Init(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		persist = store.NewGormPersistence(db)
		activitySink = store.NewGormActivitySink(db)
		friends = store.NewGormFriendStore(db)
	}

	ruleStore := store.NewRuleStore(persist)
	activityStore := store.NewActivityStore(activitySink)

	hub := ws.NewHub()
	go hub.Run()

	lineClient := line.NewClient(cfg)
	replyEngine := engine.New(ruleStore, activityStore, lineClient,
		engine.WithNotifier(hub),
		engine.WithFallbackName(cfg.FallbackName),
	)
	defer replyEngine.Close()

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	webhookHandler := webhook.NewHandler(cfg, replyEngine, friends, lineClient)
	ruleHandler := api.NewRuleHandler(ruleStore)
	activityHandler := api.NewActivityHandler(activityStore, ruleStore)
	userHandler := api.NewUserHandler(friends)
	messageHandler := api.NewMessageHandler(lineClient, friends)

	// Webhook Routes
	r.POST("/webhook", webhookHandler.HandleEvents)

	// Realtime activity feed
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		// Rule Routes
		apiGroup.GET("/rules", ruleHandler.GetRules)
		apiGroup.POST("/rules", ruleHandler.CreateRule)
		apiGroup.PUT("/rules/:id", ruleHandler.UpdateRule)
		apiGroup.DELETE("/rules/:id", ruleHandler.DeleteRule)
		apiGroup.POST("/rules/:id/toggle", ruleHandler.ToggleRule)
		apiGroup.GET("/rules/:id/stats", ruleHandler.GetRuleStats)

		// Activity Routes
		apiGroup.GET("/activities", activityHandler.GetActivities)
		apiGroup.GET("/analytics", activityHandler.GetAnalytics)

		// Friend Routes
		apiGroup.GET("/users", userHandler.GetUsers)
		apiGroup.POST("/users", userHandler.CreateUser)
		apiGroup.PUT("/users/:id", userHandler.UpdateUser)
		apiGroup.DELETE("/users/:id", userHandler.DeleteUser)
		apiGroup.GET("/users/export", userHandler.ExportUsers)

		// Messaging Routes
		apiGroup.POST("/send", messageHandler.SendMessage)
		apiGroup.POST("/broadcast", messageHandler.Broadcast)
	}

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to run server")
	}
}
