package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-delivery/internal/auth"
	"chat-delivery/internal/broker"
	"chat-delivery/internal/config"
	"chat-delivery/internal/db"
	"chat-delivery/internal/directory"
	"chat-delivery/internal/handlers"
	"chat-delivery/internal/middleware"
	"chat-delivery/internal/observability"
	"chat-delivery/internal/presence"
	"chat-delivery/internal/relay"
	"chat-delivery/internal/repositories"
	"chat-delivery/internal/telemetry"
	"chat-delivery/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	brk := broker.New(cfg.AMQPURL, cfg.AMQPExchange)
	defer brk.Close()
	if reason := broker.NoopReason(brk); reason != "" {
		log.Printf("broker mode=%s reason=%s", broker.Mode(brk), reason)
	} else {
		log.Printf("broker mode=%s", broker.Mode(brk))
	}

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database, conversationRepo)
	userDirectory := directory.NewRepo(database)
	validator := auth.NewJWTValidator(cfg.JWTSecret)

	registry := ws.NewRegistry()
	tracker := presence.NewTracker(registry)

	deliveryRelay := relay.New(brk, registry)
	if err := deliveryRelay.Run(ctx); err != nil {
		log.Fatalf("failed to start relay subscriber: %v", err)
	}

	audit := telemetry.NewAuditEmitter(brk, cfg.ServiceName, cfg.Environment)

	chatHandler := handlers.NewChatHandler(conversationRepo, messageRepo, userDirectory, tracker, deliveryRelay, audit)
	chatWS := ws.NewChatWebSocketHandler(registry, tracker, validator)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(validator)

	api := router.Group("/api/chat", authMiddleware)
	api.GET("/conversations", chatHandler.ListConversations)
	api.POST("/conversation", chatHandler.CreateOrGetConversation)
	api.GET("/conversation", chatHandler.GetConversation)
	api.POST("/conversation/read", chatHandler.MarkConversationRead)
	api.DELETE("/conversation", chatHandler.DeleteConversation)
	api.GET("/conversations/:conversation_id/messages", chatHandler.GetMessages)
	api.GET("/messages/between", chatHandler.GetMessagesBetween)
	api.POST("/send", chatHandler.SendMessage)
	api.POST("/message/read", chatHandler.MarkMessageRead)
	api.POST("/messages/read", chatHandler.MarkAllMessagesRead)

	router.GET("/ws/chat", chatWS.Handle)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
