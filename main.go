package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"group-service/internal/badges"
	"group-service/internal/config"
	"group-service/internal/db"
	"group-service/internal/handlers"
	"group-service/internal/middleware"
	"group-service/internal/observability"
	"group-service/internal/rabbitmq"
	"group-service/internal/repositories"
	"group-service/internal/telemetry"
	"group-service/internal/ws"
)

func main() {
	cfg := config.Load()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode: %s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("event publisher disabled: %v", err)
	} else {
		defer eventPublisher.Close()
		observability.SetPublisher(eventPublisher)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload dir: %v", err)
	}

	groupRepo := repositories.NewGroupRepo(database)
	postRepo := repositories.NewPostRepo(database)
	commentRepo := repositories.NewCommentRepo(database)

	awarder := badges.NewAwarder(groupRepo, postRepo, audit)
	hub := ws.NewHub()

	groupHandler := handlers.NewGroupHandler(groupRepo, postRepo, awarder, hub, audit)
	postHandler := handlers.NewPostHandler(postRepo, groupRepo, awarder, hub, audit)
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, hub, audit)
	imageHandler := handlers.NewImageHandler(cfg, audit)
	feedWS := ws.NewFeedHandler(hub, groupRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups", groupHandler.ListGroups)
	api.GET("/groups/:group_id", groupHandler.GetGroupDetail)
	api.PUT("/groups/:group_id", groupHandler.UpdateGroup)
	api.DELETE("/groups/:group_id", groupHandler.DeleteGroup)
	api.POST("/groups/:group_id/like", groupHandler.LikeGroup)
	api.POST("/groups/:group_id/verify-password", groupHandler.VerifyGroupPassword)
	api.GET("/groups/:group_id/is-public", groupHandler.GroupIsPublic)

	api.POST("/groups/:group_id/posts", postHandler.CreatePost)
	api.GET("/groups/:group_id/posts", postHandler.ListPosts)
	api.GET("/posts/:post_id", postHandler.GetPost)
	api.PUT("/posts/:post_id", postHandler.UpdatePost)
	api.DELETE("/posts/:post_id", postHandler.DeletePost)
	api.POST("/posts/:post_id/like", postHandler.LikePost)
	api.POST("/posts/:post_id/verify-password", postHandler.VerifyPostPassword)
	api.GET("/posts/:post_id/is-public", postHandler.PostIsPublic)

	api.POST("/posts/:post_id/comments", commentHandler.CreateComment)
	api.GET("/posts/:post_id/comments", commentHandler.ListComments)
	api.PUT("/comments/:comment_id", commentHandler.UpdateComment)
	api.DELETE("/comments/:comment_id", commentHandler.DeleteComment)

	api.POST("/image", imageHandler.Upload)
	router.Static(cfg.UploadURLPrefix, cfg.UploadDir)

	router.GET("/ws/groups/:group_id", feedWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
