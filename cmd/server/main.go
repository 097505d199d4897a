package main

import (
	"log"
	"time"

	"whatsapp-console/internal/api"
	"whatsapp-console/internal/auth"
	"whatsapp-console/internal/config"
	"whatsapp-console/internal/database"
	"whatsapp-console/internal/webhook"
	"whatsapp-console/internal/whatsapp"
	"whatsapp-console/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	database.Init(cfg)
	database.SyncConfig(cfg)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	hub := ws.NewHub()
	go hub.Run()

	authManager := auth.NewManager(cfg.JWTSecret, 24*time.Hour)
	whatsappClient := whatsapp.NewClient(cfg)
	webhookHandler := webhook.NewHandler(cfg, hub)
	templateHandler := api.NewTemplateHandler(whatsappClient, cfg)
	contactHandler := api.NewContactHandler(hub)
	chatHandler := api.NewChatHandler(whatsappClient, hub)
	userHandler := api.NewUserHandler(authManager)

	// Webhook Routes (Meta calls these; no console session involved)
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Console event stream
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	r.POST("/api/login", userHandler.Login)

	apiGroup := r.Group("/api")
	apiGroup.Use(authManager.Middleware())
	{
		// Template Routes
		apiGroup.GET("/templates", templateHandler.GetTemplates)
		apiGroup.GET("/templates/:id", templateHandler.GetTemplate)
		apiGroup.POST("/templates", templateHandler.CreateTemplate)
		apiGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)
		apiGroup.POST("/templates/preview", templateHandler.Preview)
		apiGroup.POST("/templates/sync", templateHandler.SyncTemplates)

		// Contact Routes
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.GET("/contacts/:id", contactHandler.GetContact)
		apiGroup.POST("/contacts", contactHandler.CreateContact)
		apiGroup.PATCH("/contacts/:id", contactHandler.UpdateContact)
		apiGroup.DELETE("/contacts/:id", contactHandler.DeleteContact)
		apiGroup.POST("/contacts/:id/assign", contactHandler.AssignContact)
		apiGroup.POST("/contacts/:id/notes", contactHandler.AddNote)
		apiGroup.GET("/contacts/export", contactHandler.ExportContacts)

		// Chat Routes
		apiGroup.GET("/messages/:waId", chatHandler.GetMessages)
		apiGroup.GET("/messages/:waId/rendered", chatHandler.GetRenderedMessages)
		apiGroup.POST("/send", chatHandler.SendMessage)
		apiGroup.POST("/send-template", chatHandler.SendTemplate)
		apiGroup.POST("/broadcast", chatHandler.SendBroadcast)

		// User Routes
		apiGroup.GET("/users", userHandler.GetUsers)
		apiGroup.POST("/users", userHandler.CreateUser)
		apiGroup.GET("/users/role", userHandler.GetRole)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
