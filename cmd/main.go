package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/hemanthl7/auto-trade-bot/internal/config"
	"github.com/hemanthl7/auto-trade-bot/internal/database"
	"github.com/hemanthl7/auto-trade-bot/internal/handlers"
	"github.com/hemanthl7/auto-trade-bot/internal/queue"
	"github.com/hemanthl7/auto-trade-bot/internal/routes"
	"github.com/hemanthl7/auto-trade-bot/internal/services"
	"github.com/hemanthl7/auto-trade-bot/internal/tickets"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", *configFile, err)
	}

	// Initialize database
	if err := database.InitDatabase(cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (dispatch queue + ticket registry)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr(), err)
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Add middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Set up services with configuration
	setupServices(cfg, rdb)

	// Set up routes
	routes.SetupRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Webhook endpoint: http://%s/webhook", addr)
	log.Printf("Execution client poll endpoint: http://%s/receive", addr)
	log.Printf("Health check: http://%s/health", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupServices wires the queue adapter, ticket registry and relay service
// and stores the configured handler globally so routes can access it
func setupServices(cfg *config.Config, rdb *redis.Client) {
	dispatchQueue := queue.NewAdapter(rdb, cfg.Queue.Name, cfg.Queue.GroupID, cfg.Queue.DedupWindow())
	ticketRegistry := tickets.NewRegistry(rdb, cfg.Tickets.Enabled)
	relayService := services.NewRelayService(dispatchQueue, ticketRegistry, cfg)

	relayHandler := handlers.NewRelayHandler(relayService)
	relayHandler.SetConfig(cfg)

	handlers.SetGlobalHandler(relayHandler)
}
