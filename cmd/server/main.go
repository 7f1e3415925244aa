package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/vralytics/portfolio-service/internal/api"
	"github.com/vralytics/portfolio-service/internal/config"
	"github.com/vralytics/portfolio-service/internal/database"
	"github.com/vralytics/portfolio-service/internal/kafka"
	"github.com/vralytics/portfolio-service/internal/portfolio"
	"github.com/vralytics/portfolio-service/internal/quotes"
	"github.com/vralytics/portfolio-service/internal/redis"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (continuing without quote cache)", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Connected to Redis quote cache")
	}

	// Create Kafka producer for net worth events
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NetWorthTopic)
	defer producer.Close()
	log.Printf("Kafka producer initialized (brokers: %v, topic: %s)",
		cfg.Kafka.Brokers, cfg.Kafka.NetWorthTopic)

	// Quote source: redis cache with quotes-table fallback. The redis
	// client is nil when the cache is down; lookups then go straight to
	// the database.
	var quoteCache quotes.Cache
	if redisClient != nil {
		quoteCache = redisClient
	}
	quoteSource := quotes.NewSource(quoteCache, db)

	// Portfolio service wires the aggregator and recorder together
	service := portfolio.NewService(db, db, db, quoteSource, producer)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start Kafka consumer for position snapshots
	positionsConsumer := kafka.NewPositionsConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PositionsTopic,
		cfg.Kafka.ConsumerGroup,
		db,
	)
	go func() {
		log.Printf("Starting Kafka positions consumer for topic: %s (group: %s-positions)",
			cfg.Kafka.PositionsTopic, cfg.Kafka.ConsumerGroup)
		if err := positionsConsumer.Start(ctx); err != nil {
			log.Printf("Kafka positions consumer error: %v", err)
		}
	}()

	// Set up HTTP handler and routes
	handler := api.NewHandler(service, db, redisClient)
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop the Kafka consumer
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Kafka consumer
	if err := positionsConsumer.Close(); err != nil {
		log.Printf("Error closing Kafka positions consumer: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(databaseUrl string) error {
	m, err := migrate.New("file://./db/migrations", databaseUrl)
	if err != nil {
		return err
	}

	// Apply all available migrations up to the latest version
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	// ErrNoChange simply means the database was already current
	if err == migrate.ErrNoChange {
		log.Println("No migrations to apply; database is up to date.")
	}

	return nil
}
