package configuration

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/auth"
	"github.com/AdityaDas31/Whisp-Backend/internal/db"
	"github.com/AdityaDas31/Whisp-Backend/internal/hub"
	"github.com/AdityaDas31/Whisp-Backend/internal/job"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
	"github.com/AdityaDas31/Whisp-Backend/internal/push"
	"github.com/AdityaDas31/Whisp-Backend/internal/repo"
	"github.com/AdityaDas31/Whisp-Backend/internal/storage"
)

type Container struct {
	Hub     *hub.Hub
	Sweeper *job.StorySweeper
	Config  Config
	Logger  *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	sweepCancel context.CancelFunc
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	messageRepo := repo.NewMessageRepository(
		db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection), logger)
	chatRepo := repo.NewChatRepository(
		db.NewRepository[model.Chat](con, config.ChatDatabase.ChatsCollection), logger)
	userRepo := repo.NewUserRepository(
		db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection), logger)
	storyRepo := repo.NewStoryRepository(
		db.NewRepository[model.Story](con, config.ChatDatabase.StoriesCollection), logger)

	var pusher push.Sender = push.Nop{}
	if config.Push.Endpoint != "" {
		pusher = push.NewHTTPSender(config.Push.Endpoint, config.Push.ServerKey)
	}

	verifier := auth.NewVerifier([]byte(config.Auth.JwtSecret))

	h := hub.NewHub(messageRepo, chatRepo, userRepo, pusher, verifier, config.Server.AllowedOrigins, logger)

	blobs, err := storage.NewS3Store(context.Background(), config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	sweeper := job.NewStorySweeper(storyRepo, blobs, config.Jobs.StorySweepSchedule, logger)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	if err := sweeper.Start(sweepCtx); err != nil {
		sweepCancel()
		return nil, fmt.Errorf("failed to start story sweep: %w", err)
	}

	return &Container{
		Hub:         h,
		Sweeper:     sweeper,
		Config:      *config,
		Logger:      logger,
		mongoClient: con,
		sweepCancel: sweepCancel,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the sweep before the database goes away
	if c.Sweeper != nil {
		c.sweepCancel()
		c.Sweeper.Stop()
	}

	// Stop the hub (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
