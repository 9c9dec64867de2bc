package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"game-service/internal/catalog"
	"game-service/internal/clock"
	"game-service/internal/config"
	"game-service/internal/database/postgres"
	"game-service/internal/database/redis"
	"game-service/internal/event"
	"game-service/internal/handlers"
	"game-service/internal/locker"
	"game-service/internal/repository"
	"game-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func setupLogging(logDir string) (*os.File, error) {
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	cfg := config.New()

	logFile, err := setupLogging(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	log.Printf("Game service starting: storage=%s lock=%s rabbitmq=%t port=%s",
		cfg.StorageMode, cfg.LockMode, cfg.RabbitMQCfg.Enabled, cfg.Port)

	healthChecks := map[string]handlers.HealthCheck{}

	// Storage
	var (
		userRepo    repository.IUserRepository
		gameCatalog *catalog.Table
	)
	switch cfg.StorageMode {
	case config.StorageModeMemory:
		userRepo = repository.NewMemoryUserRepository()
		gameCatalog = catalog.Default()
		log.Println("using in-memory storage, state is lost on restart")
	default:
		db, err := postgres.ConnectWithRetry(cfg.PostgresCfg, 5, 5*time.Second)
		if err != nil {
			log.Fatalf("error connect to database: %s", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(db); err != nil {
			log.Fatalf("failed to prepare schema: %s", err)
		}
		gameCatalog = loadCatalog(db)
		userRepo = repository.NewUserRepository(db)
		healthChecks["postgres"] = db.PingContext
	}

	// Per-player lock
	var playerLock locker.Locker = locker.NewKeyedMutex()
	if cfg.LockMode == config.LockModeRedis {
		redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
		if err != nil {
			log.Fatalf("failed to connect to redis: %s", err)
		}
		defer redisClient.Close()

		playerLock = locker.NewRedisLocker(redisClient.Raw(), time.Duration(cfg.RedisCfg.LockTTLSeconds)*time.Second)
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx)
		}
	}

	// Events
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.RabbitMQCfg.Enabled {
		rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %s", err)
		}
		defer rabbitConn.Close()

		rabbitPublisher, err := event.NewRabbitMQPublisher(rabbitConn)
		if err != nil {
			log.Fatalf("failed to create event publisher: %s", err)
		}
		publisher = rabbitPublisher
		healthChecks["rabbitmq"] = func(ctx context.Context) error {
			if !rabbitPublisher.HealthCheck().IsHealthy {
				return fmt.Errorf("rabbitmq connection closed")
			}
			return nil
		}
	}

	runner := services.NewAggregateRunner(userRepo, playerLock, cfg.EconomyCfg.AggregateMaxRetries)
	productionService := services.NewProductionService(runner, gameCatalog, clock.RealClock{}, publisher, cfg.EconomyCfg)
	mergeService := services.NewMergeService(runner, gameCatalog, clock.RealClock{}, publisher, cfg.EconomyCfg)

	r := gin.Default()
	handlers.NewHealthHandler(healthChecks).RegisterRoutes(r)
	handlers.NewBuildingHandler(productionService).RegisterRoutes(r)
	handlers.NewCreatureHandler(mergeService).RegisterRoutes(r)

	log.Printf("Starting game-service on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadCatalog prefers the seeded catalog table and falls back to the built-in levels.
func loadCatalog(db *sqlx.DB) *catalog.Table {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := repository.NewCatalogRepository(db).GetProducerLevels(ctx)
	if err != nil {
		log.Fatalf("failed to load catalog: %s", err)
	}
	if len(entries) == 0 {
		log.Println("producer_level_catalog is empty, using built-in levels")
		return catalog.Default()
	}

	table, err := catalog.NewTable(entries, catalog.DefaultMergeRules())
	if err != nil {
		log.Fatalf("invalid producer_level_catalog: %s", err)
	}
	log.Printf("loaded %d producer levels from database", len(entries))
	return table
}
