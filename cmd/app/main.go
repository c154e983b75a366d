package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"familyquestboard/internal/api"
	"familyquestboard/internal/gamestate"
	"familyquestboard/internal/middleware"
	"familyquestboard/internal/repository"
	"familyquestboard/internal/service"
	"familyquestboard/pkg/auth"
	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	// no database configured means single-device mode off the state file
	if cfg.Database.Host == "" {
		runLocal(cfg, zapLogger)
		return
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	hub := api.NewEventHub()

	questService := service.NewQuestService(repo)
	settlementService := service.NewSettlementService(repo, hub)
	campaignService := service.NewCampaignService(repo, hub)
	characterService := service.NewCharacterService(repo)

	familyAuth := auth.NewFamilyAuth(cfg.Auth.TokenSecret, cfg.Auth.DebugMode)
	authz := middleware.NewAuthorization(characterService)

	scheduler, err := startScheduler(questService, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Shutdown()

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewQuestRoutes(a, questService, settlementService, familyAuth, authz)
	api.NewCampaignRoutes(a, campaignService, familyAuth, authz)
	api.NewCharacterRoutes(a, characterService, familyAuth, authz)
	api.NewEventRoutes(a, hub, familyAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}

// runLocal serves the family board for one device from a JSON state file.
// Every mutation goes through the gamestate reducer and is persisted before
// it is acknowledged.
func runLocal(cfg *Config, zapLogger *zap.Logger) {
	store, err := gamestate.NewStore(gamestate.NewFileStorage(cfg.Storage.Path))
	if err != nil {
		zapLogger.Fatal("Failed to load local state", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())

	a := router.Group("/api/v1")
	api.NewLocalRoutes(a, store)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server in local mode",
		zap.String("addr", addr),
		zap.String("storage_path", cfg.Storage.Path))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}

// startScheduler runs the nightly materialization so quest boards are filled
// before anyone wakes up. Board loads also materialize on demand; the job
// only keeps the window rolling for idle families.
func startScheduler(questService *service.QuestService, zapLogger *zap.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			created, err := questService.RefreshAllOccurrences(ctx, time.Now().UTC())
			if err != nil {
				zapLogger.Error("nightly materialization failed", zap.Error(err))
				return
			}
			zapLogger.Info("nightly materialization done", zap.Int("occurrences_created", created))
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
