package main

import (
	"net/http"
	"os"
	"time"

	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/api"
	"github.com/tonecloset/tonecloset/internal/catalog"
	"github.com/tonecloset/tonecloset/internal/color"
	"github.com/tonecloset/tonecloset/internal/config"
	"github.com/tonecloset/tonecloset/internal/database"
	"github.com/tonecloset/tonecloset/internal/logging"
	"github.com/tonecloset/tonecloset/internal/recommend"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	dbConfig := database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	migrator := database.NewMigrator(db.Conn(), cfg.Database.Type, logging.Component(log, "migrator"))
	if err := migrator.Run(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	runRepo := database.NewRunRepository(db)

	aiClient := ai.NewClient(&ai.Config{
		BaseURL:        cfg.AI.BaseURL,
		TimeoutSeconds: cfg.AI.TimeoutSeconds,
	}, logging.Component(log, "ai-client"))

	cache := ai.NewAnalysisCache(
		time.Duration(cfg.Recommend.CacheMinutes)*time.Minute,
		cfg.Recommend.CacheMaxPerShard,
	)

	recommender := recommend.NewService(aiClient, cache, recommend.Config{
		Policy:         color.PolicyByName(cfg.Recommend.Policy),
		PacingInterval: time.Duration(cfg.Recommend.PacingMillis) * time.Millisecond,
		CollectUnknown: cfg.Recommend.CollectUnknown,
	}, logging.Component(log, "recommend"))

	scraper := catalog.NewListingScraper(cfg.Catalog.SiteBase, logging.Component(log, "catalog"))

	app := &api.App{
		AIClient:          aiClient,
		Recommender:       recommender,
		Source:            scraper,
		RunRepo:           runRepo,
		DefaultListingURL: cfg.Catalog.ListingURL,
		DefaultLimit:      cfg.Catalog.Limit,
		Log:               logging.Component(log, "api"),
	}

	router := api.NewRouter(app)

	log.Info().
		Str("port", cfg.Server.Port).
		Str("db_type", cfg.Database.Type).
		Str("ai_server", cfg.AI.BaseURL).
		Str("policy", cfg.Recommend.Policy).
		Msg("server starting")

	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
