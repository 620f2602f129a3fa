package main

import (
	"fmt"
	"os"

	"github.com/fieldwise/visits-service/internal/auth"
	"github.com/fieldwise/visits-service/internal/config"
	"github.com/fieldwise/visits-service/internal/db"
	"github.com/fieldwise/visits-service/internal/excel"
	httphandler "github.com/fieldwise/visits-service/internal/http"
	"github.com/fieldwise/visits-service/internal/http/middleware"
	"github.com/fieldwise/visits-service/internal/logger"
	"github.com/fieldwise/visits-service/internal/pdf"
	"github.com/fieldwise/visits-service/internal/repository"
	"github.com/fieldwise/visits-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	visitRepo := repository.NewVisitRepository(database)
	queryRepo := repository.NewQueryRepository(database)

	assignService := service.NewAssignService(visitRepo, log)
	seriesService := service.NewSeriesService(visitRepo, assignService, log)
	lifecycleService := service.NewLifecycleService(visitRepo, assignService, log)
	queryService := service.NewQueryService(queryRepo)
	reportService := service.NewReportService(visitRepo, queryService, excel.NewGenerator(), pdf.NewGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(seriesService, assignService, lifecycleService, queryService, reportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting visits service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
