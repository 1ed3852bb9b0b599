// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tulong/internal/ai"
	"tulong/internal/config"
	httptransport "tulong/internal/http"
	"tulong/internal/infra"
	"tulong/internal/logger"
	"tulong/internal/maps"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/location"
	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/modules/smartmatch"
	"tulong/internal/modules/volunteer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID != "" {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("firebase init failed")
		}
	} else {
		logger.Warn().Msg("TULONG_FIREBASE_PROJECT_ID not set; API runs without authentication")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	defer dbPool.Close()

	if err := infra.RunMigrations(cfg.DB.DSN, cfg.DB.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	donationStore := donation.NewStore(dbPool)
	requestStore := request.NewStore(dbPool)
	volunteerStore := volunteer.NewStore(dbPool)

	locationStore := location.NewStore(dbPool, redisClient)
	locationSvc := location.NewService(locationStore)

	tables, err := matching.LoadTables(cfg.Matching.WeightsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.Matching.WeightsFile).Msg("weight table load failed")
	}

	matchingStore := matching.NewStore(donationStore, requestStore, volunteerStore, locationSvc)
	var matchingOpts []matching.Option
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("maps init failed")
		}
		matchingOpts = append(matchingOpts, matching.WithTravelTimer(routeSvc))
	}
	matchingSvc := matching.NewService(matchingStore, tables, cfg.Matching, matchingOpts...)

	smartMatchStore := smartmatch.NewStore(dbPool)
	smartMatchSvc := smartmatch.NewService(smartMatchStore, donationStore, requestStore, cfg.Matching.AutoMatchThreshold)

	var narrator ai.Narrator
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiNarrator(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini init failed")
		}
		defer gemini.Close()
		narrator = gemini
	} else {
		narrator = ai.NewTemplateNarrator()
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Matching:   matchingSvc,
		Matches:    smartMatchSvc,
		Location:   locationSvc,
		Donations:  donationStore,
		Requests:   requestStore,
		Volunteers: volunteerStore,
		Narrator:   narrator,
		Verifier:   verifier,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
