package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/eventflow/eventflow/config"
	"github.com/eventflow/eventflow/internal/api/handlers"
	"github.com/eventflow/eventflow/internal/api/middleware"
	"github.com/eventflow/eventflow/internal/api/routes"
	"github.com/eventflow/eventflow/internal/authext"
	"github.com/eventflow/eventflow/internal/cache"
	"github.com/eventflow/eventflow/internal/logger"
	mongorepo "github.com/eventflow/eventflow/internal/repositories/mongo"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/storage"
	"github.com/eventflow/eventflow/internal/workers"
)

func main() {
	_ = godotenv.Load()

	logg := logger.New()
	ctx := context.Background()

	// Stores
	pg, err := config.OpenPostgres()
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	mongoDB, err := config.OpenMongo()
	if err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(mongoDB); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	fmt.Println("MongoDB connected")

	rdb, err := config.OpenRedis()
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatal("GCS_BUCKET environment variable is not set")
	}
	uploader, err := storage.NewGCSUploader(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

	// External auth service
	authURL := os.Getenv("AUTH_URL")
	authKey := os.Getenv("AUTH_API_KEY")
	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if authURL == "" || jwtSecret == "" {
		log.Fatal("AUTH_URL and AUTH_JWT_SECRET environment variables are not set")
	}
	authClient := authext.NewGoTrueClient(authURL, authKey)

	// Repositories
	profileRepo := pgrepo.NewProfileRepo(pg)
	eventRepo := pgrepo.NewEventRepo(pg)
	regRepo := pgrepo.NewRegistrationRepo(pg)
	favRepo := pgrepo.NewFavoriteRepo(pg)
	teamRepo := pgrepo.NewTeamRepo(pg)
	authEventRepo := mongorepo.NewAuthEventRepo(mongoDB)

	// Services
	c := cache.NewRedisCache(rdb)
	profileSvc := services.NewProfileService(profileRepo, uploader)
	eventSvc := services.NewEventService(eventRepo, c, uploader)
	regSvc := services.NewRegistrationService(eventRepo, regRepo, favRepo, c)
	teamSvc := services.NewTeamService(teamRepo, eventRepo)
	dashboardSvc := services.NewDashboardService(eventRepo, regRepo, c)
	analyticsSvc := services.NewAnalyticsService(eventRepo, regRepo, authEventRepo)

	// Background sweep for profiles the sign-up flow failed to create
	reconciler := &workers.ProfileReconciler{
		AuthEvents: authEventRepo,
		Profiles:   profileSvc,
		Logger:     logg,
	}
	if err := reconciler.Start(ctx); err != nil {
		log.Fatalf("reconciler init error: %v", err)
	}

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		JWT: middleware.JWTConfig{
			Secret:   jwtSecret,
			Issuer:   os.Getenv("AUTH_JWT_ISSUER"),
			Audience: os.Getenv("AUTH_JWT_AUDIENCE"),
		},
		Logger:        logg,
		Auth:          handlers.NewAuthHandler(authClient, profileSvc, authEventRepo, logg),
		Profile:       handlers.NewProfileHandler(profileSvc),
		Events:        handlers.NewEventHandler(eventSvc),
		Registrations: handlers.NewRegistrationHandler(regSvc),
		Teams:         handlers.NewTeamHandler(teamSvc),
		Dashboard:     handlers.NewDashboardHandler(dashboardSvc, profileSvc),
		Analytics:     handlers.NewAnalyticsHandler(analyticsSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
