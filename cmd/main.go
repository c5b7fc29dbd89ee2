package main

import (
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"clubsync/internal/caching"
	"clubsync/internal/handlers"
	"clubsync/internal/jobs/background"
	"clubsync/internal/middleware"
	"clubsync/internal/repositories"
	"clubsync/internal/services"
	"clubsync/internal/sync"
	"clubsync/pkg/database"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// The access-key secret gates registration and login; operations fail
	// with a configuration error when it is absent rather than the whole
	// process refusing to boot.
	accessKeySecret := os.Getenv("ACCESS_KEY_SECRET")
	if accessKeySecret == "" {
		log.Printf("WARNING: ACCESS_KEY_SECRET is not set; registration and login will be refused")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	sessionConfig := services.DefaultSessionConfig()
	if v := envInt("SESSION_HEARTBEAT_INTERVAL"); v > 0 {
		sessionConfig.HeartbeatInterval = v
	}
	if v := envInt("SESSION_GRACE_PERIOD"); v > 0 {
		sessionConfig.GracePeriod = v
	}
	if v := envInt("SESSION_MAX_METADATA_SIZE"); v > 0 {
		sessionConfig.MaxMetadataSize = v
	}

	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	customerRepo := repositories.NewCustomerRepo(pool)
	consentRepo := repositories.NewPrivacyConsentRepo(pool)
	attemptRepo := repositories.NewLoginAttemptRepo(pool)
	sessionRepo := repositories.NewSessionRepo(pool)

	accessKeys := services.NewAccessKeyService(accessKeySecret)
	customerSvc := services.NewCustomerService(customerRepo, consentRepo, attemptRepo, accessKeys, cacheSvc)
	sessionSvc := services.NewSessionService(sessionRepo, customerRepo, sessionConfig)

	registry := sync.NewDesktopRegistry(pool)

	customerHandlers := handlers.NewCustomerHandlers(customerSvc)
	sessionHandlers := handlers.NewSessionHandlers(sessionSvc)
	syncHandlers := handlers.NewSyncHandlers(registry)
	healthHandlers := handlers.NewHealthHandlers(pool)

	jobScheduler := background.NewJobScheduler(cacheSvc, attemptRepo)
	if err := jobScheduler.Start(); err != nil {
		log.Printf("WARNING: background scheduler failed to start: %v", err)
	}
	defer jobScheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestContext())

	e.GET("/health", healthHandlers.HealthCheck)

	v1 := e.Group("/v1")

	// Customer registry
	v1.POST("/customers/register", customerHandlers.Register)
	v1.POST("/customers/validate", customerHandlers.Validate)
	v1.POST("/customers/save", customerHandlers.Save)
	v1.POST("/customers/login", customerHandlers.Login)
	v1.POST("/customers/await-token", customerHandlers.AwaitToken)
	v1.POST("/customers/register-token", customerHandlers.RegisterToken)
	v1.GET("/customers/:customerId", customerHandlers.GetCustomer)
	v1.GET("/customers/:customerId/token", customerHandlers.GetToken)
	v1.PATCH("/customers/:customerId", customerHandlers.Patch)

	// Bulk sync
	v1.POST("/sync/pull", syncHandlers.Pull)
	v1.POST("/sync/push", syncHandlers.Push)
	v1.GET("/sync/categories", syncHandlers.Categories)

	// Presence
	v1.POST("/sessions/start", sessionHandlers.Start)
	v1.POST("/sessions/heartbeat", sessionHandlers.Heartbeat)
	v1.POST("/sessions/end", sessionHandlers.End)
	v1.GET("/sessions", sessionHandlers.List)

	// Admin listings
	admin := v1.Group("/admin")
	admin.Use(echojwt.WithConfig(middleware.AdminJWTConfig(jwtSecret)))
	admin.GET("/customers", customerHandlers.List)
	admin.GET("/sessions", sessionHandlers.List)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func envInt(name string) int {
	value := os.Getenv(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: %s is not an integer: %v", name, err)
		return 0
	}
	return parsed
}
