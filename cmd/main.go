package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/dmgolubev/riskgate/internal/facades"
	"github.com/dmgolubev/riskgate/internal/handlers"
	"github.com/dmgolubev/riskgate/internal/jwt"
	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/middlewares"
	"github.com/dmgolubev/riskgate/internal/repositories"
	"github.com/dmgolubev/riskgate/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title riskgate API
// @version 1.0.0
// @description Transaction velocity limiting and rule-based risk scoring for booking checkouts
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaBroker, kafkaTopic,
		geoipURL, geoipTimeout,
		jwtSecret, jwtExp,
		velocityCfg,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaBroker, kafkaTopic,
		geoipURL, geoipTimeout,
		jwtSecret, jwtExp,
		velocityCfg,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// all application, database, Redis, Kafka, geolocation, JWT, and
// velocity-ceiling configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort int, redisDB int, redisPassword string,
	kafkaBroker, kafkaTopic string,
	geoipURL string, geoipTimeout time.Duration,
	jwtSecretKey string, jwtExpSecond int,
	velocityCfg services.VelocityConfig,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "riskgate")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	redisHost = getEnv("REDIS_HOST", "localhost")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")

	// Kafka config; an empty broker disables alert publishing
	kafkaBroker = getEnv("KAFKA_BROKER", "")
	kafkaTopic = getEnv("KAFKA_ALERT_TOPIC", "risk-alerts")

	// Geolocation config
	geoipURL = getEnv("GEOIP_URL", "http://ip-api.com/json")
	var geoipTimeoutSecond int
	if geoipTimeoutSecond, err = strconv.Atoi(getEnv("GEOIP_TIMEOUT_SECOND", "5")); err != nil {
		return
	}
	geoipTimeout = time.Duration(geoipTimeoutSecond) * time.Second

	// JWT config
	jwtSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600")); err != nil {
		return
	}

	// Velocity ceilings
	velocityCfg = services.DefaultVelocityConfig()
	if velocityCfg.MaxAmountPerTransaction, err = strconv.ParseFloat(
		getEnv("VELOCITY_MAX_AMOUNT_PER_TX", strconv.FormatFloat(velocityCfg.MaxAmountPerTransaction, 'f', -1, 64)), 64); err != nil {
		return
	}
	if velocityCfg.MaxDailyAmount, err = strconv.ParseFloat(
		getEnv("VELOCITY_MAX_DAILY_AMOUNT", strconv.FormatFloat(velocityCfg.MaxDailyAmount, 'f', -1, 64)), 64); err != nil {
		return
	}
	if velocityCfg.MaxTransactionsPerHour, err = strconv.ParseInt(
		getEnv("VELOCITY_MAX_TX_PER_HOUR", strconv.FormatInt(velocityCfg.MaxTransactionsPerHour, 10)), 10, 64); err != nil {
		return
	}
	if velocityCfg.MaxTransactionsPerDayPerEmail, err = strconv.ParseInt(
		getEnv("VELOCITY_MAX_TX_PER_DAY_EMAIL", strconv.FormatInt(velocityCfg.MaxTransactionsPerDayPerEmail, 10)), 10, 64); err != nil {
		return
	}
	if velocityCfg.MaxTransactionsPerDayPerIP, err = strconv.ParseInt(
		getEnv("VELOCITY_MAX_TX_PER_DAY_IP", strconv.FormatInt(velocityCfg.MaxTransactionsPerDayPerIP, 10)), 10, 64); err != nil {
		return
	}
	if velocityCfg.SuspiciousAmountThreshold, err = strconv.ParseFloat(
		getEnv("VELOCITY_SUSPICIOUS_AMOUNT", strconv.FormatFloat(velocityCfg.SuspiciousAmountThreshold, 'f', -1, 64)), 64); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, Kafka writer, and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	kafkaBroker, kafkaTopic string,
	geoipURL string, geoipTimeout time.Duration,
	jwtSecretKey string, jwtExpSecond int,
	velocityCfg services.VelocityConfig,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s", dsn)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Fatal("PostgreSQL connection error:", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Fatal("PostgreSQL ping failed:", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", redisHost, redisPort),
		Password: redisPassword,
		DB:       redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("Redis connection error:", err)
	}
	defer rdb.Close()

	// Kafka writer for alert publishing; nil disables dispatch
	var alertWriter *kafka.Writer
	if kafkaBroker != "" {
		alertWriter = &kafka.Writer{
			Addr:     kafka.TCP(kafkaBroker),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer alertWriter.Close()
		logger.Log.Infof("Kafka alert writer configured for %s topic %s", kafkaBroker, kafkaTopic)
	} else {
		logger.Log.Info("No Kafka broker configured, alert publishing disabled")
	}

	// Initialize JWT service
	jwtService := jwt.New(jwtSecretKey, time.Duration(jwtExpSecond)*time.Second)

	// Initialize repositories and facades
	counterRepo := repositories.NewVelocityCounterRepository(rdb)
	reviewRepo := repositories.NewReviewQueueRepository(rdb)
	historyRepo := repositories.NewHistoryRepository(rdb)
	auditRepo := repositories.NewRiskAuditRepository(db)
	operatorReadRepo := repositories.NewOperatorReadRepository(db)
	operatorWriteRepo := repositories.NewOperatorWriteRepository(db)
	geoFacade := facades.NewGeoIPHTTPFacade(geoipURL, geoipTimeout)

	// Initialize services
	var alertService *services.AlertService
	if alertWriter != nil {
		alertService = services.NewAlertService(alertWriter)
	} else {
		alertService = services.NewAlertService(nil)
	}
	velocityService := services.NewVelocityService(velocityCfg, counterRepo, reviewRepo, alertService)
	riskService := services.NewRiskService(nil, nil, historyRepo, geoFacade, reviewRepo, alertService, auditRepo)
	authService := services.NewAuthService(operatorReadRepo, operatorWriteRepo, jwtService)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService)
	loginHandler := handlers.NewLoginHandler(authService)
	velocityHandler := handlers.NewVelocityHandler(velocityService)
	assessHandler := handlers.NewAssessHandler(riskService)
	reviewListHandler := handlers.NewReviewListHandler(reviewRepo)
	reviewResolveHandler := handlers.NewReviewResolveHandler(reviewRepo)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/register", registerHandler)
		r.Post("/login", loginHandler)
		r.Post("/velocity/check", velocityHandler)
		r.Post("/risk/assess", assessHandler)

		// Protected routes with JWT middleware
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(jwtService))
			r.Get("/review", reviewListHandler)
			r.Post("/review/resolve", reviewResolveHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
