package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/donr-app/go-services/handlers"
	"github.com/donr-app/go-services/internal/center"
	"github.com/donr-app/go-services/internal/config"
	"github.com/donr-app/go-services/internal/database"
	donationhandler "github.com/donr-app/go-services/internal/donation/handler"
	donationrepo "github.com/donr-app/go-services/internal/donation/repository"
	donationservice "github.com/donr-app/go-services/internal/donation/service"
	"github.com/donr-app/go-services/internal/geocode"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/internal/matching"
	"github.com/donr-app/go-services/internal/notify"
	"github.com/donr-app/go-services/internal/oidc"
	"github.com/donr-app/go-services/internal/request"
	"github.com/donr-app/go-services/internal/storage"
	"github.com/donr-app/go-services/internal/tokens"
	"github.com/donr-app/go-services/internal/users"
	"github.com/donr-app/go-services/pkg/logger"
	"github.com/donr-app/go-services/pkg/metrics"
	"github.com/donr-app/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: auth=%v mongo=%v redis=%v fcm=%v", cfg.Auth.Issuer != "" || cfg.Auth.JWTSecret != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.FCM.ServerKey != "")
	httpapi.Dev = cfg.Server.Development()

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate limiter and the geocode cache can
	// use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis (early) for optional features: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// Token verifier: OIDC when an issuer is configured (Firebase ID tokens
	// use https://securetoken.google.com/<project>), shared-secret HS256
	// otherwise, and an insecure claims parser for integration tests.
	ctx := context.Background()
	var verifier middleware.Verifier
	if cfg.Auth.Issuer != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.Auth.JWTSecret != "" {
		verifier = tokens.NewHSVerifier(cfg.Auth.JWTSecret)
		logger.Infof("using shared-secret token verifier")
	}
	if verifier == nil {
		val := strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")))
		if val == "true" {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		}
	}

	// MongoDB-backed repositories. Retry/backoff to tolerate startup races.
	var client *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = client.Disconnect(ctx) }()
	} else {
		logger.Fatalf("MONGODB_URI is required")
	}
	db := client.Database(cfg.MongoDB.Database)

	userRepo := users.NewMongoRepository(db.Collection("users"))
	userSvc := users.NewService(userRepo)

	// Geocoder with optional Redis response cache
	var geocoder geocode.Geocoder = geocode.NewClient(cfg.Geocoding)
	if redisClient != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, redisClient, cfg.Geocoding.CacheTTL)
	}

	// Notification dispatch with best-effort delivery logging
	logStore := notify.NewLogStore(db.Collection("notification_logs"))
	dispatcher := notify.NewDispatcher(userRepo, notify.NewFCMSender(cfg.FCM), logStore)

	donRepo := donationrepo.NewMongoRepo(db.Collection("donations"))
	matcher := matching.NewMatcher(userRepo, donRepo, cfg.Matching.RadiusMiles)
	donSvc := donationservice.NewService(donRepo, userRepo, geocoder, matcher, dispatcher)

	// Optional MinIO-backed photo storage
	var photos storage.PhotoStore
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		store, err := storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("photo storage unavailable: %v", err)
		} else {
			photos = store
		}
	}

	reqSvc := request.NewService(request.NewMongoRepository(db))
	centerSvc := center.NewService(center.NewMongoRepository(db))

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongo"] = client.Ping(c.Request.Context(), nil) == nil
		if !deps["mongo"] {
			ready = false
		}

		if verifier == nil {
			deps["auth"] = false
			ready = false
		} else {
			deps["auth"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Swagger UI + JSON for API documentation
	handlers.RegisterSwagger(r)

	if verifier == nil {
		logger.Warnf("no token verifier configured; API routes not registered")
	} else {
		api := r.Group("/api")
		api.Use(middleware.AuthMiddleware(verifier))
		users.NewHandler(userSvc).Register(api)
		donationhandler.NewHandler(donSvc, userRepo, photos).Register(api, userSvc)
		request.NewHandler(reqSvc).Register(api, userSvc)
		center.NewHandler(centerSvc).Register(api, userSvc)
		notify.NewHandler(dispatcher, logStore).Register(api)
	}

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting donr API on %s (env=%s)", addr, cfg.Server.Environment)
	// run server in goroutine and keep process alive — prevents the
	// container from exiting silently if r.Run ever returns.
	go func() {
		if err := r.Run(addr); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()
	select {}
}
