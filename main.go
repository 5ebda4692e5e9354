package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/thedividend/dividend/handlers"
	articlehandler "github.com/thedividend/dividend/internal/article/handler"
	articlerepo "github.com/thedividend/dividend/internal/article/repository"
	articlesvc "github.com/thedividend/dividend/internal/article/service"
	"github.com/thedividend/dividend/internal/books"
	"github.com/thedividend/dividend/internal/config"
	"github.com/thedividend/dividend/internal/database"
	"github.com/thedividend/dividend/internal/library"
	"github.com/thedividend/dividend/internal/notifications"
	notifhandler "github.com/thedividend/dividend/internal/notifications/handler"
	"github.com/thedividend/dividend/internal/oidc"
	"github.com/thedividend/dividend/internal/payment"
	paymenthandler "github.com/thedividend/dividend/internal/payment/handler"
	paymentrepo "github.com/thedividend/dividend/internal/payment/repository"
	"github.com/thedividend/dividend/internal/paystack"
	"github.com/thedividend/dividend/internal/storage"
	"github.com/thedividend/dividend/internal/tokens"
	"github.com/thedividend/dividend/internal/users"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/metrics"
	"github.com/thedividend/dividend/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
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
	logger.Infof("config loaded: oidc=%v mongo=%v postgres=%v redis=%v purchases=%s",
		cfg.Keycloak.Issuer() != "", cfg.MongoDB.URI != "", cfg.Postgres.DSN != "", cfg.Redis.Host != "", cfg.Storage.PurchaseBackend)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors(cfg.Server.SiteURL))
	r.Use(middleware.RequestLogger(), gin.Recovery())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the render cache and the shared rate limiter
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			rdb = client
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	limit := rateLimiter(cfg, rdb)

	verifier := buildVerifier(ctx, cfg)

	var mongoDB *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Warnf("could not connect to MongoDB: %v; falling back to in-memory stores", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			mongoDB = client.Database(cfg.MongoDB.Database)
		}
	}

	var pgDB *sql.DB
	if cfg.Storage.PurchaseBackend == "postgres" {
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, 5)
		if err != nil {
			logger.Warnf("could not connect to Postgres: %v", err)
		} else {
			defer db.Close()
			pgDB = db
		}
	}

	st := buildStores(ctx, cfg, mongoDB, pgDB)

	hub := notifications.NewHub()
	go hub.Run(ctx)
	notifSvc := notifications.NewService(st.notifications, hub)
	userSvc := users.NewService(st.users)
	librarySvc := library.NewService(st.library)

	var cache articlesvc.RenderCache
	if rdb != nil {
		cache = articlesvc.NewRedisCache(rdb)
	}
	articles := articlesvc.New(st.articles, cache, cfg.Render.CacheTTL)

	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	reconciler := payment.NewReconciler(st.purchases, userSvc, notifSvc, gateway, cfg.Paystack.WebhookSecret)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when every configured dependency came up
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo":    cfg.MongoDB.URI == "" || mongoDB != nil,
			"postgres": cfg.Storage.PurchaseBackend != "postgres" || pgDB != nil,
			"redis":    cfg.Redis.Host == "" || rdb != nil,
			"auth":     verifier != nil,
			"paystack": cfg.Paystack.SecretKey != "",
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "purchases": cfg.Storage.PurchaseBackend, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r.Group("/", limit))

	requireAuth := authRequired(verifier)
	api := r.Group("/api", limit, middleware.OptionalAuth(verifier))
	apiAuthed := r.Group("/api", limit, requireAuth)
	apiAdmin := r.Group("/api", limit, requireAuth, middleware.RequireRole(users.RoleAdmin))

	mountPayments(r, paymenthandler.NewHandler(reconciler, gateway, st.books, cfg.Server.SiteURL), limit, requireAuth)
	articlehandler.RegisterArticleRoutes(api, apiAdmin, articles, librarySvc)
	books.RegisterRoutes(api, apiAdmin, st.books)
	library.RegisterRoutes(apiAuthed, librarySvc)
	notifhandler.RegisterNotificationRoutes(apiAuthed, notifSvc, hub)

	if minioCfg := storage.LoadMinIOConfig(); minioCfg.Enabled() {
		objects, err := storage.NewMinIOStorage(ctx, minioCfg)
		if err != nil {
			logger.Warnf("object storage unavailable, uploads disabled: %v", err)
		} else {
			handlers.NewUploadHandler(objects, minioCfg.PresignTTL).Register(api, apiAuthed)
		}
	}

	r.GET("/api/v1/me", limit, requireAuth, func(c *gin.Context) {
		claims, _ := c.Get("claims")
		if cm, ok := claims.(map[string]interface{}); ok {
			u, err := userSvc.UpsertFromClaims(c.Request.Context(), cm)
			if err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
			logger.Warnf("user upsert from claims failed: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("starting dividend API on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server failed: %v", err)
	}
}

type stores struct {
	users         users.UserRepository
	articles      articlerepo.Repository
	books         books.Repository
	purchases     payment.Store
	notifications notifications.Repository
	library       library.Repository
}

// buildStores picks Mongo-backed repositories when a database is available
// and in-memory ones otherwise. Purchases may live in Postgres instead.
func buildStores(ctx context.Context, cfg *config.Config, db *mongo.Database, pg *sql.DB) stores {
	st := stores{
		users:         users.NewMemoryUserRepository(),
		articles:      articlerepo.NewMemoryRepo(),
		books:         books.NewMemoryRepo(),
		purchases:     paymentrepo.NewMemoryRepo(),
		notifications: notifications.NewMemoryRepository(),
		library:       library.NewMemoryRepository(),
	}
	if db != nil {
		ur := users.NewMongoUserRepository(db.Collection("users"))
		if err := ur.EnsureIndexes(ctx); err != nil {
			logger.Warnf("user indexes: %v", err)
		}
		st.users = ur
		st.books = books.NewMongoRepo(db.Collection("books"))
		if ar, err := articlerepo.NewMongoRepo(ctx, db.Collection("articles")); err != nil {
			logger.Warnf("article store: %v; using memory", err)
		} else {
			st.articles = ar
		}
		if nr, err := notifications.NewMongoRepository(ctx, db.Collection("notifications")); err != nil {
			logger.Warnf("notification store: %v; using memory", err)
		} else {
			st.notifications = nr
		}
		if lr, err := library.NewMongoRepository(ctx, db.Collection("bookmarks"), db.Collection("reading_history")); err != nil {
			logger.Warnf("library store: %v; using memory", err)
		} else {
			st.library = lr
		}
	}

	switch cfg.Storage.PurchaseBackend {
	case "postgres":
		if pg == nil {
			logger.Error("purchase store postgres requested but unavailable; purchases kept in memory")
			break
		}
		pr := paymentrepo.NewPostgresRepo(pg)
		if err := pr.EnsureSchema(ctx); err != nil {
			logger.Errorf("purchase schema: %v; purchases kept in memory", err)
			break
		}
		st.purchases = pr
	case "mongo":
		if db == nil {
			logger.Error("purchase store mongo requested but unavailable; purchases kept in memory")
			break
		}
		pr, err := paymentrepo.NewMongoRepo(ctx, db.Collection("purchases"))
		if err != nil {
			logger.Errorf("purchase store: %v; purchases kept in memory", err)
			break
		}
		st.purchases = pr
	}
	return st
}

// buildVerifier prefers the OIDC issuer and falls back to HS256 tokens
// signed with JWT_SECRET. It returns nil when neither is configured.
// rateLimiter returns the configured per-client limiter, or a pass-through
// when limiting is disabled.
func rateLimiter(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	useRedis := cfg.RateLimit.UseRedis && rdb != nil
	logger.Infof("rate limiter enabled: rps=%.1f burst=%d redis=%v", cfg.RateLimit.RPS, cfg.RateLimit.Burst, useRedis)
	if useRedis {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		return middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
	}
	return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// mountPayments registers the gateway callbacks outside the rate limiter:
// webhook retries and checkout redirects must always reach the reconciler.
// Buyer-initiated payment routes stay limited.
func mountPayments(r gin.IRouter, h *paymenthandler.Handler, limit, requireAuth gin.HandlerFunc) {
	h.Register(r.Group("/"), r.Group("/", limit, requireAuth))
}

func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if issuer := cfg.Keycloak.Issuer(); issuer != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			logger.Infof("using OIDC verifier for issuer %s", issuer)
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		logger.Infof("using HS256 access-token verifier")
		return tokens.NewVerifier(cfg.JWT.Secret)
	}
	logger.Warn("no token verifier configured; authenticated routes will return 503")
	return nil
}

func authRequired(ver middleware.Verifier) gin.HandlerFunc {
	if ver == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication not configured"})
		}
	}
	return middleware.AuthMiddleware(ver)
}

// cors allows the site origin, or any origin when no site URL is set.
func cors(siteURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := "*"
		if siteURL != "" {
			origin = siteURL
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
