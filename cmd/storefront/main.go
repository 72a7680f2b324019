package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/cache"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
	h "github.com/pr-poehali-dev/digital-goods-marketplace/internal/http"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/repository"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/service"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/session"
)

type Config struct {
	HTTPPort       string
	AuthURL        string
	ProductsURL    string
	OrdersURL      string
	RedisAddr      string
	RedisPassword  string
	DBPath         string
	MigrationsPath string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AuthURL:         getEnv("AUTH_URL", "https://functions.poehali.dev/984f1f7f-8a0a-47b4-9ced-eff8492aff62"),
		ProductsURL:     getEnv("PRODUCTS_URL", "https://functions.poehali.dev/47e477d3-da36-4dd8-a267-1a114e9023cd"),
		OrdersURL:       getEnv("ORDERS_URL", "https://functions.poehali.dev/e1a9ea77-d4e0-47e0-9bc2-c1c6dc0ef4c9"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		DBPath:          getEnv("DB_PATH", "./storefront.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	// Durable local cart storage
	repo, err := repository.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open cart storage: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Cart storage migrations completed")

	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Infof("Connected to redis at %s", cfg.RedisAddr)

	cartCache := cache.NewRedisCache(redisClient)
	carts := service.NewCartService(repo, cartCache, log)

	remote := gateway.New(gateway.Config{
		AuthURL:     cfg.AuthURL,
		ProductsURL: cfg.ProductsURL,
		OrdersURL:   cfg.OrdersURL,
		Timeout:     cfg.RequestTimeout,
	})

	sessions := session.NewManager()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n := sessions.EvictExpired(); n > 0 {
				log.Infof("evicted %d expired sessions", n)
			}
		}
	}()

	authHandler := h.NewAuthHandler(remote, cfg.RequestTimeout)
	productHandler := h.NewProductHandler(remote, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(carts, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(remote, carts, cfg.RequestTimeout, log)
	ordersHandler := h.NewOrdersHandler(remote, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware(sessions))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
		})
		r.Get("/products", productHandler.List)
		r.Post("/products", productHandler.Create)
		r.Get("/categories", productHandler.Categories)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.ClearCart)
		})
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/orders", ordersHandler.History)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Info("server exited")
}
