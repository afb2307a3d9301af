package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/config"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/handler"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/middleware"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/repository"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/scheduler"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/service"
	"github.com/khamis1992/rental-solutions-out-sub001/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	var cache repository.CacheRepository
	if cfg.RedisAddr != "" {
		cache = repository.NewRedisCache(cfg.RedisAddr)
	}
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, cache, sender, logger, cfg)
	h := handler.NewHandler(svc)

	// Start billing jobs
	sched, err := scheduler.NewScheduler(svc, logger, cfg)
	if err != nil {
		logger.Fatalf("Failed to set up scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/agreements", h.CreateAgreement).Methods("POST")
	authRouter.HandleFunc("/agreements/{id}", h.GetAgreement).Methods("GET")
	authRouter.HandleFunc("/agreements/{id}/payments", h.RecordPayment).Methods("POST")
	authRouter.HandleFunc("/agreements/{id}/payments", h.PaymentHistory).Methods("GET")
	authRouter.HandleFunc("/payments/{id}", h.DeletePayment).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
