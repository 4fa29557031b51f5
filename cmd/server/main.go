package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/auth"
	"github.com/martagil/gestor-be/internal/config"
	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/server"
	"github.com/martagil/gestor-be/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	if err := seedAdmin(ctx, store, cfg.Admin); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("gestor backend listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func seedAdmin(ctx context.Context, store *postgres.Store, admin config.AdminConfig) error {
	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	return store.Bootstrap(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     admin.Username,
		Nombre:       admin.Username,
		Apellidos:    "administrador",
		Email:        admin.Email,
		PasswordHash: hash,
		Roles:        []models.Role{models.RoleAdmin},
		Active:       true,
	})
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
