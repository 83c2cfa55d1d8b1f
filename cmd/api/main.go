package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"orderitems/internal/config"
	"orderitems/internal/handler"
	"orderitems/internal/infra/db"
	infraRepo "orderitems/internal/infra/repository"
	"orderitems/internal/logger"
	"orderitems/internal/server"
	"orderitems/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("order-items", cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	if cfg.AutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
	}

	//Repository（GORM実装）→Usecase→Handler
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	itemUC := usecase.NewOrderItemUsecase(txManager, productRepo, log)

	e := server.New(log, cfg.RequestTimeout, server.Handlers{
		OrderItems: handler.NewOrderItemHandler(itemUC),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		}),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting order items api",
		slog.String("env", cfg.GoEnv),
		slog.String("db_driver", cfg.DBDriver),
		slog.Int("port", cfg.Port),
	)
	return server.Start(ctx, e, cfg.Addr(), cfg.ShutdownTimeout, log)
}
