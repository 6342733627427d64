package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/expertbook/booking-platform/internal/config"
	"github.com/expertbook/booking-platform/internal/db"
	"github.com/expertbook/booking-platform/internal/model"
	"github.com/expertbook/booking-platform/internal/repository"
	"github.com/expertbook/booking-platform/internal/server"
	"github.com/expertbook/booking-platform/internal/service"
	"github.com/expertbook/booking-platform/internal/session"
)

func main() {
	// 1. Конфиг из env (.env подхватывается, если есть).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		logger.Fatal("init db", zap.Error(err))
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		logger.Fatal("auto migrate", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 4. Репозиторий и сервисы.
	reservationRepo := repository.NewGormReservationRepository(gormDB)
	bookingSvc := service.NewBookingService(reservationRepo, &cfg.Booking, logger.Named("booking"))
	adminSvc := service.NewAdminService(reservationRepo, &cfg.Admin, &cfg.Booking, logger.Named("admin"))
	sessions := session.NewManager(cfg.Session.TTL)

	// 5. HTTP-сервер.
	srv := server.New(cfg, logger.Named("http"), bookingSvc, adminSvc, sessions, gormDB)

	// 6. Запускаем сервер в горутине.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	// 7. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down http server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
