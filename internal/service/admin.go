package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/expertbook/booking-platform/internal/config"
	"github.com/expertbook/booking-platform/internal/model"
	"github.com/expertbook/booking-platform/internal/repository"
	"github.com/expertbook/booking-platform/internal/session"
)

var ErrUnauthorized = errors.New("unauthorized")

// AdminService — закрытый сеансом путь чтения: выборки записей
// для админ-панели плюс проверка учётных данных при входе.
type AdminService struct {
	repo  repository.ReservationRepository
	admin *config.AdminConfig
	cfg   *config.BookingConfig
	log   *zap.Logger
}

func NewAdminService(
	repo repository.ReservationRepository,
	admin *config.AdminConfig,
	cfg *config.BookingConfig,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		repo:  repo,
		admin: admin,
		cfg:   cfg,
		log:   log,
	}
}

// Login сверяет учётные данные с конфигом. Сравнение за константное время,
// чтобы не подсказывать длину и префикс пароля таймингом.
func (s *AdminService) Login(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1

	if !userOK || !passOK {
		s.log.Warn("failed admin login attempt", zap.String("username", username))
		return false
	}
	return true
}

// ListForExpert возвращает записи эксперта по возрастанию времени начала.
// Сеанс проверяется до любого обращения к хранилищу.
func (s *AdminService) ListForExpert(ctx context.Context, sess *session.Session, expert string) ([]model.Reservation, error) {
	if sess == nil || !sess.LoggedIn() {
		return nil, ErrUnauthorized
	}
	if !contains(s.cfg.Experts, expert) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExpert, expert)
	}

	return s.repo.ListByExpertSorted(ctx, expert)
}

// ListAll — открытый список всех записей для страницы /reservations.
// Оставлен без авторизации, как в исходной системе.
func (s *AdminService) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return s.repo.ListAll(ctx)
}
