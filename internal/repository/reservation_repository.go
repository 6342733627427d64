package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/expertbook/booking-platform/internal/model"
)

type ReservationRepository interface {
	// Создать новую запись. Ошибка хранилища пробрасывается как есть.
	Create(ctx context.Context, reservation *model.Reservation) error
	// Получить запись по ID.
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	// Все записи в порядке вставки (по первичному ключу).
	ListAll(ctx context.Context) ([]model.Reservation, error)
	// Записи эксперта без гарантий порядка (для проверки пересечений).
	ListByExpert(ctx context.Context, expert string) ([]model.Reservation, error)
	// Записи эксперта по возрастанию времени начала (для админ-панели).
	ListByExpertSorted(ctx context.Context, expert string) ([]model.Reservation, error)
}

// Реализация на GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) ListAll(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormReservationRepository) ListByExpert(ctx context.Context, expert string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Where("expert = ?", expert).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormReservationRepository) ListByExpertSorted(ctx context.Context, expert string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Where("expert = ?", expert).
		Order("starts_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
