package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/expertbook/booking-platform/internal/config"
	"github.com/expertbook/booking-platform/internal/model"
	"github.com/expertbook/booking-platform/internal/repository"
	"github.com/expertbook/booking-platform/internal/schedule"
)

var (
	ErrValidation              = errors.New("invalid booking request")
	ErrUnknownExpert           = errors.New("unknown expert")
	ErrUnknownConsultationType = errors.New("unknown consultation type")
)

// ConflictError — слот уже занят у этого эксперта.
// StartsAt хранит исходную строку из запроса, чтобы показать её пользователю.
type ConflictError struct {
	Expert   string
	StartsAt string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s is already taken for expert %s", e.StartsAt, e.Expert)
}

// BookingRequest — входные данные формы бронирования.
// Время приходит строкой и разбирается строго по schedule.SlotLayout.
type BookingRequest struct {
	Name             string `validate:"required"`
	Email            string `validate:"required"`
	Expert           string `validate:"required"`
	ConsultationType string `validate:"required"`
	StartsAt         string `validate:"required"`
}

type BookingService struct {
	repo     repository.ReservationRepository
	cfg      *config.BookingConfig
	log      *zap.Logger
	validate *validator.Validate

	// Мьютекс на эксперта: проверка доступности и запись должны быть
	// атомарными, иначе два конкурентных запроса на один слот пройдут
	// проверку до того, как любой из них закоммитит запись.
	// Работает только в рамках одного процесса; при нескольких инстансах
	// нужен уникальный констрейнт или advisory-lock на стороне БД.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewBookingService(
	repo repository.ReservationRepository,
	cfg *config.BookingConfig,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Book проводит бронирование: валидация запроса, разбор времени, проверка
// доступности слота и запись. Ровно одна запись в хранилище на успешном
// пути, ноль — на любом отказе.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*model.Reservation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !contains(s.cfg.Experts, req.Expert) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExpert, req.Expert)
	}
	if !contains(s.cfg.ConsultationTypes, req.ConsultationType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConsultationType, req.ConsultationType)
	}

	start, err := schedule.ParseSlotTime(req.StartsAt)
	if err != nil {
		return nil, err
	}

	lock := s.expertLock(req.Expert)
	lock.Lock()
	defer lock.Unlock()

	available, err := s.IsSlotAvailable(ctx, req.Expert, start)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !available {
		return nil, &ConflictError{Expert: req.Expert, StartsAt: req.StartsAt}
	}

	reservation := &model.Reservation{
		Name:             req.Name,
		Email:            req.Email,
		Expert:           req.Expert,
		ConsultationType: req.ConsultationType,
		// Перепарсенное время сериализуется обратно в канонический формат,
		// так что в БД попадает ровно минутная точность.
		StartsAt: start,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.log.Info("reservation created",
		zap.Uint("id", reservation.ID),
		zap.String("expert", reservation.Expert),
		zap.String("starts_at", schedule.FormatSlotTime(reservation.StartsAt)),
	)

	return reservation, nil
}

// IsSlotAvailable проверяет, свободен ли 30-минутный слот у эксперта.
// Только чтение; каждый вызов смотрит на текущее состояние хранилища,
// поэтому повторные вызовы могут давать разные ответы.
func (s *BookingService) IsSlotAvailable(ctx context.Context, expert string, start time.Time) (bool, error) {
	reservations, err := s.repo.ListByExpert(ctx, expert)
	if err != nil {
		return false, err
	}

	existing := make([]schedule.TimeRange, 0, len(reservations))
	for _, r := range reservations {
		existing = append(existing, schedule.SlotRange(r.StartsAt))
	}

	conflict, _ := schedule.HasOverlap(schedule.SlotRange(start), existing)
	return !conflict, nil
}

func (s *BookingService) expertLock(expert string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[expert]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[expert] = lock
	}
	return lock
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
