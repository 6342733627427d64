package model

import "time"

// reservations
//
// Единственная сущность системы: запись на 30-минутную консультацию.
// Длительность не храним — она фиксированная константа и вычисляется
// при проверке пересечений (schedule.SlotDuration).
type Reservation struct {
	// Автоинкрементный ID: монотонный, уникальный, не переиспользуется.
	ID uint `gorm:"primaryKey;autoIncrement"`

	Name  string `gorm:"type:varchar(100);not null"`
	Email string `gorm:"type:varchar(100);not null"`

	// Имя эксперта из конфигурационного справочника (не FK: список
	// экспертов — статичная конфигурация процесса, а не таблица).
	Expert string `gorm:"type:varchar(100);not null;index"`

	ConsultationType string `gorm:"type:varchar(100);not null"`

	// Начало слота с точностью до минуты, наивное локальное время.
	StartsAt time.Time `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
}
