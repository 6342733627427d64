package schedule

import (
	"errors"
	"fmt"
	"time"
)

// SlotDuration — фиксированная длительность консультации.
const SlotDuration = 30 * time.Minute

// SlotLayout — единственный принимаемый и выдаваемый формат времени слота.
// Минутная точность, без таймзоны. Формат строго фиксированной ширины,
// поэтому лексикографический порядок строк совпадает с хронологическим.
const SlotLayout = "2006-01-02T15:04"

var ErrInvalidSlotTime = errors.New("invalid slot time")

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// ParseSlotTime разбирает строку времени слота в формате SlotLayout.
// Любое отклонение от формата (в том числе несуществующая дата) — ошибка.
func ParseSlotTime(s string) (time.Time, error) {
	t, err := time.Parse(SlotLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSlotTime, s)
	}
	return t, nil
}

// FormatSlotTime приводит время к каноническому виду SlotLayout.
func FormatSlotTime(t time.Time) string {
	return t.Format(SlotLayout)
}

// SlotRange строит интервал консультации от её начала.
func SlotRange(start time.Time) TimeRange {
	return TimeRange{Start: start, End: start.Add(SlotDuration)}
}

// Overlaps проверяет пересечение полуоткрытых интервалов [Start, End).
// Касание концами (новый слот начинается ровно в момент окончания
// существующего) пересечением не считается.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// HasOverlap проверяет, пересекается ли candidate хотя бы с одним из existing,
// и возвращает список конфликтующих интервалов.
func HasOverlap(candidate TimeRange, existing []TimeRange) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if Overlaps(candidate, tr) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}
