// Package recur раскрывает повторяющиеся записи расписания в виртуальные
// экземпляры на конкретную дату. Шаблон хранится одной записью; экземпляры
// не создаются в хранилище, а вычисляются при каждом запросе дня.
package recur

import (
	"strings"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/models"
)

// period возвращает период повторения в днях.
func period(f models.Frequency) int {
	if f == models.FreqBiweekly {
		return 14
	}
	return 7
}

// daysBetween целое число суток между двумя календарными датами,
// нечувствительное к компоненту времени.
func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// hasException проверяет дату по списку исключений: список разделён
// запятыми, пробелы игнорируются, сравнение — точное совпадение строки
// в каноническом формате 2006-01-02.
func hasException(exceptions string, date time.Time) bool {
	if exceptions == "" {
		return false
	}
	target := date.Format(models.DateLayout)
	for _, raw := range strings.Split(strings.ReplaceAll(exceptions, " ", ""), ",") {
		if raw == target {
			return true
		}
	}
	return false
}

// OccursOn сообщает, выпадает ли повторяющийся шаблон на дату date.
// Шаблон выпадает, когда date не раньше даты начала, не позже даты
// окончания (если она задана), не входит в список исключений и разница
// в днях с датой начала кратна периоду (7 для weekly, 14 для biweekly).
func OccursOn(tmpl *models.Booking, date time.Time) bool {
	if !tmpl.IsRecurring() {
		return false
	}
	diff := daysBetween(tmpl.Date, date)
	if diff < 0 {
		return false
	}
	if tmpl.EndDate != nil && daysBetween(date, *tmpl.EndDate) < 0 {
		return false
	}
	if hasException(tmpl.Exceptions, date) {
		return false
	}
	return diff%period(tmpl.Frequency) == 0
}

// ExpandDay собирает записи на дату date: обычные записи с совпадающей
// датой плюс виртуальные экземпляры повторяющихся шаблонов. Запись с
// заданной периодичностью обрабатывается только веткой шаблонов, даже
// если её собственная дата равна date, — иначе экземпляр задвоится.
// Входные записи не изменяются: экземпляр шаблона является копией
// с подставленной датой. Порядок результата не определён.
func ExpandDay(bookings []*models.Booking, date time.Time) []*models.Booking {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var out []*models.Booking
	for _, b := range bookings {
		if b.IsRecurring() {
			if OccursOn(b, day) {
				occ := *b
				occ.Date = day
				out = append(out, &occ)
			}
			continue
		}
		if daysBetween(b.Date, day) == 0 {
			out = append(out, b)
		}
	}
	return out
}
