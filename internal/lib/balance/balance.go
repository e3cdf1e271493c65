// Package balance содержит арифметику учёта моек по абонементу.
// Общие правила для ручной корректировки, списания и сверки при
// завершении записи: Remaining всегда пересчитывается как Total - Used,
// отрицательный остаток (перерасход) допускается и не обрезается —
// решение о подтверждении перерасхода принимает оператор, не модель.
package balance

import "github.com/carwasher/carwash-dashboard/internal/models"

// Tier уровень серьёзности для индикатора использования абонемента.
type Tier string

const (
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// ApplyUsage возвращает копию абонемента со счётчиком использованных
// моек, увеличенным на deltaUsed, и пересчитанным остатком. deltaUsed
// может быть отрицательным (ручной возврат).
func ApplyUsage(sub models.Subscription, deltaUsed int) models.Subscription {
	sub.Used += deltaUsed
	sub.Remaining = sub.Total - sub.Used
	return sub
}

// SetRemaining обратная форма для ручной коррекции остатка: по новому
// остатку вычисляет использованные мойки. При согласованном Total
// операции ApplyUsage и SetRemaining взаимно обратны.
func SetRemaining(sub models.Subscription, newRemaining int) models.Subscription {
	sub.Used = sub.Total - newRemaining
	sub.Remaining = newRemaining
	return sub
}

// Progress возвращает процент использования абонемента (не более 100;
// при нулевом Total — 0) и уровень серьёзности: danger от 100%,
// warning от 80%, иначе success.
func Progress(used, total int) (float64, Tier) {
	if total == 0 {
		return 0, TierSuccess
	}
	pct := float64(used) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	switch {
	case pct >= 100:
		return pct, TierDanger
	case pct >= 80:
		return pct, TierWarning
	default:
		return pct, TierSuccess
	}
}

// IsExhausted сообщает, что остаток моек исчерпан (<= 0). Дата окончания
// абонемента здесь намеренно не учитывается: хранится, но на этот
// предикат не влияет.
func IsExhausted(sub models.Subscription) bool {
	return sub.Remaining <= 0
}

// ProposedPunch количество списаний, предлагаемое оператору при
// завершении записи: не больше машин в записи и не больше остатка,
// но не меньше одного. Оператор может поднять значение выше остатка,
// явно подтвердив перерасход.
func ProposedPunch(cars, remaining int) int {
	if cars < 1 {
		cars = 1
	}
	if remaining < cars {
		if remaining < 1 {
			return 1
		}
		return remaining
	}
	return cars
}
