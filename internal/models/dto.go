package models

// DummyBooking используется для приёма данных записи из JSON-запроса,
// прежде чем конвертировать их в Booking. Даты приходят строками
// в формате 2006-01-02 и валидируются перед разбором.
type DummyBooking struct {
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string  `json:"time" validate:"required"`
	Duration   int     `json:"duration_minutes"`
	ClientID   string  `json:"client_id"`
	Cars       int     `json:"cars"`
	Type       string  `json:"booking_type"`
	Frequency  string  `json:"frequency" validate:"omitempty,oneof=weekly biweekly"`
	EndDate    string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Exceptions string  `json:"exception_dates"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes"`
}

// DummyClient данные клиента из JSON-запроса.
type DummyClient struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Type     string `json:"client_type" validate:"omitempty,oneof=casual monthly yearly"`
}

// DummySubscription данные нового абонемента из JSON-запроса.
// Remaining при создании не принимается: он инициализируется равным Total.
type DummySubscription struct {
	ClientID  string  `json:"client_id" validate:"required"`
	Total     int     `json:"total_washes" validate:"required,gt=0"`
	WashValue float64 `json:"wash_value" validate:"required,gt=0"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Payment   string  `json:"payment_status" validate:"omitempty,oneof=paid unpaid partial"`
	Type      string  `json:"subscription_type"`
}

// DummySubscriptionUpdate частичное обновление абонемента. Указатели
// отличают "не менять" от нулевого значения. Остаток напрямую не
// редактируется: при смене Total он пересчитывается, для ручной правки
// есть DummyAdjust.
type DummySubscriptionUpdate struct {
	Total     *int     `json:"total_washes" validate:"omitempty,gt=0"`
	WashValue *float64 `json:"wash_value" validate:"omitempty,gt=0"`
	Status    string   `json:"status" validate:"omitempty,oneof=active suspended"`
	Payment   string   `json:"payment_status" validate:"omitempty,oneof=paid unpaid partial"`
	EndDate   string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Type      string   `json:"subscription_type"`
}

// DummyPunch подтверждение списания при завершении записи.
type DummyPunch struct {
	PunchCount       int  `json:"punch_count" validate:"required,gte=1"`
	ConfirmOverdraft bool `json:"confirm_overdraft"`
}

// DummyPayment ручная оплата при завершении записи без абонемента.
type DummyPayment struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
	Notes  string  `json:"notes"`
}

// DummyAdjust ручная корректировка остатка абонемента.
type DummyAdjust struct {
	NewRemaining     int  `json:"new_remaining"`
	ConfirmOverdraft bool `json:"confirm_overdraft"`
}

// DummyLogin данные входа сотрудника.
type DummyLogin struct {
	Phone string `json:"phone" validate:"required"`
	PIN   string `json:"pin" validate:"required,numeric"`
}

// BalanceNotification задание на отправку клиенту сводки по абонементу.
// Публикуется в очередь уведомлений после успешного списания.
type BalanceNotification struct {
	JobID     string `json:"job_id"`
	ClientID  string `json:"client_id"`
	Total     int    `json:"total_washes"`
	Used      int    `json:"used_washes"`
	Remaining int    `json:"remaining_washes"`
}

// ReminderNotification задание на напоминание о завтрашнем визите.
type ReminderNotification struct {
	JobID    string `json:"job_id"`
	ClientID string `json:"client_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}
