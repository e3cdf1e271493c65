// Package models содержит доменные структуры панели управления мойкой:
// клиенты, записи в расписании и абонементы (картисии), а также
// вспомогательные типы для приёма данных из JSON-запросов.
//
// Все записи живут во внешнем Record Store и идентифицируются
// непрозрачными строковыми ID. Поля записей хранилища слаботипизированы
// (число может прийти строкой), поэтому разбор выполняется один раз,
// на границе десериализации (fields.go), и дальше бизнес-логика работает
// только с типизированными значениями.
package models

import "time"

// Таблицы внешнего Record Store.
const (
	TableStaffMembers  = "StaffMembers"
	TableClients       = "Clients"
	TableBookings      = "Bookings"
	TableSubscriptions = "ClientSubscriptions"
)

// BookingStatus статус записи в расписании.
type BookingStatus string

// Допустимые статусы записи. Переходы: pending -> confirmed -> done,
// confirmed <-> cancelled, done -> confirmed (откат). Побочные эффекты
// есть только у перехода в done.
const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingDone      BookingStatus = "done"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingType тип записи: обслуживание клиента или блокировка времени.
type BookingType string

const (
	BookingService BookingType = "service"
	// BookingBlocker запись-блокировка без клиента, не участвует
	// в оплате и завершении.
	BookingBlocker BookingType = "blocker"
)

// Frequency периодичность повторяющейся записи.
type Frequency string

const (
	FreqNone     Frequency = ""
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
)

// SubscriptionStatus статус абонемента.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// PaymentStatus статус оплаты абонемента.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
)

// ClientStatus статус клиента. Клиенты не удаляются, а архивируются.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientArchived ClientStatus = "archived"
)

// ClientType тип клиента.
type ClientType string

const (
	ClientCasual  ClientType = "casual"
	ClientMonthly ClientType = "monthly"
	ClientYearly  ClientType = "yearly"
)

// PaymentMethodSubscription маркер оплаты записи списанием с абонемента.
const PaymentMethodSubscription = "subscription"

// Client клиент мойки.
type Client struct {
	ID       string
	FullName string
	Phone    string
	Address  string
	City     string
	Type     ClientType
	Status   ClientStatus
}

// Booking запись в расписании. Для повторяющихся записей структура
// является шаблоном: Date хранит дату первого визита, а экземпляры на
// конкретные даты раскрываются виртуально (internal/lib/recur).
type Booking struct {
	ID            string
	Date          time.Time // календарная дата, без времени суток
	Time          string    // время дня, "15:04"
	Duration      int       // минуты
	ClientID      string    // пустой для блокировок
	Cars          int       // количество машин, по умолчанию 1
	Status        BookingStatus
	Type          BookingType
	Frequency     Frequency
	EndDate       *time.Time // nil — повторение без даты окончания
	Exceptions    string     // даты-исключения через запятую, формат 2006-01-02
	Price         float64
	PaymentMethod string
	Notes         string
}

// IsBlocker сообщает, что запись блокирует время и не привязана к клиенту.
func (b *Booking) IsBlocker() bool {
	return b.Type == BookingBlocker || b.ClientID == ""
}

// IsRecurring сообщает, что запись является повторяющимся шаблоном.
func (b *Booking) IsRecurring() bool {
	return b.Frequency == FreqWeekly || b.Frequency == FreqBiweekly
}

// Subscription предоплаченный абонемент на мойки (картисия).
// Инвариант: Remaining = Total - Used. Значение Remaining производное
// и пересчитывается при каждом изменении Used или Total; оно может
// уходить в минус (перерасход разрешён и никогда не обрезается до нуля).
type Subscription struct {
	ID        string
	ClientID  string
	Total     int
	Used      int
	Remaining int
	WashValue float64 // цена одной мойки
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   *time.Time
	Payment   PaymentStatus
	Type      string // произвольное название пакета
}

// StaffMember сотрудник, имеющий доступ к панели.
type StaffMember struct {
	ID       string
	FullName string
	Phone    string
	PINHash  string // bcrypt-хеш PIN-кода
	Role     string
	Status   string
}
