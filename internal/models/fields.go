// Граница десериализации: конвертация слаботипизированных полей записей
// Record Store в типизированные доменные структуры и обратно. Поля
// хранилища могут приходить числом или строкой ("Remaining Washes"
// исторически хранится строкой), link-поля — массивом ID. Весь разбор
// сосредоточен здесь, бизнес-логика строки повторно не парсит.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/recordstore"
)

// DateLayout канонический формат календарной даты во всех полях
// хранилища и в списках дат-исключений.
const DateLayout = "2006-01-02"

// Имена полей в таблицах хранилища.
const (
	FieldFullName      = "Full Name"
	FieldPhone         = "Phone Number"
	FieldAddress       = "Address"
	FieldCity          = "City"
	FieldClientType    = "Client Type"
	FieldStatus        = "Status"
	FieldRole          = "Role"
	FieldPINHash       = "PIN Hash"
	FieldDate          = "Date"
	FieldTime          = "Time"
	FieldDuration      = "Duration"
	FieldClientLink    = "Client Link"
	FieldCars          = "Number of Cars"
	FieldBookingType   = "Booking Type"
	FieldFrequency     = "Frequency"
	FieldEndDate       = "End Date"
	FieldExceptions    = "Exception Dates"
	FieldPrice         = "Price"
	FieldPaymentMethod = "Payment Method"
	FieldNotes         = "Notes"
	FieldClient        = "Client"
	FieldTotalWashes   = "Total Washes"
	FieldUsedWashes    = "Used Washes"
	FieldRemaining     = "Remaining Washes"
	FieldWashValue     = "Wash Value"
	FieldStartDate     = "Start Date"
	FieldPaymentStatus = "Payment Status"
	FieldSubType       = "Subscription Type"
)

func strField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func intField(fields map[string]any, key string, def int) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

// linkField возвращает первый ID из link-поля. Хранилище отдаёт такие
// поля массивом, но допускаем и голую строку.
func linkField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

func dateField(fields map[string]any, key string) (time.Time, error) {
	raw := strField(fields, key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("field %q is empty", key)
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}
	return d, nil
}

func optDateField(fields map[string]any, key string) *time.Time {
	d, err := dateField(fields, key)
	if err != nil {
		return nil
	}
	return &d
}

// ClientFromRecord разбирает запись таблицы Clients.
func ClientFromRecord(r recordstore.Record) *Client {
	status := ClientStatus(strField(r.Fields, FieldStatus))
	if status == "" {
		status = ClientActive
	}
	return &Client{
		ID:       r.ID,
		FullName: strField(r.Fields, FieldFullName),
		Phone:    strField(r.Fields, FieldPhone),
		Address:  strField(r.Fields, FieldAddress),
		City:     strField(r.Fields, FieldCity),
		Type:     ClientType(strField(r.Fields, FieldClientType)),
		Status:   status,
	}
}

// BookingFromRecord разбирает запись таблицы Bookings. Запись с
// нечитаемой датой считается испорченной и возвращает ошибку —
// вызывающий решает, пропустить её или прервать операцию.
func BookingFromRecord(r recordstore.Record) (*Booking, error) {
	date, err := dateField(r.Fields, FieldDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", r.ID, err)
	}

	typ := BookingType(strField(r.Fields, FieldBookingType))
	if typ == "" {
		typ = BookingService
	}
	status := BookingStatus(strField(r.Fields, FieldStatus))
	if status == "" {
		status = BookingPending
	}

	return &Booking{
		ID:            r.ID,
		Date:          date,
		Time:          strField(r.Fields, FieldTime),
		Duration:      intField(r.Fields, FieldDuration, 0),
		ClientID:      linkField(r.Fields, FieldClientLink),
		Cars:          intField(r.Fields, FieldCars, 1),
		Status:        status,
		Type:          typ,
		Frequency:     Frequency(strField(r.Fields, FieldFrequency)),
		EndDate:       optDateField(r.Fields, FieldEndDate),
		Exceptions:    strField(r.Fields, FieldExceptions),
		Price:         floatField(r.Fields, FieldPrice),
		PaymentMethod: strField(r.Fields, FieldPaymentMethod),
		Notes:         strField(r.Fields, FieldNotes),
	}, nil
}

// SubscriptionFromRecord разбирает запись таблицы ClientSubscriptions.
func SubscriptionFromRecord(r recordstore.Record) (*Subscription, error) {
	start, err := dateField(r.Fields, FieldStartDate)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", r.ID, err)
	}

	total := intField(r.Fields, FieldTotalWashes, 0)
	used := intField(r.Fields, FieldUsedWashes, 0)
	return &Subscription{
		ID:        r.ID,
		ClientID:  linkField(r.Fields, FieldClient),
		Total:     total,
		Used:      used,
		Remaining: intField(r.Fields, FieldRemaining, total-used),
		WashValue: floatField(r.Fields, FieldWashValue),
		Status:    SubscriptionStatus(strField(r.Fields, FieldStatus)),
		StartDate: start,
		EndDate:   optDateField(r.Fields, FieldEndDate),
		Payment:   PaymentStatus(strField(r.Fields, FieldPaymentStatus)),
		Type:      strField(r.Fields, FieldSubType),
	}, nil
}

// StaffFromRecord разбирает запись таблицы StaffMembers.
func StaffFromRecord(r recordstore.Record) *StaffMember {
	return &StaffMember{
		ID:       r.ID,
		FullName: strField(r.Fields, FieldFullName),
		Phone:    strField(r.Fields, FieldPhone),
		PINHash:  strField(r.Fields, FieldPINHash),
		Role:     strField(r.Fields, FieldRole),
		Status:   strField(r.Fields, FieldStatus),
	}
}
