// Package repository реализует типизированный доступ к таблицам
// внешнего Record Store. Сервисы объявляют узкие интерфейсы, Store
// реализует их поверх клиента хранилища.
// Здесь же поддерживается инвариант абонемента:
// Remaining = Total - Used пересчитывается при каждой записи счётчиков,
// а при создании Remaining инициализируется равным Total.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
)

// RecordClient описывает используемое подмножество клиента Record Store.
type RecordClient interface {
	List(ctx context.Context, table string, opts recordstore.ListOptions) ([]recordstore.Record, error)
	Get(ctx context.Context, table, id string) (*recordstore.Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (*recordstore.Record, error)
	Update(ctx context.Context, table, id string, fields map[string]any) (*recordstore.Record, error)
}

// Store типизированный репозиторий поверх Record Store.
type Store struct {
	client RecordClient
	log    *slog.Logger
}

// New создаёт репозиторий.
func New(client RecordClient, log *slog.Logger) *Store {
	return &Store{client: client, log: log}
}

// FindActiveStaffByPhone ищет активного сотрудника по номеру телефона.
func (s *Store) FindActiveStaffByPhone(ctx context.Context, phone string) (*models.StaffMember, error) {
	const op = "repository.FindActiveStaffByPhone"

	records, err := s.client.List(ctx, models.TableStaffMembers, recordstore.ListOptions{
		Filter: recordstore.And(
			recordstore.Eq(models.FieldPhone, phone),
			recordstore.Eq(models.FieldStatus, "active"),
		),
		MaxRecords: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return nil, recordstore.ErrNotFound
	}
	return models.StaffFromRecord(records[0]), nil
}

// ListClients возвращает всех клиентов.
func (s *Store) ListClients(ctx context.Context) ([]*models.Client, error) {
	const op = "repository.ListClients"

	records, err := s.client.List(ctx, models.TableClients, recordstore.ListOptions{
		SortField: models.FieldFullName,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clients := make([]*models.Client, 0, len(records))
	for _, r := range records {
		clients = append(clients, models.ClientFromRecord(r))
	}
	return clients, nil
}

// GetClient возвращает клиента по ID.
func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "repository.GetClient"

	rec, err := s.client.Get(ctx, models.TableClients, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return models.ClientFromRecord(*rec), nil
}

// CreateClient создаёт клиента и возвращает присвоенный ID.
func (s *Store) CreateClient(ctx context.Context, req models.DummyClient) (string, error) {
	const op = "repository.CreateClient"

	fields := map[string]any{
		models.FieldFullName: req.FullName,
		models.FieldPhone:    req.Phone,
		models.FieldAddress:  req.Address,
		models.FieldCity:     req.City,
		models.FieldStatus:   string(models.ClientActive),
	}
	if req.Type != "" {
		fields[models.FieldClientType] = req.Type
	}
	rec, err := s.client.Create(ctx, models.TableClients, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return rec.ID, nil
}

// UpdateClient частично обновляет поля клиента.
func (s *Store) UpdateClient(ctx context.Context, id string, fields map[string]any) error {
	const op = "repository.UpdateClient"

	if _, err := s.client.Update(ctx, models.TableClients, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetClientStatus архивирует или восстанавливает клиента.
func (s *Store) SetClientStatus(ctx context.Context, id string, status models.ClientStatus) error {
	return s.UpdateClient(ctx, id, map[string]any{models.FieldStatus: string(status)})
}

// ListBookingsByDate возвращает обычные (неповторяющиеся) записи
// с датой date в каноническом формате.
func (s *Store) ListBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	const op = "repository.ListBookingsByDate"

	records, err := s.client.List(ctx, models.TableBookings, recordstore.ListOptions{
		Filter: recordstore.Eq(models.FieldDate, date),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeBookings(records), nil
}

// ListRecurringTemplates возвращает все повторяющиеся шаблоны.
func (s *Store) ListRecurringTemplates(ctx context.Context) ([]*models.Booking, error) {
	const op = "repository.ListRecurringTemplates"

	records, err := s.client.List(ctx, models.TableBookings, recordstore.ListOptions{
		Filter: recordstore.Or(
			recordstore.Eq(models.FieldFrequency, string(models.FreqWeekly)),
			recordstore.Eq(models.FieldFrequency, string(models.FreqBiweekly)),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeBookings(records), nil
}

// ListBookingsByClient возвращает записи клиента, свежие сверху.
func (s *Store) ListBookingsByClient(ctx context.Context, clientID string) ([]*models.Booking, error) {
	const op = "repository.ListBookingsByClient"

	records, err := s.client.List(ctx, models.TableBookings, recordstore.ListOptions{
		Filter:    recordstore.LinkContains(models.FieldClientLink, clientID),
		SortField: models.FieldDate,
		SortDesc:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeBookings(records), nil
}

// decodeBookings конвертирует записи, пропуская испорченные с записью
// в лог: одна нечитаемая запись не должна ломать выборку целиком.
func (s *Store) decodeBookings(records []recordstore.Record) []*models.Booking {
	bookings := make([]*models.Booking, 0, len(records))
	for _, r := range records {
		b, err := models.BookingFromRecord(r)
		if err != nil {
			s.log.Warn("skipping malformed booking record", sl.Err(err))
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings
}

// GetBooking возвращает запись по ID.
func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "repository.GetBooking"

	rec, err := s.client.Get(ctx, models.TableBookings, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b, err := models.BookingFromRecord(*rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// CreateBooking создаёт запись расписания и возвращает её ID.
func (s *Store) CreateBooking(ctx context.Context, req models.DummyBooking) (string, error) {
	const op = "repository.CreateBooking"

	typ := req.Type
	if typ == "" {
		typ = string(models.BookingService)
	}
	cars := req.Cars
	if cars < 1 {
		cars = 1
	}
	fields := map[string]any{
		models.FieldDate:        req.Date,
		models.FieldTime:        req.Time,
		models.FieldBookingType: typ,
		models.FieldCars:        cars,
		models.FieldStatus:      string(models.BookingPending),
	}
	if req.ClientID != "" {
		fields[models.FieldClientLink] = []string{req.ClientID}
	}
	if req.Duration > 0 {
		fields[models.FieldDuration] = req.Duration
	}
	if req.Frequency != "" {
		fields[models.FieldFrequency] = req.Frequency
	}
	if req.EndDate != "" {
		fields[models.FieldEndDate] = req.EndDate
	}
	if req.Exceptions != "" {
		fields[models.FieldExceptions] = req.Exceptions
	}
	if req.Price > 0 {
		fields[models.FieldPrice] = req.Price
	}
	if req.Notes != "" {
		fields[models.FieldNotes] = req.Notes
	}

	rec, err := s.client.Create(ctx, models.TableBookings, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return rec.ID, nil
}

// UpdateBooking частично обновляет поля записи.
func (s *Store) UpdateBooking(ctx context.Context, id string, fields map[string]any) error {
	const op = "repository.UpdateBooking"

	if _, err := s.client.Update(ctx, models.TableBookings, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetBookingStatus выставляет статус записи без прочих побочных эффектов.
func (s *Store) SetBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	return s.UpdateBooking(ctx, id, map[string]any{models.FieldStatus: string(status)})
}

// ListSubscriptionsByClient возвращает абонементы клиента.
func (s *Store) ListSubscriptionsByClient(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	const op = "repository.ListSubscriptionsByClient"

	records, err := s.client.List(ctx, models.TableSubscriptions, recordstore.ListOptions{
		Filter:    recordstore.LinkContains(models.FieldClient, clientID),
		SortField: models.FieldStartDate,
		SortDesc:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeSubscriptions(records), nil
}

// ListEligibleSubscriptions возвращает абонементы клиента, пригодные
// для списания: активные и с положительным остатком, свежие сверху
// (при нескольких подходящих выбирается последний начатый).
func (s *Store) ListEligibleSubscriptions(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	const op = "repository.ListEligibleSubscriptions"

	records, err := s.client.List(ctx, models.TableSubscriptions, recordstore.ListOptions{
		Filter: recordstore.And(
			recordstore.LinkContains(models.FieldClient, clientID),
			recordstore.Eq(models.FieldStatus, string(models.SubscriptionActive)),
			recordstore.GtNum(models.FieldRemaining, 0),
		),
		SortField: models.FieldStartDate,
		SortDesc:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeSubscriptions(records), nil
}

// ListSubscriptions возвращает все абонементы.
func (s *Store) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "repository.ListSubscriptions"

	records, err := s.client.List(ctx, models.TableSubscriptions, recordstore.ListOptions{
		SortField: models.FieldStartDate,
		SortDesc:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decodeSubscriptions(records), nil
}

func (s *Store) decodeSubscriptions(records []recordstore.Record) []*models.Subscription {
	subs := make([]*models.Subscription, 0, len(records))
	for _, r := range records {
		sub, err := models.SubscriptionFromRecord(r)
		if err != nil {
			s.log.Warn("skipping malformed subscription record", sl.Err(err))
			continue
		}
		subs = append(subs, sub)
	}
	return subs
}

// GetSubscription возвращает абонемент по ID.
func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "repository.GetSubscription"

	rec, err := s.client.Get(ctx, models.TableSubscriptions, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := models.SubscriptionFromRecord(*rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CreateSubscription создаёт абонемент. Remaining инициализируется
// равным Total — новый абонемент не имеет списаний.
func (s *Store) CreateSubscription(ctx context.Context, req models.DummySubscription) (string, error) {
	const op = "repository.CreateSubscription"

	payment := req.Payment
	if payment == "" {
		payment = string(models.PaymentUnpaid)
	}
	fields := map[string]any{
		models.FieldClient:        []string{req.ClientID},
		models.FieldTotalWashes:   req.Total,
		models.FieldUsedWashes:    "0",
		models.FieldRemaining:     strconv.Itoa(req.Total),
		models.FieldWashValue:     req.WashValue,
		models.FieldStartDate:     req.StartDate,
		models.FieldStatus:        string(models.SubscriptionActive),
		models.FieldPaymentStatus: payment,
	}
	if req.EndDate != "" {
		fields[models.FieldEndDate] = req.EndDate
	}
	if req.Type != "" {
		fields[models.FieldSubType] = req.Type
	}

	rec, err := s.client.Create(ctx, models.TableSubscriptions, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return rec.ID, nil
}

// UpdateSubscriptionCounts записывает счётчики списаний. Оба поля
// пишутся всегда и одним запросом: Remaining — производное от Used,
// но хранилище исторически держит его отдельным полем (строкой).
func (s *Store) UpdateSubscriptionCounts(ctx context.Context, id string, used, remaining int) error {
	const op = "repository.UpdateSubscriptionCounts"

	_, err := s.client.Update(ctx, models.TableSubscriptions, id, map[string]any{
		models.FieldUsedWashes: strconv.Itoa(used),
		models.FieldRemaining:  strconv.Itoa(remaining),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscription частично обновляет прочие поля абонемента.
func (s *Store) UpdateSubscription(ctx context.Context, id string, fields map[string]any) error {
	const op = "repository.UpdateSubscription"

	if _, err := s.client.Update(ctx, models.TableSubscriptions, id, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
