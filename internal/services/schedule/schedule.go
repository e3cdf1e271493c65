// Package services собирает расписание дня и управляет жизненным циклом
// записей. Повторяющиеся записи хранятся одним шаблоном, а экземпляры
// на конкретные даты раскрываются при чтении (internal/lib/recur).
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/lib/recur"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// Время жизни кеша дня. Расписание меняется часто, поэтому короткое.
const dayCacheTTL = time.Minute

var (
	// ErrInvalidTransition запрошенный переход статуса не разрешён.
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrCompleteViaReconcile перевод в done выполняется только через
	// завершение с согласованием оплаты.
	ErrCompleteViaReconcile = errors.New("booking completion must go through reconciliation")
)

// ScheduleRepository описывает операции хранилища для работы с расписанием.
type ScheduleRepository interface {
	ListBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	ListRecurringTemplates(ctx context.Context) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, req models.DummyBooking) (string, error)
	UpdateBooking(ctx context.Context, id string, fields map[string]any) error
	SetBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ScheduleService реализует бизнес-логику расписания.
type ScheduleService struct {
	repo  ScheduleRepository
	cache Cache
	log   *slog.Logger
}

// NewScheduleService создает новый экземпляр ScheduleService.
func NewScheduleService(repo ScheduleRepository, cache Cache, log *slog.Logger) *ScheduleService {
	return &ScheduleService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Day возвращает все записи на дату: сохранённые плюс виртуальные
// экземпляры повторяющихся шаблонов, отсортированные по времени дня.
func (s *ScheduleService) Day(ctx context.Context, date string) ([]*models.Booking, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	cacheKey := "schedule:" + date
	var cached []*models.Booking
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("schedule cache read failed", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	stored, err := s.repo.ListBookingsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	templates, err := s.repo.ListRecurringTemplates(ctx)
	if err != nil {
		return nil, err
	}

	// Шаблон с датой начала на этот же день приходит из обеих выборок,
	// поэтому объединение идёт с дедупликацией по ID.
	merged := stored
	seen := make(map[string]struct{}, len(stored))
	for _, b := range stored {
		seen[b.ID] = struct{}{}
	}
	for _, t := range templates {
		if _, ok := seen[t.ID]; !ok {
			merged = append(merged, t)
		}
	}

	bookings := recur.ExpandDay(merged, day)
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].Time < bookings[j].Time
	})

	if err := s.cache.Set(cacheKey, bookings, dayCacheTTL); err != nil {
		s.log.Warn("failed to cache schedule", slog.String("key", cacheKey), sl.Err(err))
	}
	return bookings, nil
}

// Create добавляет запись или блокировку времени.
func (s *ScheduleService) Create(ctx context.Context, req models.DummyBooking) (string, error) {
	id, err := s.repo.CreateBooking(ctx, req)
	if err != nil {
		return "", err
	}
	s.invalidateDay(req.Date)
	s.log.Info("created booking", slog.String("id", id), slog.String("date", req.Date))
	return id, nil
}

// Update переписывает редактируемые поля записи.
func (s *ScheduleService) Update(ctx context.Context, id string, req models.DummyBooking) error {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	fields := map[string]any{
		models.FieldDate:       req.Date,
		models.FieldTime:       req.Time,
		models.FieldDuration:   req.Duration,
		models.FieldCars:       req.Cars,
		models.FieldFrequency:  req.Frequency,
		models.FieldExceptions: req.Exceptions,
		models.FieldNotes:      req.Notes,
	}
	if req.ClientID != "" {
		fields[models.FieldClientLink] = []string{req.ClientID}
	}
	if req.EndDate != "" {
		fields[models.FieldEndDate] = req.EndDate
	}
	if err := s.repo.UpdateBooking(ctx, id, fields); err != nil {
		return err
	}

	// Перенос на другую дату протухает оба дня.
	s.invalidateDay(current.Date.Format(models.DateLayout))
	if req.Date != current.Date.Format(models.DateLayout) {
		s.invalidateDay(req.Date)
	}
	return nil
}

// SetStatus выполняет переход статуса записи. Перевод в done здесь
// запрещён: завершение идёт через согласование оплаты.
func (s *ScheduleService) SetStatus(ctx context.Context, id string, target models.BookingStatus) (*models.Booking, error) {
	if target == models.BookingDone {
		return nil, ErrCompleteViaReconcile
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(booking.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	if err := s.repo.SetBookingStatus(ctx, id, target); err != nil {
		return nil, err
	}
	s.invalidateDay(booking.Date.Format(models.DateLayout))

	s.log.Info("booking status changed",
		slog.String("id", id),
		slog.String("from", string(booking.Status)),
		slog.String("to", string(target)))

	booking.Status = target
	return booking, nil
}

// Cancel отменяет запись. Для повторяющегося шаблона отменяется только
// экземпляр на указанную дату: дата добавляется в исключения, остальные
// повторения не затрагиваются.
func (s *ScheduleService) Cancel(ctx context.Context, id, date string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.IsRecurring() && date != "" && date != booking.Date.Format(models.DateLayout) {
		exceptions := booking.Exceptions
		if exceptions == "" {
			exceptions = date
		} else {
			exceptions += ", " + date
		}
		fields := map[string]any{models.FieldExceptions: exceptions}
		if err := s.repo.UpdateBooking(ctx, id, fields); err != nil {
			return nil, err
		}
		s.invalidateDay(date)
		booking.Exceptions = exceptions
		return booking, nil
	}

	return s.SetStatus(ctx, id, models.BookingCancelled)
}

// Restore возвращает отменённую или завершённую запись в confirmed.
// Откат завершения не возвращает списанные визиты: корректировка
// баланса выполняется оператором отдельно.
func (s *ScheduleService) Restore(ctx context.Context, id string) (*models.Booking, error) {
	return s.SetStatus(ctx, id, models.BookingConfirmed)
}

// transitionAllowed проверяет разрешённые переходы статусов.
// В done переходов отсюда нет, см. SetStatus.
func transitionAllowed(from, to models.BookingStatus) bool {
	switch to {
	case models.BookingConfirmed:
		return from == models.BookingPending || from == models.BookingCancelled || from == models.BookingDone
	case models.BookingCancelled:
		return from == models.BookingPending || from == models.BookingConfirmed
	default:
		return false
	}
}

func (s *ScheduleService) invalidateDay(date string) {
	key := "schedule:" + date
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate schedule cache", slog.String("key", key), sl.Err(err))
	}
}
