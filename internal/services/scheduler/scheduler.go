// Package services находит завтрашние визиты и ставит задания на
// напоминания в очередь уведомлений.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carwasher/carwash-dashboard/internal/lib/rabbitmq"
	"github.com/carwasher/carwash-dashboard/internal/lib/recur"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// ScheduleRepository выборки расписания, нужные планировщику напоминаний.
type ScheduleRepository interface {
	ListBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	ListRecurringTemplates(ctx context.Context) ([]*models.Booking, error)
}

// Publisher публикует задание на уведомление в очередь.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// SchedulerService периодически собирает завтрашние визиты
// и публикует по заданию на каждое напоминание.
type SchedulerService struct {
	repo      ScheduleRepository
	publisher Publisher
	log       *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo ScheduleRepository, publisher Publisher, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Run запускает цикл планировщика: проход сразу при старте, далее раз
// в interval, до отмены контекста.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.RunOnce(ctx, time.Now().UTC())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, time.Now().UTC())
		}
	}
}

// RunOnce находит визиты на день после now и ставит задания на
// напоминания. Блокировки и отменённые записи пропускаются.
func (s *SchedulerService) RunOnce(ctx context.Context, now time.Time) {
	tomorrow := now.AddDate(0, 0, 1)
	date := tomorrow.Format(models.DateLayout)
	s.log.Info("looking for bookings due tomorrow", slog.String("date", date))

	stored, err := s.repo.ListBookingsByDate(ctx, date)
	if err != nil {
		s.log.Error("failed to list bookings", sl.Err(err))
		return
	}
	templates, err := s.repo.ListRecurringTemplates(ctx)
	if err != nil {
		s.log.Error("failed to list recurring templates", sl.Err(err))
		return
	}

	seen := make(map[string]struct{}, len(stored))
	for _, b := range stored {
		seen[b.ID] = struct{}{}
	}
	merged := stored
	for _, t := range templates {
		if _, ok := seen[t.ID]; !ok {
			merged = append(merged, t)
		}
	}

	bookings := recur.ExpandDay(merged, tomorrow)
	published := 0
	for _, b := range bookings {
		if b.IsBlocker() || b.Status == models.BookingCancelled {
			continue
		}
		job := models.ReminderNotification{
			JobID:    uuid.NewString(),
			ClientID: b.ClientID,
			Date:     date,
			Time:     b.Time,
		}
		if err := s.publisher.Publish(rabbitmq.RoutingReminder, job); err != nil {
			s.log.Error("failed to publish reminder", slog.String("booking_id", b.ID), sl.Err(err))
			continue
		}
		published++
	}
	s.log.Info("reminder jobs published", slog.Int("count", published))
}
