// Package services содержит бизнес-логику работы с клиентами: карточка
// клиента собирается из нескольких таблиц хранилища, клиенты не
// удаляются, а архивируются.
package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// ClientRepository определяет методы для работы с клиентами в хранилище.
type ClientRepository interface {
	ListClients(ctx context.Context) ([]*models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, req models.DummyClient) (string, error)
	UpdateClient(ctx context.Context, id string, fields map[string]any) error
	SetClientStatus(ctx context.Context, id string, status models.ClientStatus) error
	ListBookingsByClient(ctx context.Context, clientID string) ([]*models.Booking, error)
	ListSubscriptionsByClient(ctx context.Context, clientID string) ([]*models.Subscription, error)
}

// MonthlyStat агрегат завершённых визитов за календарный месяц.
type MonthlyStat struct {
	Month  string  `json:"month"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

// Stats сводка по истории клиента. Считается только по завершённым
// визитам; NextVisit — ближайшая будущая незавершённая запись.
type Stats struct {
	TotalVisits int           `json:"total_visits"`
	TotalSpent  float64       `json:"total_spent"`
	AverageCars float64       `json:"average_cars"`
	LastVisit   *time.Time    `json:"last_visit,omitempty"`
	NextVisit   *time.Time    `json:"next_visit,omitempty"`
	Monthly     []MonthlyStat `json:"monthly,omitempty"`
}

// Details карточка клиента. Bookings и Subscriptions могут быть nil
// при отказе соответствующей выборки: карточка показывается частично,
// а не падает целиком.
type Details struct {
	Client        *models.Client         `json:"client"`
	Bookings      []*models.Booking      `json:"bookings"`
	Subscriptions []*models.Subscription `json:"subscriptions"`
	Stats         Stats                  `json:"stats"`
	Partial       bool                   `json:"partial,omitempty"`
}

// ClientService реализует бизнес-логику работы с клиентами.
type ClientService struct {
	repo ClientRepository
	log  *slog.Logger
}

// NewClientService создает новый экземпляр ClientService.
func NewClientService(repo ClientRepository, log *slog.Logger) *ClientService {
	return &ClientService{
		repo: repo,
		log:  log,
	}
}

// List возвращает клиентов, по умолчанию только активных.
func (s *ClientService) List(ctx context.Context, includeArchived bool) ([]*models.Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return clients, nil
	}
	active := make([]*models.Client, 0, len(clients))
	for _, c := range clients {
		if c.Status != models.ClientArchived {
			active = append(active, c)
		}
	}
	return active, nil
}

// Create добавляет клиента.
func (s *ClientService) Create(ctx context.Context, req models.DummyClient) (string, error) {
	id, err := s.repo.CreateClient(ctx, req)
	if err != nil {
		return "", err
	}
	s.log.Info("created client", slog.String("id", id))
	return id, nil
}

// Read собирает карточку клиента: профиль, записи, абонементы и сводку.
// Профиль обязателен; отказ остальных выборок деградирует карточку
// до частичной, с пометкой Partial.
func (s *ClientService) Read(ctx context.Context, id string) (*Details, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &Details{Client: client}

	bookings, err := s.repo.ListBookingsByClient(ctx, id)
	if err != nil {
		s.log.Warn("client bookings unavailable", slog.String("client_id", id), sl.Err(err))
		details.Partial = true
	} else {
		details.Bookings = bookings
		details.Stats = collectStats(bookings, time.Now().UTC())
	}

	subs, err := s.repo.ListSubscriptionsByClient(ctx, id)
	if err != nil {
		s.log.Warn("client subscriptions unavailable", slog.String("client_id", id), sl.Err(err))
		details.Partial = true
	} else {
		details.Subscriptions = subs
	}

	return details, nil
}

// Update переписывает редактируемые поля профиля клиента.
func (s *ClientService) Update(ctx context.Context, id string, req models.DummyClient) error {
	fields := map[string]any{
		models.FieldFullName: req.FullName,
		models.FieldPhone:    req.Phone,
		models.FieldAddress:  req.Address,
		models.FieldCity:     req.City,
	}
	if req.Type != "" {
		fields[models.FieldClientType] = req.Type
	}
	if err := s.repo.UpdateClient(ctx, id, fields); err != nil {
		return err
	}
	s.log.Info("updated client", slog.String("id", id))
	return nil
}

// Archive скрывает клиента из активных списков. История записей
// и абонементы остаются нетронутыми.
func (s *ClientService) Archive(ctx context.Context, id string) error {
	if err := s.repo.SetClientStatus(ctx, id, models.ClientArchived); err != nil {
		return err
	}
	s.log.Info("archived client", slog.String("id", id))
	return nil
}

// Restore возвращает архивного клиента в активные.
func (s *ClientService) Restore(ctx context.Context, id string) error {
	if err := s.repo.SetClientStatus(ctx, id, models.ClientActive); err != nil {
		return err
	}
	s.log.Info("restored client", slog.String("id", id))
	return nil
}

// collectStats считает сводку по истории клиента на момент now.
func collectStats(bookings []*models.Booking, now time.Time) Stats {
	var stats Stats
	var cars int
	monthly := make(map[string]*MonthlyStat)

	for _, b := range bookings {
		switch b.Status {
		case models.BookingDone:
			stats.TotalVisits++
			stats.TotalSpent += b.Price
			cars += b.Cars
			if stats.LastVisit == nil || b.Date.After(*stats.LastVisit) {
				d := b.Date
				stats.LastVisit = &d
			}
			key := b.Date.Format("2006-01")
			m, ok := monthly[key]
			if !ok {
				m = &MonthlyStat{Month: key}
				monthly[key] = m
			}
			m.Visits++
			m.Spent += b.Price
		case models.BookingPending, models.BookingConfirmed:
			if b.Date.After(now) && (stats.NextVisit == nil || b.Date.Before(*stats.NextVisit)) {
				d := b.Date
				stats.NextVisit = &d
			}
		}
	}

	if stats.TotalVisits > 0 {
		stats.AverageCars = float64(cars) / float64(stats.TotalVisits)
	}
	for _, m := range monthly {
		stats.Monthly = append(stats.Monthly, *m)
	}
	// Свежие месяцы сверху.
	sort.Slice(stats.Monthly, func(i, j int) bool {
		return stats.Monthly[i].Month > stats.Monthly[j].Month
	})
	return stats
}
