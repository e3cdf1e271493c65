// Package services содержит бизнес-логику для управления абонементами:
// продажа, просмотр с историей списаний, частичное обновление и ручная
// корректировка остатка.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/lib/balance"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// ErrOverdraftConfirm корректировка уводит остаток в минус и требует
// явного подтверждения оператора.
var ErrOverdraftConfirm = errors.New("adjustment makes balance negative, overdraft confirmation required")

// SubscriptionRepository определяет методы для работы с абонементами в хранилище.
type SubscriptionRepository interface {
	ListSubscriptions(ctx context.Context) ([]*models.Subscription, error)
	ListSubscriptionsByClient(ctx context.Context, clientID string) ([]*models.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, req models.DummySubscription) (string, error)
	UpdateSubscription(ctx context.Context, id string, fields map[string]any) error
	// UpdateSubscriptionCounts записывает Used и Remaining одной операцией.
	UpdateSubscriptionCounts(ctx context.Context, id string, used, remaining int) error
	ListBookingsByClient(ctx context.Context, clientID string) ([]*models.Booking, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
}

// Details абонемент с клиентом, прогрессом использования и историей списаний.
type Details struct {
	Subscription *models.Subscription `json:"subscription"`
	Client       *models.Client       `json:"client"`
	Progress     float64              `json:"progress"`
	Tier         balance.Tier         `json:"progress_tier"`
	Usage        []*models.Booking    `json:"usage"`
}

// SubscriptionService реализует бизнес-логику работы с абонементами.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
	}
}

// List возвращает абонементы: все или только одного клиента.
func (s *SubscriptionService) List(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	if clientID != "" {
		return s.repo.ListSubscriptionsByClient(ctx, clientID)
	}
	return s.repo.ListSubscriptions(ctx)
}

// Create продаёт клиенту новый абонемент. Остаток инициализируется
// полным количеством моек.
func (s *SubscriptionService) Create(ctx context.Context, req models.DummySubscription) (string, error) {
	if _, err := s.repo.GetClient(ctx, req.ClientID); err != nil {
		return "", fmt.Errorf("client %s: %w", req.ClientID, err)
	}
	id, err := s.repo.CreateSubscription(ctx, req)
	if err != nil {
		return "", err
	}
	s.log.Info("created subscription",
		slog.String("id", id),
		slog.String("client_id", req.ClientID),
		slog.Int("total", req.Total))
	return id, nil
}

// Read возвращает абонемент с прогрессом и историей списаний.
// История — завершённые записи клиента, оплаченные этим способом,
// начиная с даты начала абонемента.
func (s *SubscriptionService) Read(ctx context.Context, id string) (*Details, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetClient(ctx, sub.ClientID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsByClient(ctx, sub.ClientID)
	if err != nil {
		return nil, err
	}
	usage := make([]*models.Booking, 0)
	for _, b := range bookings {
		if b.Status != models.BookingDone || b.PaymentMethod != models.PaymentMethodSubscription {
			continue
		}
		if b.Date.Before(sub.StartDate) {
			continue
		}
		usage = append(usage, b)
	}

	progress, tier := balance.Progress(sub.Used, sub.Total)
	return &Details{
		Subscription: sub,
		Client:       client,
		Progress:     progress,
		Tier:         tier,
		Usage:        usage,
	}, nil
}

// Update частично обновляет абонемент. Смена Total пересчитывает
// остаток от текущего Used.
func (s *SubscriptionService) Update(ctx context.Context, id string, req models.DummySubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if req.WashValue != nil {
		fields[models.FieldWashValue] = *req.WashValue
		sub.WashValue = *req.WashValue
	}
	if req.Status != "" {
		fields[models.FieldStatus] = req.Status
		sub.Status = models.SubscriptionStatus(req.Status)
	}
	if req.Payment != "" {
		fields[models.FieldPaymentStatus] = req.Payment
		sub.Payment = models.PaymentStatus(req.Payment)
	}
	if req.EndDate != "" {
		fields[models.FieldEndDate] = req.EndDate
		end, _ := time.Parse(models.DateLayout, req.EndDate)
		sub.EndDate = &end
	}
	if req.Type != "" {
		fields[models.FieldSubType] = req.Type
		sub.Type = req.Type
	}
	recount := req.Total != nil && *req.Total != sub.Total
	if recount {
		sub.Total = *req.Total
		sub.Remaining = sub.Total - sub.Used
		fields[models.FieldTotalWashes] = sub.Total
	}
	if len(fields) > 0 {
		if err := s.repo.UpdateSubscription(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if recount {
		if err := s.repo.UpdateSubscriptionCounts(ctx, id, sub.Used, sub.Remaining); err != nil {
			return nil, err
		}
	}

	s.log.Info("updated subscription", slog.String("id", id))
	return sub, nil
}

// Adjust вручную выставляет остаток. Used пересчитывается так, чтобы
// инвариант Remaining = Total - Used сохранился. Отрицательный остаток
// требует подтверждения.
func (s *SubscriptionService) Adjust(ctx context.Context, id string, req models.DummyAdjust) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.NewRemaining < 0 && !req.ConfirmOverdraft {
		return nil, ErrOverdraftConfirm
	}

	adjusted := balance.SetRemaining(*sub, req.NewRemaining)
	if err := s.repo.UpdateSubscriptionCounts(ctx, id, adjusted.Used, adjusted.Remaining); err != nil {
		return nil, err
	}

	s.log.Info("adjusted subscription balance",
		slog.String("id", id),
		slog.Int("old_remaining", sub.Remaining),
		slog.Int("new_remaining", adjusted.Remaining))
	return &adjusted, nil
}
