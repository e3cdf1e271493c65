// Package services реализует завершение записи с согласованием баланса
// абонемента. Завершение записи обслуживания оплачивается либо списанием
// визитов с абонемента клиента, либо ручной оплатой.
//
// Порядок записи фиксирован: сначала счётчики абонемента, затем запись
// расписания. Если второй шаг упал, деньги уже списаны, и вызывающая
// сторона получает ErrPartialReconcile, чтобы оператор увидел
// расхождение явно, а не узнал о нём из отчётов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carwasher/carwash-dashboard/internal/lib/balance"
	"github.com/carwasher/carwash-dashboard/internal/lib/rabbitmq"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// Ошибки бизнес-уровня, которые обработчики транслируют в HTTP-статусы.
var (
	// ErrBlockerBooking запись-блокировка не завершается и не оплачивается.
	ErrBlockerBooking = errors.New("booking is a time blocker")
	// ErrAlreadyCompleted запись уже завершена.
	ErrAlreadyCompleted = errors.New("booking is already completed")
	// ErrNoSubscription у клиента нет подходящего абонемента.
	ErrNoSubscription = errors.New("client has no eligible subscription")
	// ErrOverdraftConfirm списание уводит остаток в минус и требует
	// явного подтверждения оператора.
	ErrOverdraftConfirm = errors.New("punch exceeds remaining washes, overdraft confirmation required")
	// ErrPartialReconcile абонемент списан, но запись обновить не удалось.
	ErrPartialReconcile = errors.New("subscription was charged but booking update failed")
)

// ReconcileRepository описывает операции хранилища, нужные завершению записи.
type ReconcileRepository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, fields map[string]any) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	// ListEligibleSubscriptions возвращает активные абонементы клиента
	// с положительным остатком, свежие первыми.
	ListEligibleSubscriptions(ctx context.Context, clientID string) ([]*models.Subscription, error)
	UpdateSubscriptionCounts(ctx context.Context, id string, used, remaining int) error
}

// Publisher публикует задание на уведомление в очередь.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Invalidate(key string) error
}

// Proposal предрасчёт списания, который показывается оператору
// перед подтверждением завершения.
type Proposal struct {
	Booking       *models.Booking      `json:"booking"`
	Client        *models.Client       `json:"client"`
	Subscription  *models.Subscription `json:"subscription,omitempty"`
	ProposedPunch int                  `json:"proposed_punch"`
	FallbackPrice float64              `json:"fallback_price"`
}

// Result итог завершения записи.
type Result struct {
	BookingID    string               `json:"booking_id"`
	Price        float64              `json:"price"`
	Method       string               `json:"payment_method"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// ReconcileService завершает записи и согласует их с балансом абонементов.
type ReconcileService struct {
	repo      ReconcileRepository
	publisher Publisher
	cache     Cache
	log       *slog.Logger
	unitPrice float64
}

// NewReconcileService создает новый экземпляр ReconcileService.
// unitPrice — цена одной мойки без абонемента, для предрасчёта.
func NewReconcileService(repo ReconcileRepository, publisher Publisher, cache Cache,
	log *slog.Logger, unitPrice float64) *ReconcileService {
	return &ReconcileService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		log:       log,
		unitPrice: unitPrice,
	}
}

// Propose рассчитывает предложение по завершению: подходящий абонемент,
// количество списаний и резервную цену, если абонемента нет.
func (s *ReconcileService) Propose(ctx context.Context, bookingID string) (*Proposal, error) {
	booking, client, err := s.serviceBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Резервная цена — цена, указанная в самой записи; оценка по
	// количеству машин используется, только когда цена не заполнена.
	fallback := booking.Price
	if fallback <= 0 {
		fallback = float64(booking.Cars) * s.unitPrice
	}

	proposal := &Proposal{
		Booking:       booking,
		Client:        client,
		FallbackPrice: fallback,
	}

	sub, err := s.eligibleSubscription(ctx, booking.ClientID)
	if err != nil && !errors.Is(err, ErrNoSubscription) {
		return nil, err
	}
	if sub != nil {
		proposal.Subscription = sub
		proposal.ProposedPunch = balance.ProposedPunch(booking.Cars, sub.Remaining)
	}
	return proposal, nil
}

// CompleteWithPunch завершает запись списанием визитов с абонемента.
// Списание сверх остатка выполняется только с req.ConfirmOverdraft.
func (s *ReconcileService) CompleteWithPunch(ctx context.Context, bookingID string, req models.DummyPunch) (*Result, error) {
	booking, _, err := s.serviceBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	sub, err := s.eligibleSubscription(ctx, booking.ClientID)
	if err != nil {
		return nil, err
	}
	if req.PunchCount > sub.Remaining && !req.ConfirmOverdraft {
		return nil, ErrOverdraftConfirm
	}

	charged := balance.ApplyUsage(*sub, req.PunchCount)

	// Сначала абонемент, потом запись: перерасход баланса страшнее,
	// чем незакрытая запись в расписании.
	if err := s.repo.UpdateSubscriptionCounts(ctx, sub.ID, charged.Used, charged.Remaining); err != nil {
		return nil, fmt.Errorf("charge subscription %s: %w", sub.ID, err)
	}

	price := float64(req.PunchCount) * sub.WashValue
	fields := map[string]any{
		models.FieldStatus:        string(models.BookingDone),
		models.FieldPrice:         price,
		models.FieldPaymentMethod: models.PaymentMethodSubscription,
	}
	if err := s.repo.UpdateBooking(ctx, bookingID, fields); err != nil {
		s.log.Error("booking update failed after subscription charge",
			slog.String("booking_id", bookingID),
			slog.String("subscription_id", sub.ID),
			sl.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrPartialReconcile, err)
	}

	s.invalidateDay(booking.Date)
	s.notifyBalance(booking.ClientID, &charged)

	s.log.Info("booking completed with punch",
		slog.String("booking_id", bookingID),
		slog.Int("punch_count", req.PunchCount),
		slog.Int("remaining", charged.Remaining))

	return &Result{
		BookingID:    bookingID,
		Price:        price,
		Method:       models.PaymentMethodSubscription,
		Subscription: &charged,
	}, nil
}

// CompleteWithPayment завершает запись ручной оплатой, абонемент не трогается.
func (s *ReconcileService) CompleteWithPayment(ctx context.Context, bookingID string, req models.DummyPayment) (*Result, error) {
	booking, _, err := s.serviceBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		models.FieldStatus:        string(models.BookingDone),
		models.FieldPrice:         req.Amount,
		models.FieldPaymentMethod: req.Method,
	}
	if req.Notes != "" {
		fields[models.FieldNotes] = req.Notes
	}
	if err := s.repo.UpdateBooking(ctx, bookingID, fields); err != nil {
		return nil, fmt.Errorf("complete booking %s: %w", bookingID, err)
	}

	s.invalidateDay(booking.Date)

	s.log.Info("booking completed with manual payment",
		slog.String("booking_id", bookingID),
		slog.Float64("amount", req.Amount),
		slog.String("method", req.Method))

	return &Result{BookingID: bookingID, Price: req.Amount, Method: req.Method}, nil
}

// serviceBooking загружает запись и её клиента и отбрасывает записи,
// которые завершать нельзя.
func (s *ReconcileService) serviceBooking(ctx context.Context, bookingID string) (*models.Booking, *models.Client, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.IsBlocker() {
		return nil, nil, ErrBlockerBooking
	}
	if booking.Status == models.BookingDone {
		return nil, nil, ErrAlreadyCompleted
	}
	client, err := s.repo.GetClient(ctx, booking.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return booking, client, nil
}

// eligibleSubscription возвращает самый свежий подходящий абонемент
// клиента. Пригодность (активен, остаток положителен) проверяется
// и здесь, а не только формулой выборки на стороне хранилища.
func (s *ReconcileService) eligibleSubscription(ctx context.Context, clientID string) (*models.Subscription, error) {
	subs, err := s.repo.ListEligibleSubscriptions(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Status == models.SubscriptionActive && sub.Remaining > 0 {
			return sub, nil
		}
	}
	return nil, ErrNoSubscription
}

// notifyBalance публикует задание на отправку клиенту сводки по балансу.
// Публикация необязательна: её отказ не откатывает завершение.
func (s *ReconcileService) notifyBalance(clientID string, sub *models.Subscription) {
	job := models.BalanceNotification{
		JobID:     uuid.NewString(),
		ClientID:  clientID,
		Total:     sub.Total,
		Used:      sub.Used,
		Remaining: sub.Remaining,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingSubscription, job); err != nil {
		s.log.Warn("failed to publish balance notification",
			slog.String("client_id", clientID), sl.Err(err))
	}
}

func (s *ReconcileService) invalidateDay(date time.Time) {
	key := "schedule:" + date.Format(models.DateLayout)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate schedule cache", slog.String("key", key), sl.Err(err))
	}
}
