package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carwasher/carwash-dashboard/internal/models"
	services "github.com/carwasher/carwash-dashboard/internal/services/reconcile"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *RepoMock) UpdateBooking(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *RepoMock) GetClient(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) ListEligibleSubscriptions(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) UpdateSubscriptionCounts(ctx context.Context, id string, used, remaining int) error {
	args := m.Called(ctx, id, used, remaining)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newBooking() *models.Booking {
	return &models.Booking{
		ID:       "bk1",
		Date:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Time:     "10:00",
		ClientID: "cl1",
		Cars:     2,
		Status:   models.BookingConfirmed,
		Type:     models.BookingService,
	}
}

func newSubscription(used, total int) *models.Subscription {
	return &models.Subscription{
		ID:        "sub1",
		ClientID:  "cl1",
		Total:     total,
		Used:      used,
		Remaining: total - used,
		WashValue: 30,
		Status:    models.SubscriptionActive,
	}
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepoMock, pub *PublisherMock, cache *CacheMock) *services.ReconcileService {
	return services.NewReconcileService(repo, pub, cache, newNoopLogger(), 25)
}

func TestPropose(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantPunch  int
		wantSub    bool
		wantErr    error
	}{
		{
			name: "абонемент найден, списание ограничено остатком",
			setupMocks: func(r *RepoMock) {
				r.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
				r.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
				r.On("ListEligibleSubscriptions", mock.Anything, "cl1").
					Return([]*models.Subscription{newSubscription(9, 10)}, nil)
			},
			wantPunch: 1,
			wantSub:   true,
		},
		{
			name: "абонемента нет, остаётся резервная цена",
			setupMocks: func(r *RepoMock) {
				r.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
				r.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
				r.On("ListEligibleSubscriptions", mock.Anything, "cl1").
					Return([]*models.Subscription{}, nil)
			},
			wantSub: false,
		},
		{
			name: "блокировка не завершается",
			setupMocks: func(r *RepoMock) {
				b := newBooking()
				b.Type = models.BookingBlocker
				b.ClientID = ""
				r.On("GetBooking", mock.Anything, "bk1").Return(b, nil)
			},
			wantErr: services.ErrBlockerBooking,
		},
		{
			name: "завершённая запись не предлагается повторно",
			setupMocks: func(r *RepoMock) {
				b := newBooking()
				b.Status = models.BookingDone
				r.On("GetBooking", mock.Anything, "bk1").Return(b, nil)
			},
			wantErr: services.ErrAlreadyCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			svc := newService(repo, new(PublisherMock), new(CacheMock))
			proposal, err := svc.Propose(context.Background(), "bk1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, float64(50), proposal.FallbackPrice)
			if tt.wantSub {
				require.NotNil(t, proposal.Subscription)
				assert.Equal(t, tt.wantPunch, proposal.ProposedPunch)
			} else {
				assert.Nil(t, proposal.Subscription)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPropose_FallbackPrefersStoredPrice(t *testing.T) {
	repo := new(RepoMock)
	b := newBooking()
	b.Price = 90
	repo.On("GetBooking", mock.Anything, "bk1").Return(b, nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{}, nil)

	svc := newService(repo, new(PublisherMock), new(CacheMock))
	proposal, err := svc.Propose(context.Background(), "bk1")

	require.NoError(t, err)
	// Цена из записи важнее оценки по количеству машин.
	assert.Equal(t, float64(90), proposal.FallbackPrice)
}

func TestCompleteWithPunch_IneligibleSubscriptionsFromStoreAreSkipped(t *testing.T) {
	repo := new(RepoMock)
	suspended := newSubscription(3, 10)
	suspended.Status = models.SubscriptionSuspended
	exhausted := newSubscription(10, 10)
	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	// Хранилище ошибочно вернуло негодные абонементы.
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{suspended, exhausted}, nil)

	svc := newService(repo, new(PublisherMock), new(CacheMock))
	_, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 1})

	assert.ErrorIs(t, err, services.ErrNoSubscription)
	repo.AssertNotCalled(t, "UpdateSubscriptionCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteWithPunch_ChargesSubscriptionFirst(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	cache := new(CacheMock)

	var order []string
	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{newSubscription(3, 10)}, nil)
	repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", 5, 5).
		Run(func(mock.Arguments) { order = append(order, "subscription") }).Return(nil)
	repo.On("UpdateBooking", mock.Anything, "bk1", mock.MatchedBy(func(fields map[string]any) bool {
		return fields[models.FieldStatus] == string(models.BookingDone) &&
			fields[models.FieldPrice] == float64(60) &&
			fields[models.FieldPaymentMethod] == models.PaymentMethodSubscription
	})).Run(func(mock.Arguments) { order = append(order, "booking") }).Return(nil)
	pub.On("Publish", "subscription", mock.Anything).Return(nil)
	cache.On("Invalidate", "schedule:2026-03-10").Return(nil)

	svc := newService(repo, pub, cache)
	res, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"subscription", "booking"}, order)
	assert.Equal(t, float64(60), res.Price)
	assert.Equal(t, models.PaymentMethodSubscription, res.Method)
	assert.Equal(t, 5, res.Subscription.Remaining)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCompleteWithPunch_OverdraftRequiresConfirmation(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{newSubscription(9, 10)}, nil)

	svc := newService(repo, new(PublisherMock), new(CacheMock))
	_, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 2})

	assert.ErrorIs(t, err, services.ErrOverdraftConfirm)
	// Без подтверждения ни одна запись не меняется.
	repo.AssertNotCalled(t, "UpdateSubscriptionCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteWithPunch_ConfirmedOverdraftGoesNegative(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	cache := new(CacheMock)

	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{newSubscription(9, 10)}, nil)
	repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", 11, -1).Return(nil)
	repo.On("UpdateBooking", mock.Anything, "bk1", mock.Anything).Return(nil)
	pub.On("Publish", "subscription", mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	svc := newService(repo, pub, cache)
	res, err := svc.CompleteWithPunch(context.Background(), "bk1",
		models.DummyPunch{PunchCount: 2, ConfirmOverdraft: true})

	require.NoError(t, err)
	assert.Equal(t, -1, res.Subscription.Remaining)
	repo.AssertExpectations(t)
}

func TestCompleteWithPunch_NoSubscription(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{}, nil)

	svc := newService(repo, new(PublisherMock), new(CacheMock))
	_, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 1})

	assert.ErrorIs(t, err, services.ErrNoSubscription)
}

func TestCompleteWithPunch_PartialFailure(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{newSubscription(3, 10)}, nil)
	repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", 5, 5).Return(nil)
	repo.On("UpdateBooking", mock.Anything, "bk1", mock.Anything).
		Return(errors.New("store unavailable"))

	svc := newService(repo, new(PublisherMock), new(CacheMock))
	_, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 2})

	// Абонемент уже списан, ошибка сигналит именно о расхождении.
	assert.ErrorIs(t, err, services.ErrPartialReconcile)
	repo.AssertExpectations(t)
}

func TestCompleteWithPunch_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(RepoMock)
	pub := new(PublisherMock)
	cache := new(CacheMock)

	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListEligibleSubscriptions", mock.Anything, "cl1").
		Return([]*models.Subscription{newSubscription(3, 10)}, nil)
	repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", 4, 6).Return(nil)
	repo.On("UpdateBooking", mock.Anything, "bk1", mock.Anything).Return(nil)
	pub.On("Publish", "subscription", mock.Anything).Return(errors.New("broker down"))
	cache.On("Invalidate", mock.Anything).Return(nil)

	svc := newService(repo, pub, cache)
	res, err := svc.CompleteWithPunch(context.Background(), "bk1", models.DummyPunch{PunchCount: 1})

	require.NoError(t, err)
	assert.Equal(t, 6, res.Subscription.Remaining)
}

func TestCompleteWithPayment(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	repo.On("GetBooking", mock.Anything, "bk1").Return(newBooking(), nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("UpdateBooking", mock.Anything, "bk1", mock.MatchedBy(func(fields map[string]any) bool {
		return fields[models.FieldStatus] == string(models.BookingDone) &&
			fields[models.FieldPrice] == float64(120) &&
			fields[models.FieldPaymentMethod] == "cash"
	})).Return(nil)
	cache.On("Invalidate", "schedule:2026-03-10").Return(nil)

	svc := newService(repo, new(PublisherMock), cache)
	res, err := svc.CompleteWithPayment(context.Background(), "bk1",
		models.DummyPayment{Amount: 120, Method: "cash"})

	require.NoError(t, err)
	assert.Equal(t, float64(120), res.Price)
	assert.Equal(t, "cash", res.Method)
	// Абонементы не трогаются при ручной оплате.
	repo.AssertNotCalled(t, "ListEligibleSubscriptions", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}
