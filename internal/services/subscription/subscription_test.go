package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carwasher/carwash-dashboard/internal/lib/balance"
	"github.com/carwasher/carwash-dashboard/internal/models"
	services "github.com/carwasher/carwash-dashboard/internal/services/subscription"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByClient(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, req models.DummySubscription) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *RepoMock) UpdateSubscriptionCounts(ctx context.Context, id string, used, remaining int) error {
	args := m.Called(ctx, id, used, remaining)
	return args.Error(0)
}

func (m *RepoMock) ListBookingsByClient(ctx context.Context, clientID string) ([]*models.Booking, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *RepoMock) GetClient(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRead_FiltersUsageHistory(t *testing.T) {
	repo := new(RepoMock)
	sub := &models.Subscription{
		ID: "sub1", ClientID: "cl1", Total: 10, Used: 8, Remaining: 2,
		StartDate: date(2026, 1, 1), Status: models.SubscriptionActive,
	}
	repo.On("GetSubscription", mock.Anything, "sub1").Return(sub, nil)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1", FullName: "Avi"}, nil)
	repo.On("ListBookingsByClient", mock.Anything, "cl1").Return([]*models.Booking{
		// Списание с абонемента — попадает в историю.
		{ID: "b1", Date: date(2026, 2, 1), Status: models.BookingDone, PaymentMethod: models.PaymentMethodSubscription},
		// Оплачено наличными — не списание.
		{ID: "b2", Date: date(2026, 2, 8), Status: models.BookingDone, PaymentMethod: "cash"},
		// Ещё не завершено.
		{ID: "b3", Date: date(2026, 2, 15), Status: models.BookingConfirmed, PaymentMethod: models.PaymentMethodSubscription},
		// Раньше начала абонемента.
		{ID: "b4", Date: date(2025, 12, 20), Status: models.BookingDone, PaymentMethod: models.PaymentMethodSubscription},
	}, nil)

	svc := services.NewSubscriptionService(repo, newNoopLogger())
	details, err := svc.Read(context.Background(), "sub1")

	require.NoError(t, err)
	require.Len(t, details.Usage, 1)
	assert.Equal(t, "b1", details.Usage[0].ID)
	assert.Equal(t, float64(80), details.Progress)
	assert.Equal(t, balance.TierWarning, details.Tier)
	assert.Equal(t, "Avi", details.Client.FullName)
}

func TestCreate_UnknownClient(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetClient", mock.Anything, "missing").Return(nil, assert.AnError)

	svc := services.NewSubscriptionService(repo, newNoopLogger())
	_, err := svc.Create(context.Background(), models.DummySubscription{ClientID: "missing", Total: 10})

	assert.Error(t, err)
	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestUpdate_TotalChangeRecomputesRemaining(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetSubscription", mock.Anything, "sub1").
		Return(&models.Subscription{ID: "sub1", Total: 10, Used: 4, Remaining: 6}, nil)
	repo.On("UpdateSubscription", mock.Anything, "sub1", map[string]any{
		models.FieldTotalWashes: 15,
	}).Return(nil)
	repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", 4, 11).Return(nil)

	total := 15
	svc := services.NewSubscriptionService(repo, newNoopLogger())
	sub, err := svc.Update(context.Background(), "sub1", models.DummySubscriptionUpdate{Total: &total})

	require.NoError(t, err)
	assert.Equal(t, 15, sub.Total)
	assert.Equal(t, 11, sub.Remaining)
	repo.AssertExpectations(t)
}

func TestUpdate_StatusOnly(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetSubscription", mock.Anything, "sub1").
		Return(&models.Subscription{ID: "sub1", Total: 10, Used: 4, Remaining: 6}, nil)
	repo.On("UpdateSubscription", mock.Anything, "sub1", map[string]any{
		models.FieldStatus: "suspended",
	}).Return(nil)

	svc := services.NewSubscriptionService(repo, newNoopLogger())
	sub, err := svc.Update(context.Background(), "sub1", models.DummySubscriptionUpdate{Status: "suspended"})

	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionSuspended, sub.Status)
	// Счётчики не пересчитываются без смены Total.
	repo.AssertNotCalled(t, "UpdateSubscriptionCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name     string
		req      models.DummyAdjust
		wantUsed int
		wantErr  error
	}{
		{
			name:     "обычная корректировка",
			req:      models.DummyAdjust{NewRemaining: 3},
			wantUsed: 7,
		},
		{
			name:    "минус без подтверждения",
			req:     models.DummyAdjust{NewRemaining: -2},
			wantErr: services.ErrOverdraftConfirm,
		},
		{
			name:     "минус с подтверждением",
			req:      models.DummyAdjust{NewRemaining: -2, ConfirmOverdraft: true},
			wantUsed: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetSubscription", mock.Anything, "sub1").
				Return(&models.Subscription{ID: "sub1", Total: 10, Used: 5, Remaining: 5}, nil)
			if tt.wantErr == nil {
				repo.On("UpdateSubscriptionCounts", mock.Anything, "sub1", tt.wantUsed, tt.req.NewRemaining).Return(nil)
			}

			svc := services.NewSubscriptionService(repo, newNoopLogger())
			sub, err := svc.Adjust(context.Background(), "sub1", tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsed, sub.Used)
			assert.Equal(t, tt.req.NewRemaining, sub.Remaining)
			repo.AssertExpectations(t)
		})
	}
}
