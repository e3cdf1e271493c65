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

	"github.com/carwasher/carwash-dashboard/internal/models"
	services "github.com/carwasher/carwash-dashboard/internal/services/client"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListClients(ctx context.Context) ([]*models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *RepoMock) GetClient(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) CreateClient(ctx context.Context, req models.DummyClient) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdateClient(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *RepoMock) SetClientStatus(ctx context.Context, id string, status models.ClientStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *RepoMock) ListBookingsByClient(ctx context.Context, clientID string) ([]*models.Booking, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByClient(ctx context.Context, clientID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestList_FiltersArchived(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListClients", mock.Anything).Return([]*models.Client{
		{ID: "cl1", Status: models.ClientActive},
		{ID: "cl2", Status: models.ClientArchived},
	}, nil)

	svc := services.NewClientService(repo, newNoopLogger())

	active, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "cl1", active[0].ID)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRead_CollectsStats(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	upcoming := time.Now().UTC().AddDate(0, 0, 3).Truncate(24 * time.Hour)
	repo.On("ListBookingsByClient", mock.Anything, "cl1").Return([]*models.Booking{
		{ID: "b1", Date: date(2026, 1, 5), Status: models.BookingDone, Price: 100, Cars: 1},
		{ID: "b2", Date: date(2026, 2, 5), Status: models.BookingDone, Price: 60, Cars: 3},
		{ID: "b3", Date: date(2026, 3, 5), Status: models.BookingCancelled, Price: 60},
		{ID: "b4", Date: upcoming, Status: models.BookingConfirmed},
	}, nil)
	repo.On("ListSubscriptionsByClient", mock.Anything, "cl1").Return([]*models.Subscription{
		{ID: "sub1"},
	}, nil)

	svc := services.NewClientService(repo, newNoopLogger())
	details, err := svc.Read(context.Background(), "cl1")

	require.NoError(t, err)
	assert.False(t, details.Partial)
	assert.Equal(t, 2, details.Stats.TotalVisits)
	assert.Equal(t, float64(160), details.Stats.TotalSpent)
	assert.Equal(t, 2.0, details.Stats.AverageCars)
	require.NotNil(t, details.Stats.LastVisit)
	assert.Equal(t, date(2026, 2, 5), *details.Stats.LastVisit)
	require.NotNil(t, details.Stats.NextVisit)
	assert.Equal(t, upcoming, *details.Stats.NextVisit)
	require.Len(t, details.Stats.Monthly, 2)
	assert.Equal(t, services.MonthlyStat{Month: "2026-02", Visits: 1, Spent: 60}, details.Stats.Monthly[0])
	assert.Equal(t, services.MonthlyStat{Month: "2026-01", Visits: 1, Spent: 100}, details.Stats.Monthly[1])
	assert.Len(t, details.Subscriptions, 1)
}

func TestRead_PartialOnBookingsFailure(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetClient", mock.Anything, "cl1").Return(&models.Client{ID: "cl1"}, nil)
	repo.On("ListBookingsByClient", mock.Anything, "cl1").Return(nil, assert.AnError)
	repo.On("ListSubscriptionsByClient", mock.Anything, "cl1").Return([]*models.Subscription{}, nil)

	svc := services.NewClientService(repo, newNoopLogger())
	details, err := svc.Read(context.Background(), "cl1")

	// Профиль есть — карточка возвращается, но помечена частичной.
	require.NoError(t, err)
	assert.True(t, details.Partial)
	assert.Nil(t, details.Bookings)
}

func TestRead_ProfileFailureFailsWhole(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetClient", mock.Anything, "cl1").Return(nil, assert.AnError)

	svc := services.NewClientService(repo, newNoopLogger())
	_, err := svc.Read(context.Background(), "cl1")

	assert.Error(t, err)
}

func TestArchiveRestore(t *testing.T) {
	repo := new(RepoMock)
	repo.On("SetClientStatus", mock.Anything, "cl1", models.ClientArchived).Return(nil)
	repo.On("SetClientStatus", mock.Anything, "cl1", models.ClientActive).Return(nil)

	svc := services.NewClientService(repo, newNoopLogger())
	require.NoError(t, svc.Archive(context.Background(), "cl1"))
	require.NoError(t, svc.Restore(context.Background(), "cl1"))
	repo.AssertExpectations(t)
}
