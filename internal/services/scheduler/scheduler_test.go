package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carwasher/carwash-dashboard/internal/models"
	services "github.com/carwasher/carwash-dashboard/internal/services/scheduler"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *RepoMock) ListRecurringTemplates(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRunOnce_PublishesRemindersForTomorrow(t *testing.T) {
	repo := new(RepoMock)
	// Сегодня 2026-03-09, напоминания — на 2026-03-10.
	repo.On("ListBookingsByDate", mock.Anything, "2026-03-10").Return([]*models.Booking{
		{ID: "b1", Date: date(2026, 3, 10), Time: "10:00", ClientID: "cl1", Status: models.BookingConfirmed, Type: models.BookingService},
		{ID: "b2", Date: date(2026, 3, 10), Time: "12:00", ClientID: "cl2", Status: models.BookingCancelled, Type: models.BookingService},
		{ID: "b3", Date: date(2026, 3, 10), Time: "13:00", Status: models.BookingConfirmed, Type: models.BookingBlocker},
	}, nil)
	repo.On("ListRecurringTemplates", mock.Anything).Return([]*models.Booking{
		{ID: "t1", Date: date(2026, 3, 3), Time: "09:00", ClientID: "cl3", Frequency: models.FreqWeekly, Status: models.BookingConfirmed, Type: models.BookingService},
	}, nil)

	pub := new(PublisherMock)
	var jobs []models.ReminderNotification
	pub.On("Publish", "reminder", mock.Anything).
		Run(func(args mock.Arguments) {
			jobs = append(jobs, args.Get(1).(models.ReminderNotification))
		}).Return(nil)

	svc := services.NewSchedulerService(repo, pub, newNoopLogger())
	svc.RunOnce(context.Background(), date(2026, 3, 9))

	// Отменённая запись и блокировка напоминаний не получают.
	assert.Len(t, jobs, 2)
	clients := []string{jobs[0].ClientID, jobs[1].ClientID}
	assert.ElementsMatch(t, []string{"cl1", "cl3"}, clients)
	for _, job := range jobs {
		assert.Equal(t, "2026-03-10", job.Date)
		assert.NotEmpty(t, job.JobID)
	}
}

func TestRunOnce_RepositoryFailureDoesNotPublish(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListBookingsByDate", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	pub := new(PublisherMock)
	svc := services.NewSchedulerService(repo, pub, newNoopLogger())
	svc.RunOnce(context.Background(), date(2026, 3, 9))

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
