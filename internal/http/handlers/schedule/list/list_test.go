package list_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/list"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Day(ctx context.Context, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestListHandler(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMock  func(s *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "расписание на день",
			url:  "/schedule?date=2026-03-10",
			setupMock: func(s *ServiceMock) {
				s.On("Day", mock.Anything, "2026-03-10").Return([]*models.Booking{
					{ID: "bk1", Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Time: "10:00"},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"date":"2026-03-10"`,
		},
		{
			name:       "без даты",
			url:        "/schedule",
			setupMock:  func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "date is required",
		},
		{
			name: "некорректная дата",
			url:  "/schedule?date=10.03.2026",
			setupMock: func(s *ServiceMock) {
				s.On("Day", mock.Anything, "10.03.2026").Return(nil, assert.AnError)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMock(service)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			list.New(newNoopLogger(), service).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			service.AssertExpectations(t)
		})
	}
}
