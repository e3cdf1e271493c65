// Package list возвращает расписание на день: сохранённые записи плюс
// раскрытые экземпляры повторяющихся шаблонов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/carwasher/carwash-dashboard/internal/http/response"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// Handler обрабатывает запрос расписания на день.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики расписания.
type Service interface {
	Day(ctx context.Context, date string) ([]*models.Booking, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Расписание на день
// @Description Возвращает записи на дату, включая экземпляры повторяющихся шаблонов.
// @Tags Schedule
// @Produce  json
// @Param date query string true "Дата в формате 2006-01-02"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Router /schedule [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	date := r.URL.Query().Get("date")
	if date == "" {
		log.Error("missing date query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter date is required"))
		return
	}

	bookings, err := h.service.Day(r.Context(), date)
	if err != nil {
		log.Error("failed to list schedule", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not load schedule"))
		return
	}

	log.Info("schedule listed", slog.String("date", date), slog.Int("count", len(bookings)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"date":     date,
		"bookings": bookings,
	}))
}
