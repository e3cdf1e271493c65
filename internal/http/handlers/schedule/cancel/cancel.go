// Package cancel отменяет запись. Для повторяющегося шаблона с датой
// в запросе отменяется только экземпляр на эту дату.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/carwasher/carwash-dashboard/internal/http/response"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	schedule "github.com/carwasher/carwash-dashboard/internal/services/schedule"
)

// Handler обрабатывает отмену записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики расписания.
type Service interface {
	Cancel(ctx context.Context, id, date string) (*models.Booking, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отмена записи
// @Description Отменяет запись. Для повторяющегося шаблона параметр date отменяет один экземпляр.
// @Tags Schedule
// @Produce  json
// @Param id path string true "ID записи"
// @Param date query string false "Дата экземпляра в формате 2006-01-02"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Router /bookings/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")

	booking, err := h.service.Cancel(r.Context(), id, date)
	if err != nil {
		switch {
		case errors.Is(err, recordstore.ErrNotFound):
			log.Warn("booking not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
		case errors.Is(err, schedule.ErrInvalidTransition):
			log.Warn("invalid transition", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("booking cannot be cancelled in its current status"))
		default:
			log.Error("failed to cancel booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel booking"))
		}
		return
	}

	log.Info("booking cancelled", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(booking))
}
