// Package restore возвращает отменённую или завершённую запись
// в подтверждённые. Списанные при завершении визиты не возвращаются.
package restore

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

// Handler обрабатывает восстановление записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики расписания.
type Service interface {
	Restore(ctx context.Context, id string) (*models.Booking, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Восстановление записи
// @Description Возвращает запись в confirmed. Списания с абонемента не откатываются.
// @Tags Schedule
// @Produce  json
// @Param id path string true "ID записи"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Router /bookings/{id}/restore [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.restore"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	booking, err := h.service.Restore(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, recordstore.ErrNotFound):
			log.Warn("booking not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
		case errors.Is(err, schedule.ErrInvalidTransition):
			log.Warn("invalid transition", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("booking cannot be restored from its current status"))
		default:
			log.Error("failed to restore booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not restore booking"))
		}
		return
	}

	log.Info("booking restored", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(booking))
}
