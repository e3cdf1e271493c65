// Package proposal отдаёт оператору предрасчёт завершения записи:
// подходящий абонемент, предлагаемое количество списаний и резервную
// цену на случай оплаты без абонемента.
package proposal

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
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	reconcile "github.com/carwasher/carwash-dashboard/internal/services/reconcile"
)

// Handler обрабатывает запрос предрасчёта завершения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс согласования завершения.
type Service interface {
	Propose(ctx context.Context, bookingID string) (*reconcile.Proposal, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Предрасчёт завершения записи
// @Tags Booking
// @Produce  json
// @Param id path string true "ID записи"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Запись нельзя завершить"
// @Router /bookings/{id}/proposal [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.proposal"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	proposal, err := h.service.Propose(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, recordstore.ErrNotFound):
			log.Warn("booking not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
		case errors.Is(err, reconcile.ErrBlockerBooking), errors.Is(err, reconcile.ErrAlreadyCompleted):
			log.Warn("booking not completable", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to build proposal", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not build completion proposal"))
		}
		return
	}

	log.Info("proposal built", slog.String("id", id), slog.Int("punch", proposal.ProposedPunch))
	render.JSON(w, r, response.OKWithData(proposal))
}
