// Package punch завершает запись списанием визитов с абонемента.
// Списание сверх остатка требует явного подтверждения перерасхода.
package punch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/carwasher/carwash-dashboard/internal/http/response"
	"github.com/carwasher/carwash-dashboard/internal/lib/sl"
	"github.com/carwasher/carwash-dashboard/internal/models"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	reconcile "github.com/carwasher/carwash-dashboard/internal/services/reconcile"
)

// Handler обрабатывает завершение записи списанием.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс согласования завершения.
type Service interface {
	CompleteWithPunch(ctx context.Context, bookingID string, req models.DummyPunch) (*reconcile.Result, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Завершение записи списанием с абонемента
// @Tags Booking
// @Accept  json
// @Produce  json
// @Param id path string true "ID записи"
// @Param request body models.DummyPunch true "Количество списаний и подтверждение перерасхода"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Нужно подтверждение перерасхода или нет абонемента"
// @Failure 422 {object} response.ErrorResponse "Запись нельзя завершить"
// @Router /bookings/{id}/punch [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.punch"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.DummyPunch
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.CompleteWithPunch(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, recordstore.ErrNotFound):
			log.Warn("booking not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
		case errors.Is(err, reconcile.ErrOverdraftConfirm), errors.Is(err, reconcile.ErrNoSubscription):
			log.Warn("completion rejected", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, reconcile.ErrBlockerBooking), errors.Is(err, reconcile.ErrAlreadyCompleted):
			log.Warn("booking not completable", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, reconcile.ErrPartialReconcile):
			// Абонемент уже списан: оператор должен увидеть расхождение.
			log.Error("partial reconcile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(reconcile.ErrPartialReconcile.Error()))
		default:
			log.Error("failed to complete booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not complete booking"))
		}
		return
	}

	log.Info("booking completed", slog.String("id", id), slog.Float64("price", result.Price))
	render.JSON(w, r, response.OKWithData(result))
}
