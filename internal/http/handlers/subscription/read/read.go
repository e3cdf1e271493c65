// Package read отдаёт абонемент с прогрессом использования и историей списаний.
package read

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
	subscription "github.com/carwasher/carwash-dashboard/internal/services/subscription"
)

// Handler обрабатывает запрос абонемента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики абонементов.
type Service interface {
	Read(ctx context.Context, id string) (*subscription.Details, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Абонемент с историей списаний
// @Tags Subscription
// @Produce  json
// @Param id path string true "ID абонемента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Router /subscriptions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	details, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			log.Warn("subscription not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load subscription"))
		return
	}

	log.Info("subscription read", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(details))
}
