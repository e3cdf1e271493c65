// Package read отдаёт карточку клиента: профиль, записи, абонементы
// и сводку по визитам. Карточка может быть частичной, если одна из
// выборок хранилища недоступна.
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
	client "github.com/carwasher/carwash-dashboard/internal/services/client"
)

// Handler обрабатывает запрос карточки клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики клиентов.
type Service interface {
	Read(ctx context.Context, id string) (*client.Details, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Карточка клиента
// @Tags Client
// @Produce  json
// @Param id path string true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Router /clients/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	details, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			log.Warn("client not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("client not found"))
			return
		}
		log.Error("failed to read client", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load client"))
		return
	}

	log.Info("client read", slog.String("id", id), slog.Bool("partial", details.Partial))
	render.JSON(w, r, response.OKWithData(details))
}
