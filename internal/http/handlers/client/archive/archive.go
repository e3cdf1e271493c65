// Package archive скрывает клиента из активных списков. Удаления нет:
// история записей и абонементы сохраняются.
package archive

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
)

// Handler обрабатывает архивирование клиента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики клиентов.
type Service interface {
	Archive(ctx context.Context, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Архивирование клиента
// @Tags Client
// @Produce  json
// @Param id path string true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Router /clients/{id}/archive [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.archive"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	if err := h.service.Archive(r.Context(), id); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			log.Warn("client not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("client not found"))
			return
		}
		log.Error("failed to archive client", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not archive client"))
		return
	}

	log.Info("client archived", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}
