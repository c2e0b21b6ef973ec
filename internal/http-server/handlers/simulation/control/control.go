package control

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"spinsim/internal/engine"
	resp "spinsim/internal/lib/api/response"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
)

type Request struct {
	Action  string `json:"action" validate:"required,oneof=pause resume step speed cancel"`
	DelayMS int    `json:"delay_ms,omitempty" validate:"min=0"`
}

type StatusResponse struct {
	resp.Response
	Status string `json:"batch_status,omitempty"`
}

type ResultResponse struct {
	resp.Response
	Done    bool                `json:"done"`
	Session *model.BatchSession `json:"session,omitempty"`
}

// Control routes pause/resume/step/speed/cancel actions to a running batch
// and exposes its status and final result.
type Control struct {
	log       *slog.Logger
	validator *validator.Validate
	manager   *engine.Manager
}

func NewControl(log *slog.Logger, manager *engine.Manager) *Control {
	return &Control{
		log:       log,
		validator: validator.New(),
		manager:   manager,
	}
}

func (c *Control) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.simulation.control.New"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := batchID(w, r, log)
		if !ok {
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := c.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		delay := time.Duration(req.DelayMS) * time.Millisecond

		if err := c.manager.Control(id, engine.ControlAction(req.Action), delay); err != nil {
			if errors.Is(err, engine.ErrUnknownBatch) {
				log.Error("unknown batch", sl.String("batch_id", id.String()))

				render.JSON(w, r, resp.Error("batch not found", http.StatusNotFound))

				return
			}

			log.Error("failed to apply control action", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to apply control action", http.StatusInternalServerError))

			return
		}

		log.Info("control action applied",
			sl.String("batch_id", id.String()),
			sl.String("action", req.Action),
		)

		render.JSON(w, r, resp.OK())
	}
}

func (c *Control) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.simulation.control.Status"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := batchID(w, r, log)
		if !ok {
			return
		}

		status, err := c.manager.Status(id)
		if err != nil {
			log.Error("unknown batch", sl.String("batch_id", id.String()))

			render.JSON(w, r, resp.Error("batch not found", http.StatusNotFound))

			return
		}

		render.JSON(w, r, StatusResponse{
			Response: resp.OK(),
			Status:   string(status),
		})
	}
}

func (c *Control) Result() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.simulation.control.Result"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := batchID(w, r, log)
		if !ok {
			return
		}

		session, done, err := c.manager.Result(id)
		if err != nil && !done {
			log.Error("unknown batch", sl.String("batch_id", id.String()))

			render.JSON(w, r, resp.Error("batch not found", http.StatusNotFound))

			return
		}

		if err != nil {
			log.Error("batch finished with error", sl.Err(err))
		}

		render.JSON(w, r, ResultResponse{
			Response: resp.OK(),
			Done:     done,
			Session:  session,
		})
	}
}

func batchID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "uuid")

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Error("invalid batch id", sl.String("uuid", raw))

		render.JSON(w, r, resp.Error("invalid batch id", http.StatusBadRequest))

		return uuid.Nil, false
	}

	return id, true
}
