package start

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"spinsim/internal/engine"
	"spinsim/internal/lane"
	resp "spinsim/internal/lib/api/response"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
	"spinsim/internal/wheel"
)

type Request struct {
	Label         string         `json:"label"`
	Settings      model.Settings `json:"settings" validate:"required"`
	Lanes         []*lane.Lane   `json:"lanes" validate:"required,min=1"`
	FixedOutcomes string         `json:"fixed_outcomes,omitempty"`
}

type Response struct {
	resp.Response
	BatchID string `json:"batch_id,omitempty"`
}

type SessionSaver interface {
	SaveSession(session *model.BatchSession) (int64, error)
}

// Start launches simulation batches and persists finished sessions.
type Start struct {
	log       *slog.Logger
	validator *validator.Validate
	manager   *engine.Manager
	publisher engine.Publisher
	sessions  SessionSaver
}

func NewStart(
	log *slog.Logger,
	manager *engine.Manager,
	publisher engine.Publisher,
	sessions SessionSaver,
) *Start {
	return &Start{
		log:       log,
		validator: validator.New(),
		manager:   manager,
		publisher: publisher,
		sessions:  sessions,
	}
}

func (s *Start) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.simulation.start.New"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		log.Info("request body decoded", slog.String("label", req.Label))

		if err := s.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		// a malformed sequence or chain aborts here; the run never starts
		for _, l := range req.Lanes {
			if err := l.Normalize(); err != nil {
				log.Error("invalid lane configuration", sl.Err(err))

				render.JSON(w, r, resp.Error(err.Error(), http.StatusBadRequest))

				return
			}
		}

		if req.FixedOutcomes != "" {
			outcomes, err := parseOutcomeList(req.FixedOutcomes)
			if err != nil {
				log.Error("invalid fixed outcomes", sl.Err(err))

				render.JSON(w, r, resp.Error(err.Error(), http.StatusBadRequest))

				return
			}

			req.Settings.FixedOutcomes = outcomes
		}

		id := s.manager.Start(req.Lanes, req.Settings, req.Label, s.publisher)

		log.Info("batch started", sl.String("batch_id", id.String()))

		go s.persistWhenDone(id)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			BatchID:  id.String(),
		})
	}
}

func (s *Start) persistWhenDone(id uuid.UUID) {
	const op = "handlers.simulation.start.persistWhenDone"

	session, err := s.manager.Wait(id)
	if session == nil {
		return
	}

	if err != nil {
		s.log.Error("batch faulted; persisting completed runs", slog.String("op", op), sl.Err(err))
	}

	if s.sessions == nil {
		return
	}

	if _, err = s.sessions.SaveSession(session); err != nil {
		s.log.Error("failed to persist batch session", slog.String("op", op), sl.Err(err))
	}
}

// parseOutcomeList accepts comma- or whitespace-separated outcome tokens.
func parseOutcomeList(text string) ([]int, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var outcomes []int

	for _, token := range tokens {
		value, err := wheel.ParseOutcome(token)
		if err != nil {
			return nil, err
		}

		outcomes = append(outcomes, value)
	}

	return outcomes, nil
}
