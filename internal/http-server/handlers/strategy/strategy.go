package strategy

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	resp "spinsim/internal/lib/api/response"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/repository"
)

type SaveRequest struct {
	Name   string                    `json:"name" validate:"required,min=1,max=128"`
	Bundle repository.StrategyBundle `json:"bundle" validate:"required"`
}

type GetResponse struct {
	resp.Response
	Bundle *repository.StrategyBundle `json:"bundle,omitempty"`
}

type ListResponse struct {
	resp.Response
	Names []string `json:"names"`
}

type BundleStore interface {
	SaveStrategy(name string, bundle repository.StrategyBundle) error
	GetStrategyByName(name string) (*repository.StrategyBundle, error)
	ListStrategies() ([]string, error)
	DeleteStrategy(name string) error
}

// Strategy stores and serves named lane/settings bundles so a tuned
// configuration can be reloaded and rerun later.
type Strategy struct {
	log       *slog.Logger
	validator *validator.Validate
	store     BundleStore
}

func NewStrategy(log *slog.Logger, store BundleStore) *Strategy {
	return &Strategy{
		log:       log,
		validator: validator.New(),
		store:     store,
	}
}

func (s *Strategy) Save() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.strategy.Save"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SaveRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := s.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		// reject unusable bundles at save time, not at run time
		for _, l := range req.Bundle.Lanes {
			if err := l.Normalize(); err != nil {
				log.Error("invalid lane in bundle", sl.Err(err))

				render.JSON(w, r, resp.Error(err.Error(), http.StatusBadRequest))

				return
			}
		}

		if err := s.store.SaveStrategy(req.Name, req.Bundle); err != nil {
			log.Error("failed to save strategy", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to save strategy", http.StatusInternalServerError))

			return
		}

		log.Info("strategy saved", sl.String("name", req.Name))

		render.JSON(w, r, resp.OK())
	}
}

func (s *Strategy) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.strategy.Get"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		name := chi.URLParam(r, "name")

		bundle, err := s.store.GetStrategyByName(name)
		if err != nil {
			log.Error("failed to get strategy", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to get strategy", http.StatusInternalServerError))

			return
		}

		if bundle == nil {
			render.JSON(w, r, resp.Error("strategy not found", http.StatusNotFound))

			return
		}

		render.JSON(w, r, GetResponse{
			Response: resp.OK(),
			Bundle:   bundle,
		})
	}
}

func (s *Strategy) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.strategy.List"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		names, err := s.store.ListStrategies()
		if err != nil {
			log.Error("failed to list strategies", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to list strategies", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Names:    names,
		})
	}
}

func (s *Strategy) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.strategy.Delete"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		name := chi.URLParam(r, "name")

		if err := s.store.DeleteStrategy(name); err != nil {
			log.Error("failed to delete strategy", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to delete strategy", http.StatusInternalServerError))

			return
		}

		log.Info("strategy deleted", sl.String("name", name))

		render.JSON(w, r, resp.OK())
	}
}
