package history

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	resp "spinsim/internal/lib/api/response"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
	"spinsim/internal/repository"
)

type ListResponse struct {
	resp.Response
	Sessions []model.SessionSummary `json:"sessions"`
}

type GetResponse struct {
	resp.Response
	Session *model.BatchSession `json:"session,omitempty"`
}

// History serves persisted batch sessions. Full sessions carry every step of
// every run, so reads go through a short-lived cache.
type History struct {
	log      *slog.Logger
	sessions repository.SessionStore
	cache    *cache.Cache
}

func NewHistory(log *slog.Logger, sessions repository.SessionStore, c *cache.Cache) *History {
	return &History{
		log:      log,
		sessions: sessions,
		cache:    c,
	}
}

func (h *History) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.batch.history.List"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				render.JSON(w, r, resp.Error("invalid limit", http.StatusBadRequest))

				return
			}

			limit = parsed
		}

		summaries, err := h.sessions.ListSessions(limit)
		if err != nil {
			log.Error("failed to list sessions", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to list sessions", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Sessions: summaries,
		})
	}
}

func (h *History) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.batch.history.Get"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := sessionID(w, r, log)
		if !ok {
			return
		}

		if cached, found := h.cache.Get(id.String()); found {
			render.JSON(w, r, GetResponse{
				Response: resp.OK(),
				Session:  cached.(*model.BatchSession),
			})

			return
		}

		session, err := h.sessions.GetSessionByUUID(id)
		if err != nil {
			log.Error("failed to get session", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to get session", http.StatusInternalServerError))

			return
		}

		if session == nil {
			render.JSON(w, r, resp.Error("session not found", http.StatusNotFound))

			return
		}

		h.cache.Set(id.String(), session, cache.DefaultExpiration)

		render.JSON(w, r, GetResponse{
			Response: resp.OK(),
			Session:  session,
		})
	}
}

func (h *History) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.batch.history.Delete"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := sessionID(w, r, log)
		if !ok {
			return
		}

		if err := h.sessions.DeleteSession(id); err != nil {
			log.Error("failed to delete session", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to delete session", http.StatusInternalServerError))

			return
		}

		h.cache.Delete(id.String())

		log.Info("session deleted", sl.String("session_id", id.String()))

		render.JSON(w, r, resp.OK())
	}
}

func sessionID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "uuid")

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Error("invalid session id", sl.String("uuid", raw))

		render.JSON(w, r, resp.Error("invalid session id", http.StatusBadRequest))

		return uuid.Nil, false
	}

	return id, true
}
