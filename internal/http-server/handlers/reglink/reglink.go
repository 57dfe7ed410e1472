package reglink

import (
	"errors"
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/impl/links"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	GenerateLink(actor *entity.User, gym string) (*links.GeneratedLink, error)
	ListLinks(gym string) ([]*entity.RegistrationLink, error)
	ValidateLink(publicToken string) *links.Validation
	RevokeLink(id string, actor *entity.User) error
	ExpireLink(id string) error
}

// Generate creates a fresh link for the caller's gym.
func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		link, err := handler.GenerateLink(actor, actor.Gym)
		if err != nil {
			logger.Error("generate link", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not create registration link"))
			return
		}
		logger.Debug("registration link generated")

		render.JSON(w, r, response.Ok(link))
	}
}

// List returns all links of the caller's gym, after the lazy expire
// sweep.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		all, err := handler.ListLinks(actor.Gym)
		if err != nil {
			logger.Error("list links", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not list registration links"))
			return
		}

		render.JSON(w, r, response.Ok(all))
	}
}

// Validate is the public, rate-limited endpoint. Note that a successful
// call consumes one use of the link.
func Validate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		token := chi.URLParam(r, "token")

		result := handler.ValidateLink(token)
		if result.Error != "" {
			logger.With(
				slog.String("reason", result.Error),
			).Debug("link validation failed")
			// persistence faults are not the caller's fault
			if result.Error == links.MsgInternal {
				render.Status(r, 500)
			} else {
				render.Status(r, 400)
			}
			render.JSON(w, r, response.Error(result.Error))
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}

// Revoke terminates a link. Exhausted links are rejected with a
// caller-visible message.
func Revoke(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		if err := handler.RevokeLink(id, actor); err != nil {
			if errors.Is(err, links.ErrExhaustedRevoke) {
				render.Status(r, 400)
				render.JSON(w, r, response.Error(err.Error()))
				return
			}
			logger.Error("revoke link", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not revoke registration link"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// Expire forces a link to EXPIRED regardless of its current state.
func Expire(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		id := chi.URLParam(r, "id")

		if err := handler.ExpireLink(id); err != nil {
			logger.Error("expire link", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not expire registration link"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func logFor(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.reglink"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
