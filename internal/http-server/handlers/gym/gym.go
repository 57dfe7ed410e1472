package gym

import (
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	GetGym(id string) (*entity.Gym, error)
	SaveGym(gym *entity.Gym) error
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		g, err := handler.GetGym(actor.Gym)
		if err != nil {
			logger.Error("get gym", sl.Err(err))
			render.Status(r, 404)
			render.JSON(w, r, response.Error("Gym not found"))
			return
		}

		render.JSON(w, r, response.Ok(g))
	}
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		var g entity.Gym
		if err := render.Bind(r, &g); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		g.Id = actor.Gym

		if err := handler.SaveGym(&g); err != nil {
			logger.Error("save gym", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not update gym"))
			return
		}

		render.JSON(w, r, response.Ok(g))
	}
}

func logFor(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.gym"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
