package plan

import (
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Core interface {
	CreatePlan(gym string, plan *entity.Plan) (*entity.Plan, error)
	ListPlans(gym string) ([]*entity.Plan, error)
	GetPlan(gym, id string) (*entity.Plan, error)
	UpdatePlan(gym string, plan *entity.Plan) (*entity.Plan, error)
	DeletePlan(gym, id string) error
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		var p entity.Plan
		if err := render.Bind(r, &p); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		created, err := handler.CreatePlan(actor.Gym, &p)
		if err != nil {
			logger.Error("create plan", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not create plan"))
			return
		}

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(created))
	}
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		all, err := handler.ListPlans(actor.Gym)
		if err != nil {
			logger.Error("list plans", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not list plans"))
			return
		}

		render.JSON(w, r, response.Ok(all))
	}
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		p, err := handler.GetPlan(actor.Gym, id)
		if err != nil {
			logger.Debug("get plan", sl.Err(err))
			render.Status(r, 404)
			render.JSON(w, r, response.Error("Plan not found"))
			return
		}

		render.JSON(w, r, response.Ok(p))
	}
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		var p entity.Plan
		if err := render.Bind(r, &p); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid plan id"))
			return
		}
		p.Id = oid

		updated, err := handler.UpdatePlan(actor.Gym, &p)
		if err != nil {
			logger.Error("update plan", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not update plan"))
			return
		}

		render.JSON(w, r, response.Ok(updated))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		if err := handler.DeletePlan(actor.Gym, id); err != nil {
			logger.Error("delete plan", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not delete plan"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func logFor(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.plan"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
