package member

import (
	"errors"
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/impl/members"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"
	"dojohub/lib/validate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ListMembers(gym string) ([]*entity.User, error)
	GetMember(actor *entity.User, id string) (*entity.User, error)
	CreateMember(actor *entity.User, user *entity.User, password string) (*entity.User, error)
	UpdateMember(actor *entity.User, id string, patch map[string]interface{}) (*entity.User, error)
}

type CreateRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone,omitempty"`
	Role     entity.Role `json:"role" validate:"required,oneof=owner admin staff member"`
	Rank     string      `json:"rank,omitempty"`
	Password string      `json:"password" validate:"required,min=8"`
}

func (c *CreateRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		users, err := handler.ListMembers(actor.Gym)
		if err != nil {
			logger.Error("list members", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not list members"))
			return
		}

		render.JSON(w, r, response.Ok(users))
	}
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		user, err := handler.GetMember(actor, id)
		if err != nil {
			if errors.Is(err, members.ErrWrongGym) {
				render.Status(r, 404)
				render.JSON(w, r, response.Error("Member not found"))
				return
			}
			logger.Error("get member", sl.Err(err))
			render.Status(r, 404)
			render.JSON(w, r, response.Error("Member not found"))
			return
		}

		render.JSON(w, r, response.Ok(user))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		var req CreateRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		user := &entity.User{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
			Role:  req.Role,
			Rank:  req.Rank,
		}
		created, err := handler.CreateMember(actor, user, req.Password)
		if err != nil {
			if errors.Is(err, members.ErrForbidden) {
				render.Status(r, 403)
				render.JSON(w, r, response.Error("Access denied"))
				return
			}
			logger.Error("create member", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not create member"))
			return
		}

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(created))
	}
}

// Update applies a partial update; fields outside the actor's editable
// set are dropped before they reach storage, and a patch with nothing
// left is answered with a 403.
func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())
		id := chi.URLParam(r, "id")

		var patch map[string]interface{}
		if err := render.DecodeJSON(r.Body, &patch); err != nil {
			logger.Error("decode patch", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		user, err := handler.UpdateMember(actor, id, patch)
		if err != nil {
			switch {
			case errors.Is(err, members.ErrForbidden):
				render.Status(r, 403)
				render.JSON(w, r, response.Error("Access denied"))
			case errors.Is(err, members.ErrWrongGym):
				render.Status(r, 404)
				render.JSON(w, r, response.Error("Member not found"))
			default:
				logger.Error("update member", sl.Err(err))
				render.Status(r, 500)
				render.JSON(w, r, response.Error("Could not update member"))
			}
			return
		}

		render.JSON(w, r, response.Ok(user))
	}
}

func logFor(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.member"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
