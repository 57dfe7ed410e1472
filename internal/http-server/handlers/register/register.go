// Package register is the public onboarding endpoint: a valid public
// token plus name, email and password becomes a member account in the
// link's gym.
package register

import (
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/impl/links"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"
	"dojohub/lib/validate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ValidateLink(publicToken string) *links.Validation
	RegisterMember(gym, name, email, password string) (*entity.User, error)
}

type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *Request) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

func New(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.register"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		token := chi.URLParam(r, "token")

		var req Request
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		// validating the link consumes one use; there is no peek
		result := handler.ValidateLink(token)
		if result.Error != "" {
			logger.With(
				slog.String("reason", result.Error),
			).Debug("registration rejected")
			render.Status(r, 400)
			render.JSON(w, r, response.Error(result.Error))
			return
		}

		user, err := handler.RegisterMember(result.Link.Gym, req.Name, req.Email, req.Password)
		if err != nil {
			logger.Error("register member", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not create account"))
			return
		}
		logger.With(
			sl.Gym(user.Gym),
			slog.String("user_id", user.Id.Hex()),
		).Info("member registered")

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(user))
	}
}
