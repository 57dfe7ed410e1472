package authhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/impl/auth"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"
	"dojohub/lib/validate"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Login(email, password string) (string, *entity.User, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	return validate.Struct(l)
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func Login(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.auth"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req LoginRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger = logger.With(slog.String("email", req.Email))

		token, user, err := handler.Login(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrBadCredentials) {
				logger.Debug("login rejected")
				render.Status(r, 401)
				render.JSON(w, r, response.Error("Invalid email or password"))
				return
			}
			logger.Error("login", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Login failed"))
			return
		}
		logger.Info("login successful")

		render.JSON(w, r, response.Ok(LoginResponse{Token: token, User: user}))
	}
}
