package payment

import (
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"
	"dojohub/lib/validate"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ListPayments(gym string) ([]*entity.Payment, error)
	RecordCashPayment(gym, memberId, planId string) (*entity.Payment, error)
	StartCheckout(gym, memberId, planId string) (*entity.Payment, error)
}

type Request struct {
	Member string `json:"member" validate:"required"`
	Plan   string `json:"plan" validate:"required"`
}

func (p *Request) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		all, err := handler.ListPayments(actor.Gym)
		if err != nil {
			logger.Error("list payments", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Could not list payments"))
			return
		}

		render.JSON(w, r, response.Ok(all))
	}
}

// Cash records an on-the-spot payment, settled immediately.
func Cash(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		var req Request
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		pm, err := handler.RecordCashPayment(actor.Gym, req.Member, req.Plan)
		if err != nil {
			logger.Error("record cash payment", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Could not record payment"))
			return
		}
		logger.With(
			slog.Int64("amount", pm.Amount),
		).Debug("cash payment recorded")

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(pm))
	}
}

// Checkout opens a Stripe Checkout Session; the response carries the
// hosted payment page URL.
func Checkout(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logFor(log, r)
		actor := cont.GetUser(r.Context())

		var req Request
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		pm, err := handler.StartCheckout(actor.Gym, req.Member, req.Plan)
		if err != nil {
			logger.Error("start checkout", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Could not start checkout"))
			return
		}
		logger.With(
			slog.String("session_id", pm.SessionId),
		).Debug("checkout link created")

		render.JSON(w, r, response.Ok(pm))
	}
}

func logFor(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.payment"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
