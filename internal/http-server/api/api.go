package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"dojohub/entity"
	"dojohub/internal/config"
	"dojohub/internal/http-server/handlers/authhandler"
	"dojohub/internal/http-server/handlers/errors"
	"dojohub/internal/http-server/handlers/gym"
	"dojohub/internal/http-server/handlers/member"
	"dojohub/internal/http-server/handlers/payment"
	"dojohub/internal/http-server/handlers/plan"
	"dojohub/internal/http-server/handlers/reglink"
	"dojohub/internal/http-server/handlers/register"
	"dojohub/internal/http-server/handlers/stripehandler"
	"dojohub/internal/http-server/middleware/allow"
	"dojohub/internal/http-server/middleware/authenticate"
	"dojohub/internal/http-server/middleware/timeout"
	"dojohub/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	authhandler.Core
	reglink.Core
	register.Core
	member.Core
	plan.Core
	payment.Core
	gym.Core
	stripehandler.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := newRouter(log, handler)

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

func newRouter(log *slog.Logger, handler Handler) *chi.Mux {
	// validate is public: 10 calls per 15 minutes per client, 50 global
	validateLimit := []func(http.Handler) http.Handler{
		httprate.LimitByIP(10, 15*time.Minute),
		httprate.Limit(50, 15*time.Minute),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Post("/auth/login", authhandler.Login(log, handler))
		rootApi.With(validateLimit...).
			Get("/registration-links/valid/{token}", reglink.Validate(log, handler))
		rootApi.With(validateLimit...).
			Post("/register/{token}", register.New(log, handler))

		rootApi.Group(func(private chi.Router) {
			private.Use(authenticate.New(log, handler))

			private.Route("/registration-links", func(rl chi.Router) {
				rl.Use(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin))
				rl.Post("/new", reglink.Generate(log, handler))
				rl.Get("/", reglink.List(log, handler))
				rl.Patch("/revoked/{id}", reglink.Revoke(log, handler))
				rl.Patch("/expired/{id}", reglink.Expire(log, handler))
			})

			private.Route("/members", func(mb chi.Router) {
				mb.With(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin, entity.RoleStaff)).
					Get("/", member.List(log, handler))
				mb.With(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin, entity.RoleStaff)).
					Post("/", member.Create(log, handler))
				mb.Get("/{id}", member.Get(log, handler))
				// field-level restrictions are enforced by the access matrix
				mb.Patch("/{id}", member.Update(log, handler))
			})

			private.Route("/plans", func(pl chi.Router) {
				pl.Get("/", plan.List(log, handler))
				pl.Get("/{id}", plan.Get(log, handler))
				pl.With(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin)).
					Post("/", plan.Create(log, handler))
				pl.With(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin)).
					Patch("/{id}", plan.Update(log, handler))
				pl.With(allow.Roles(log, entity.RoleOwner, entity.RoleAdmin)).
					Delete("/{id}", plan.Delete(log, handler))
			})

			private.Route("/payments", func(pm chi.Router) {
				staff := allow.Roles(log, entity.RoleOwner, entity.RoleAdmin, entity.RoleStaff)
				pm.With(staff).Get("/", payment.List(log, handler))
				pm.With(staff).Post("/cash", payment.Cash(log, handler))
				// members start their own checkout
				pm.Post("/checkout", payment.Checkout(log, handler))
			})

			private.Route("/gym", func(g chi.Router) {
				g.Get("/", gym.Get(log, handler))
				g.With(allow.Roles(log, entity.RoleOwner)).
					Patch("/", gym.Update(log, handler))
			})
		})
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/stripe", stripehandler.Event(log, handler))
	})

	return router
}
