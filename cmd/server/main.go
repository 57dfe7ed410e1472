package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"dojohub/impl/auth"
	"dojohub/impl/core"
	"dojohub/impl/links"
	"dojohub/impl/members"
	"dojohub/impl/payments"
	"dojohub/impl/plans"
	"dojohub/internal/cleanup"
	"dojohub/internal/config"
	"dojohub/internal/database"
	"dojohub/internal/http-server/api"
	"dojohub/internal/stripeclient"
	"dojohub/lib/logger"
	"dojohub/lib/sl"
)

const logFileName = "dojohub.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	if conf.Telegram.Enabled {
		tg, err := logger.NewTelegramHandler(log.Handler(), conf.Telegram.ApiKey, conf.Telegram.ChatId, slog.LevelError)
		if err != nil {
			log.Error("telegram alerts disabled", sl.Err(err))
		} else {
			log = slog.New(tg)
		}
	}
	log.Info("starting dojohub", slog.String("config", *configPath), slog.String("env", conf.Env))

	db := database.NewMongoClient(conf)

	stripeClient := stripeclient.New(conf, log)

	authService := auth.New(db, conf.Auth.JWTSecret, conf.Auth.TokenTTL)
	linkService := links.New(db, conf.Links.PublicURL, log)
	memberService := members.New(db, log)
	planService := plans.New(db, log)
	paymentService := payments.New(db, stripeClient, log)
	stripeClient.SetPayments(paymentService)

	handler := core.New(log)
	handler.SetAuthService(authService)
	handler.SetLinkService(linkService)
	handler.SetMemberService(memberService)
	handler.SetPlanService(planService)
	handler.SetPaymentService(paymentService)
	handler.SetStripe(stripeClient)
	handler.SetGymStore(db)

	sweeper, err := cleanup.Start(paymentService, log)
	if err != nil {
		log.Error("failed to schedule payment sweep", sl.Err(err))
		os.Exit(1)
	}
	defer sweeper.Stop()

	if err = api.New(conf, log, handler); err != nil {
		log.Error("api server stopped", sl.Err(err))
		os.Exit(1)
	}
}
