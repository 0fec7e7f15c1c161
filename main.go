// Package main Urban Drive booking API.
//
// @title           Urban Drive Booking API
// @version         1.0
// @description     Vehicle rental booking core (availability, admission, loyalty ledger).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"urbandrive/app/echoServer"
	authctrl "urbandrive/app/echoServer/controller/auth"
	bookingctrl "urbandrive/app/echoServer/controller/booking"
	loyaltyctrl "urbandrive/app/echoServer/controller/loyalty"
	"urbandrive/app/echoServer/validation"
	"urbandrive/config"
	"urbandrive/queue"
	bookingrepo "urbandrive/repository/booking"
	loyaltyrepo "urbandrive/repository/loyalty"
	userrepo "urbandrive/repository/user"
	vehiclerepo "urbandrive/repository/vehicle"
	authsvc "urbandrive/service/auth"
	availabilitysvc "urbandrive/service/availability"
	bookingsvc "urbandrive/service/booking"
	loyaltysvc "urbandrive/service/loyalty"
	"urbandrive/util/cache"
	"urbandrive/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// infra
	rc := cache.New(cfg.RedisAddr)
	pub := queue.NewPublisher(cfg.RabbitURL, log)

	// repos
	br := bookingrepo.New(db)
	vr := vehiclerepo.New(db)
	lr := loyaltyrepo.New(db)
	ur := userrepo.New(db)

	// services
	avs := availabilitysvc.New(br)
	ls := loyaltysvc.New(db, lr, pub)
	bs := bookingsvc.New(db, br, vr, lr, pub, rc)
	as := authsvc.New(ur, cfg.JWTSecret)

	// background ledger reconciliation
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go loyaltysvc.NewWorker(ls, log, time.Hour).Run(workerCtx)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, Avail: avs, Cache: rc, V: v, Log: log}
	loyaltyC := &loyaltyctrl.Controller{Svc: ls, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Booking: bookingC,
		Loyalty: loyaltyC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
