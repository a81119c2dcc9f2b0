package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"codepool/internal/config"
	"codepool/internal/http-server/handlers/admin"
	"codepool/internal/http-server/handlers/allocate"
	"codepool/internal/http-server/handlers/checkout"
	"codepool/internal/http-server/handlers/errors"
	"codepool/internal/http-server/handlers/stripehandler"
	"codepool/internal/http-server/handlers/transactions"
	"codepool/internal/http-server/middleware/authenticate"
	"codepool/internal/http-server/middleware/timeout"
	"codepool/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	allocate.Core
	transactions.Core
	admin.Core
	checkout.Core
	stripehandler.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Route("/codes", func(codes chi.Router) {
			codes.Use(authenticate.New(log, handler))
			codes.Post("/allocate", allocate.Allocate(log, handler))
			codes.Get("/transactions/{service}", transactions.List(log, handler))
			codes.Get("/transaction/{id}", transactions.Retrieve(log, handler))
		})
		rootApi.Route("/admin", func(adm chi.Router) {
			adm.Use(authenticate.New(log, handler))
			adm.Post("/codes", admin.AddCodes(log, handler))
			adm.Post("/codes/reset", admin.Reset(log, handler))
			adm.Post("/codes/import/{service}", admin.Import(log, handler))
		})
		rootApi.Post("/shop/checkout", checkout.Checkout(log, handler))
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/event", stripehandler.Event(log, handler))
	})

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
