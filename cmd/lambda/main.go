package main

import (
	"net/http"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/diagnosis/travel-reservations/internal/http/router"
	"github.com/diagnosis/travel-reservations/internal/lambda"
	"github.com/diagnosis/travel-reservations/pkg/config"
	"github.com/diagnosis/travel-reservations/pkg/events"
	"github.com/diagnosis/travel-reservations/pkg/logger"
	mw "github.com/diagnosis/travel-reservations/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	handler, publisher, err := newHandler(cfg)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	awslambda.Start(lambda.Adapter(handler))
}

// newHandler wires the router with the same readiness checks as the server.
func newHandler(cfg *config.Config) (http.Handler, events.Publisher, error) {
	checkers := map[string]mw.Checker{}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled() {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.ServiceName)
		if err != nil {
			return nil, nil, err
		}
		publisher = nats
		checkers["nats"] = nats
	}

	handler := router.New(router.Options{
		ServiceName: cfg.ServiceName,
		CORS:        cfg.CORS,
		Notifier:    events.NewNotifier(publisher, cfg.NATS.SubjectPrefix),
		Checkers:    checkers,
	})
	return handler, publisher, nil
}
