package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	mux := handlers.NewRouter(service)
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting cgpacalc server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Store: %s, token header: %s", service.Config.Database.DSN, service.Config.Auth.TokenHeader)
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("cgpacalc server failed: %v", err)
	}
}
