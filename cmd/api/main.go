package main

import (
	"os"

	"cv-builder/internal/bootstrap"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/server"
	"cv-builder/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("api.listening", map[string]any{
		"addr":       addr,
		"env":        cfg.Env,
		"converter":  cfg.Converter,
		"tagging":    app.Capabilities.Tagging,
		"statistics": app.Capabilities.Statistics,
	})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("api.server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
