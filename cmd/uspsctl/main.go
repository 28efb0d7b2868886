// Command uspsctl inspects the gateway's USPS configuration: it resolves
// the configuration, authenticates each API family, decodes token claims,
// runs connection tests and clears caches.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"usps-gateway/internal/app"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	// Command output goes to stdout; keep the log on stderr and quiet
	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.ParseLevel(envOr("LOG_LEVEL", "warn")),
		Output: os.Stderr,
		Name:   "uspsctl",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	logging.SetGlobalLogger(logger)
	defer logging.MustSync()

	registry := NewRegistry()
	registerCommands(registry)

	env := &Env{
		Out:    os.Stdout,
		Config: config.Load(),
		NewApp: newApp,
	}
	if err := registry.Execute(env, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newApp(cfg *config.Config) (*app.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg)
}
