package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_URL is the websocket endpoint of a running relay, e.g. ws://localhost:8080/ws.
	// The suites are skipped when it is empty.
	RelayURL   string `envconfig:"RELAY_URL"`
	HealthAddr string `envconfig:"HEALTH_ADDR" default:"localhost:8081"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// How long a scenario waits for an expected event
	EventTimeout string `envconfig:"E2E_EVENT_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
