package ops

import (
	"os"
	"strings"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/model"
)

// Environment variable names read once at startup.
const (
	EnvBotID         = "BOT_ID"
	EnvServerAddr    = "SERVER_ADDR"
	EnvAuditDatabase = "AUDIT_DATABASE_URL"
	EnvPyroscopeAddr = "PYROSCOPE_SERVER_ADDR"
	EnvDrainTimeout  = "SHUTDOWN_DRAIN_TIMEOUT"
)

// DefaultDrainTimeout bounds how long the signal bridge waits for engines
// to release their guards before forcing exit.
const DefaultDrainTimeout = 10 * time.Second

// Loaded is the resolved process configuration.
type Loaded struct {
	BotID      model.BotID
	ServerAddr string

	// optional
	AuditDatabaseURL string
	PyroscopeAddr    string
	DrainTimeout     time.Duration
}

// FromEnv reads configuration from environment variables. Missing or
// malformed required values are fatal startup errors; the process must not
// enter the serving loop.
func FromEnv() (Loaded, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Loaded, error) {
	raw, ok := lookup(EnvBotID)
	if !ok || strings.TrimSpace(raw) == "" {
		return Loaded{}, errors.Errorf("missing %s", EnvBotID)
	}
	botID, err := model.ParseBotID(strings.TrimSpace(raw))
	if err != nil {
		return Loaded{}, errors.Wrapf(err, "%s must be an u16 number", EnvBotID)
	}

	addr, ok := lookup(EnvServerAddr)
	if !ok || strings.TrimSpace(addr) == "" {
		return Loaded{}, errors.Errorf("missing %s", EnvServerAddr)
	}

	loaded := Loaded{
		BotID:        botID,
		ServerAddr:   strings.TrimSpace(addr),
		DrainTimeout: DefaultDrainTimeout,
	}
	if v, ok := lookup(EnvAuditDatabase); ok {
		loaded.AuditDatabaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPyroscopeAddr); ok {
		loaded.PyroscopeAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDrainTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return Loaded{}, errors.Wrapf(err, "%s must be a duration", EnvDrainTimeout)
		}
		loaded.DrainTimeout = d
	}
	return loaded, nil
}
