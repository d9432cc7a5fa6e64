// Package appconf holds application-level configuration shared across the
// server, the web UI and the GTFS manager.
package appconf

import "strings"

// Environment identifies the operating environment of the process.
type Environment int

const (
	Test Environment = iota
	Development
	Production
)

// EnvFromString maps a flag/env value onto an Environment. Unknown values
// map to Development so a typo never accidentally enables production mode.
func EnvFromString(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// Config holds the server-level configuration settings read from
// command-line flags and the environment when the application starts.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	RateLimit int
	NATSURL   string
	Verbose   bool
}
