package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Verbose   bool
	// Timeout bounds connecting to the server and flushing changes
	Timeout time.Duration
	// Messages overrides the built-in message catalog
	Messages string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("ROSTER_SERVER", "http://localhost:8080"),
		Output:    "text",
		Verbose:   false,
		Timeout:   10 * time.Second,
		Messages:  os.Getenv("ROSTER_MESSAGES"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
