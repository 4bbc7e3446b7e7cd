package cli

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	AdminToken string
	Output     string
	Timeout    time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("PSCTL_SERVER", "ws://localhost:1234/ws"),
		AdminToken: os.Getenv("PSCTL_ADMIN_TOKEN"),
		Output:     "text",
		Timeout:    10 * time.Second,
	}
}

// APIBaseURL derives the HTTP base URL from the websocket URL.
// ws://host:1234/ws becomes http://host:1234.
func (c *Config) APIBaseURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "http":
		u.Scheme = "http"
	case "wss", "https":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
