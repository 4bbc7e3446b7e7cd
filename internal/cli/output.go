package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/playersession/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SignUpResult:
		o.printResponse(v.Response)
	case LoginResult:
		o.printLoginResult(v)
	case HealthResult:
		o.printHealthResult(v)
	case SessionList:
		o.printSessionList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SignUpResult is the outcome of a sign-up
type SignUpResult struct {
	Response protocol.Response `json:"response"`
}

// LoginResult is the outcome of a login, with the initialization on success
type LoginResult struct {
	Response protocol.Response          `json:"response"`
	Player   *protocol.InitializePlayer `json:"player,omitempty"`
}

// HealthResult response type (matches API)
type HealthResult struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	LoggedIn    int    `json:"logged_in"`
}

// Session response type (matches API)
type Session struct {
	Username     string    `json:"username"`
	ConnectionID uint64    `json:"connection_id"`
	LoggedInAt   time.Time `json:"logged_in_at"`
}

// SessionList response type (matches API)
type SessionList struct {
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
}

func (o *Output) printResponse(r protocol.Response) {
	_, _ = fmt.Fprintf(o.w, "%s: %s\n", r.Status, r.Message)
}

func (o *Output) printLoginResult(l LoginResult) {
	o.printResponse(l.Response)
	if l.Player != nil {
		_, _ = fmt.Fprintf(o.w, "Connection: %d\n", l.Player.ConnectionID)
		_, _ = fmt.Fprintf(o.w, "Position: (%.2f, %.2f)\n", l.Player.Position.X, l.Player.Position.Y)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
	_, _ = fmt.Fprintf(o.w, "Logged in: %d\n", h.LoggedIn)
}

func (o *Output) printSessionList(l SessionList) {
	_, _ = fmt.Fprintf(o.w, "Sessions (%d):\n", l.Count)
	for _, s := range l.Sessions {
		_, _ = fmt.Fprintf(o.w, "  - %s (connection %d) since %s\n",
			s.Username, s.ConnectionID, s.LoggedInAt.Format(time.RFC3339))
	}
}
