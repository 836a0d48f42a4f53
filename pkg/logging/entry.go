package logging

import "context"

// LogEntry is the structured record handed to every Output.
type LogEntry struct {
	Time      int64 // UnixNano
	Severity  Severity
	Message   string
	File      string
	Line      int
	Function  string
	SessionID string
	Fields    map[string]interface{}
}

type contextKey int

const sessionIDKey contextKey = iota

// WithSessionID attaches a session identifier to the context. Log entries
// emitted under this context carry the id, which lets interleaved adaptation
// sessions be separated in logs.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// GetSessionID returns the session identifier stored in the context, if any.
func GetSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}
