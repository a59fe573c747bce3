package posauth

import "context"

type contextKey int

const requestIDKey contextKey = iota

// WithRequestID attaches a correlation id to ctx. Audit events emitted
// during operations on that context carry the id, letting a single UI
// action be traced across login, hydration, and asset fetches.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
