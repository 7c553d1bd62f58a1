package replyclient

import "context"

type requestIDContextKey struct{}

// RequestIDHeader is the header chi's RequestID middleware picks up on the server side.
const RequestIDHeader = "X-Request-Id"

// WithRequestID attaches an identifier that GenerateReply forwards as X-Request-Id,
// so client and service logs can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
