// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them at the edge; services read
// them for audit stamping and log correlation without importing anything
// HTTP-shaped.
package requestcontext

import "context"

// Context key types (unexported for encapsulation).
type (
	requestIDKey struct{}
	operatorKey  struct{}
)

// RequestID retrieves the request id from the context, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Operator retrieves the authenticated operator subject from the context,
// or "". Public endpoints never set it.
func Operator(ctx context.Context) string {
	if operator, ok := ctx.Value(operatorKey{}).(string); ok {
		return operator
	}
	return ""
}

// WithOperator injects an operator subject into the context. Useful for
// service tests that don't run the HTTP middleware chain.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}
