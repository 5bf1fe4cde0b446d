package obs

import "context"

type routeKey struct{}

// WithRoutePattern stores the matched route template on the context. Empty
// patterns are not stored so later lookups fall through to the live chi
// route context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if pattern == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, pattern)
}

// RoutePatternFromContext returns the stored route template, if any.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(routeKey{}).(string)
	return pattern
}
