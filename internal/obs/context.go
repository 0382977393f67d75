package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched chi route pattern so metric and
// log labels use "/api/sessions/{id}" rather than the raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the recorded pattern, or "" when the
// request never matched a route.
func RoutePatternFromContext(ctx context.Context) string {
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}
