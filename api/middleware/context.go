package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

type contextKey string

const ctxOperatorID contextKey = "operator_id"

const operatorIDHeader = "X-Operator-Id"

// OperatorIDFromContext returns the operator identity attached to the
// request, or empty when the caller sent none.
func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

// WithOperatorID injects the operator identifier into the context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}

// OperatorContext lifts the X-Operator-Id header into the request context.
// The dashboard trusts its fronting proxy for authentication; the header only
// scopes lists and idempotency keys.
func OperatorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operatorID := strings.TrimSpace(r.Header.Get(operatorIDHeader))
			if operatorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithOperatorID(r.Context(), operatorID)
			if logg != nil {
				ctx = logg.WithOperatorID(ctx, operatorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
