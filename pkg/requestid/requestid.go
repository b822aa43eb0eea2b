package requestid

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Header carries the id of a call to the screening service, so both sides can be correlated in logs.
var Header = middleware.RequestIDHeader

type key struct{}

func ToContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key{}, id)
}

// FromContext returns the id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key{}).(string)
	return id
}

// Ensure returns ctx and its id, attaching a new uuid first when ctx has none.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return ToContext(ctx, id), id
}

// SetHeader stamps req with the id of its context.
func SetHeader(req *http.Request) {
	_, id := Ensure(req.Context())
	req.Header.Set(Header, id)
}
