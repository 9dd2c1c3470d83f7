package utils

import (
	"context"
	"net/http"
	"strings"

	"github.com/tabshare/tabshare/internal/infrastructure/identity"
)

type ctxKey int

const identityKey ctxKey = iota

func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(identity.Identity)
	return id, ok
}

// BearerToken extracts the access token from the Authorization header, or
// from the "token" query parameter as a fallback for websocket clients that
// cannot set headers during the upgrade.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	return r.URL.Query().Get("token")
}
