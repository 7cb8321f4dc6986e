package auth

import (
	"context"
	"net/http"

	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleWarehouse  Role = "warehouse"
	RoleLogistics  Role = "logistics"
	RoleDispatcher Role = "dispatcher"
	RoleCourier    Role = "courier"
	RoleAdmin      Role = "admin"
)

// Identity is the authenticated caller. Sessions are handled upstream; the
// gateway forwards the resolved user in headers.
type Identity struct {
	UserID string
	Role   Role
}

type ctxKey struct{}

// Middleware trusts X-User-Id / X-User-Role set by the session layer.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID: r.Header.Get("X-User-Id"),
			Role:   Role(r.Header.Get("X-User-Role")),
		}
		if id.Role == "" {
			id.Role = RoleCustomer
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, fault.Forbidden("no authenticated user")
	}
	return id, nil
}
