package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dativebase/old/pkg/domain"
)

// Header names carrying the caller's identity. Full authentication
// (session cookies, password hashing, login/logout) is an
// external-collaborator concern; a deployment fronting this service is
// expected to terminate auth upstream and forward these headers, the
// way the teacher's own AuthHandlers sit in front of the storage layer.
const (
	userIDHeader        = "X-OLD-User-ID"
	usernameHeader      = "X-OLD-Username"
	adminHeader         = "X-OLD-Admin"
	unrestrictedHeader  = "X-OLD-Unrestricted"
)

type contextKey string

const userContextKey contextKey = "old.user"

// UserMiddleware resolves the caller's identity from headers and
// attaches it to the request context. A request with no X-OLD-User-ID
// header carries a nil user; handlers that require authentication check
// for that explicitly rather than this middleware rejecting the
// request, since read endpoints may be open to anonymous callers.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(userIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				u := &domain.User{
					ID:           id,
					Username:     r.Header.Get(usernameHeader),
					IsAdmin:      r.Header.Get(adminHeader) == "true",
					Unrestricted: r.Header.Get(unrestrictedHeader) == "true",
				}
				r = r.WithContext(context.WithValue(r.Context(), userContextKey, u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the request's authenticated user, or nil.
func CurrentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}

// requireUser fetches the current user or reports UnauthenticatedError.
func requireUser(r *http.Request) (*domain.User, error) {
	u := CurrentUser(r)
	if u == nil {
		return nil, &domain.UnauthenticatedError{}
	}
	return u, nil
}
