package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/service"
	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding the signed session.
const SessionName = "tica_session"

const openIDKey = "open_id"

// UserLookup resolves a session's openId to a stored user.
type UserLookup interface {
	Get(ctx context.Context, openID string) (*entity.User, error)
}

// NewCookieStore returns a signed cookie store scoped to the whole site.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.MaxAge = 86400 * 365
	return store
}

// Sessions binds a cookie session to the viewer it identifies.
type Sessions struct {
	store sessions.Store
	users UserLookup
}

func NewSessions(store sessions.Store, users UserLookup) *Sessions {
	return &Sessions{store: store, users: users}
}

type viewerKey struct{}

// WithViewer returns a copy of ctx carrying u.
func WithViewer(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, viewerKey{}, u)
}

// ViewerFrom returns the signed-in user, or nil for anonymous requests.
func ViewerFrom(ctx context.Context) *entity.User {
	u, _ := ctx.Value(viewerKey{}).(*entity.User)
	return u
}

// Middleware resolves the session's user into the request context. Requests
// with no session, a tampered cookie or an unknown user continue anonymously.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, SessionName)
		openID, _ := session.Values[openIDKey].(string)
		if openID == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := s.users.Get(r.Context(), openID)
		if err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				slog.Error("Failed to resolve session user", "open_id", openID, "err", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), u)))
	})
}

// Login writes a session for u.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, u *entity.User) error {
	session, _ := s.store.Get(r, SessionName)
	session.Values[openIDKey] = u.OpenID
	return session.Save(r, w)
}

// Logout expires the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	delete(session.Values, openIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Require rejects requests whose viewer lacks c: 401 when nobody is signed
// in, 403 otherwise.
func Require(c Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := ViewerFrom(r.Context())
		switch {
		case u == nil:
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Please login")
		case !Can(u, c):
			slog.Warn("Capability denied", "open_id", u.OpenID, "capability", c, "path", r.URL.Path)
			deny(w, http.StatusForbidden, "FORBIDDEN", "Unauthorized")
		default:
			next(w, r)
		}
	}
}

func deny(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
