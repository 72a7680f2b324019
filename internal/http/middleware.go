package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/session"
)

const (
	cookiePrefix    = "steeltrade_"
	cookieSessionID = cookiePrefix + "session-id"
	cookieMaxAge    = 60 * 60 * 48
)

type ctxKeySession struct{}

// SessionMiddleware resolves the browsing session from the session
// cookie, creating a fresh anonymous session (and cookie) when none
// exists. The session id is also the key the cart is persisted under.
func SessionMiddleware(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieID string
			if c, err := r.Cookie(cookieSessionID); err == nil {
				cookieID = c.Value
			}

			// A well-formed id from a previous process is adopted
			// rather than replaced, so the cart persisted under it
			// stays reachable across restarts.
			var sess *session.Session
			if cookieID != "" {
				sess = manager.GetOrCreate(cookieID)
			} else {
				sess = manager.Create()
			}
			if sess.ID != cookieID {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieSessionID,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
				})
			}

			ctx := context.WithValue(r.Context(), ctxKeySession{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(ctxKeySession{}).(*session.Session); ok {
		return s
	}
	return nil
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
