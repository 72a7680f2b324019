package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/session"
)

// sessionCapture records the session the middleware installed.
func sessionCapture(dst **session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*dst = sessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddleware_NewVisitorGetsCookie(t *testing.T) {
	var captured *session.Session
	handler := SessionMiddleware(session.NewManager())(sessionCapture(&captured))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	if captured == nil {
		t.Fatal("Expected a session in the request context")
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].Name != cookieSessionID {
		t.Errorf("Expected cookie %q, got %q", cookieSessionID, cookies[0].Name)
	}
	if cookies[0].Value != captured.ID {
		t.Errorf("Expected cookie value %q, got %q", captured.ID, cookies[0].Value)
	}
}

func TestSessionMiddleware_ReturningVisitorKeepsSession(t *testing.T) {
	manager := session.NewManager()
	existing := manager.Create()

	var captured *session.Session
	handler := SessionMiddleware(manager)(sessionCapture(&captured))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.AddCookie(&http.Cookie{Name: cookieSessionID, Value: existing.ID})
	handler.ServeHTTP(recorder, request)

	if captured != existing {
		t.Error("Expected the existing session to be reused")
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("Expected no cookie refresh for a live session")
	}
}

func TestSessionMiddleware_CookieSurvivesRestart(t *testing.T) {
	// A fresh manager stands in for a restarted process: the registry
	// is empty but the cookie id must be adopted, not replaced, so the
	// cart persisted under it stays reachable.
	oldID := session.NewManager().Create().ID

	var captured *session.Session
	handler := SessionMiddleware(session.NewManager())(sessionCapture(&captured))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.AddCookie(&http.Cookie{Name: cookieSessionID, Value: oldID})
	handler.ServeHTTP(recorder, request)

	if captured == nil {
		t.Fatal("Expected a session in the request context")
	}
	if captured.ID != oldID {
		t.Errorf("Expected the cookie id %q to be adopted, got %q", oldID, captured.ID)
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("Expected no cookie rewrite for an adopted id")
	}
}

func TestSessionMiddleware_MalformedCookieReplaced(t *testing.T) {
	var captured *session.Session
	handler := SessionMiddleware(session.NewManager())(sessionCapture(&captured))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "garbage"})
	handler.ServeHTTP(recorder, request)

	if captured == nil {
		t.Fatal("Expected a session in the request context")
	}
	if captured.ID == "garbage" {
		t.Error("Expected a malformed id to be replaced")
	}
	if err := uuid.Validate(captured.ID); err != nil {
		t.Errorf("Expected a uuid session id, got %q", captured.ID)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != captured.ID {
		t.Error("Expected the replacement id to be set as a cookie")
	}
}
