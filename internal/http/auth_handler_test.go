package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/gateway"
)

type authServiceMock struct {
	result *gateway.AuthResult
	err    error
	calls  int
}

func (a *authServiceMock) Login(_ context.Context, email, password string) (*gateway.AuthResult, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a *authServiceMock) Register(_ context.Context, email, password, fullName string) (*gateway.AuthResult, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func TestLogin_Success_CachesUserInSession(t *testing.T) {
	auth := &authServiceMock{result: &gateway.AuthResult{
		User:  domain.User{ID: 7, Email: "u@example.com", IsAdmin: false},
		Token: "tok-123",
	}}
	handler := NewAuthHandler(auth, 5*time.Second)

	recorder := httptest.NewRecorder()
	request, sess := requestWithSession("POST", "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"u@example.com","password":"secret"}`)))

	handler.Login(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	user, ok := sess.User()
	if !ok {
		t.Fatal("Expected session to cache the user after login")
	}
	if user.ID != 7 {
		t.Errorf("Expected user id 7, got %d", user.ID)
	}
	if sess.Token() != "tok-123" {
		t.Errorf("Expected session token to be cached, got %q", sess.Token())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	auth := &authServiceMock{}
	handler := NewAuthHandler(auth, 5*time.Second)

	recorder := httptest.NewRecorder()
	request, _ := requestWithSession("POST", "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"u@example.com"}`)))

	handler.Login(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if auth.calls != 0 {
		t.Errorf("Expected no auth request for incomplete form, got %d", auth.calls)
	}
}

func TestLogin_RejectedLeavesSessionAnonymous(t *testing.T) {
	auth := &authServiceMock{err: &gateway.Error{
		Kind: gateway.KindRemote, Endpoint: "auth",
		Status: http.StatusUnauthorized, Message: "Invalid credentials",
	}}
	handler := NewAuthHandler(auth, 5*time.Second)

	recorder := httptest.NewRecorder()
	request, sess := requestWithSession("POST", "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"u@example.com","password":"wrong"}`)))

	handler.Login(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	if _, ok := sess.User(); ok {
		t.Error("Expected session to stay anonymous after rejected login")
	}
}

func TestRegister_Success(t *testing.T) {
	auth := &authServiceMock{result: &gateway.AuthResult{
		User:  domain.User{ID: 12, Email: "new@example.com", FullName: "New User"},
		Token: "tok",
	}}
	handler := NewAuthHandler(auth, 5*time.Second)

	recorder := httptest.NewRecorder()
	request, sess := requestWithSession("POST", "/api/v1/auth/register",
		bytes.NewReader([]byte(`{"email":"new@example.com","password":"pw","full_name":"New User"}`)))

	handler.Register(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if _, ok := sess.User(); !ok {
		t.Error("Expected session to cache the user after registration")
	}
}

func TestLogout_ClearsUserOnly(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request, sess := requestWithSession("POST", "/api/v1/auth/logout", nil)
	sess.SetUser(domain.User{ID: 7}, "tok")

	handler.Logout(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if _, ok := sess.User(); ok {
		t.Error("Expected logout to clear the cached user")
	}
}
