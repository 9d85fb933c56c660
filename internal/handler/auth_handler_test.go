package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/portella/internal/auth"
	"github.com/hitoshi/portella/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn         func(ctx context.Context, input auth.SignUpInput) (*model.Session, error)
	signInFn         func(ctx context.Context, email, password string) (*model.Session, error)
	signOutFn        func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, input auth.SignUpInput) (*model.Session, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, sessionID string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockAuthMetrics struct {
	signUps   int
	successes int
	failures  int
}

func (m *mockAuthMetrics) RecordSignUp()        { m.signUps++ }
func (m *mockAuthMetrics) RecordSignInSuccess() { m.successes++ }
func (m *mockAuthMetrics) RecordSignInFailure() { m.failures++ }

func testSession() *model.Session {
	return &model.Session{
		ID:        "sess-abc",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestAuthHandler_SignUp_SetsSessionCookie(t *testing.T) {
	var capturedInput auth.SignUpInput
	service := &mockAuthService{
		signUpFn: func(ctx context.Context, input auth.SignUpInput) (*model.Session, error) {
			capturedInput = input
			return testSession(), nil
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(service, m, AuthHandlerConfig{SessionMaxAge: 86400})

	body := `{"email":"ana@x.com","password":"senha1","nickname":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if capturedInput.Email != "ana@x.com" || capturedInput.Nickname != "Ana" {
		t.Errorf("unexpected input: %+v", capturedInput)
	}

	cookie := sessionCookieFrom(t, resp)
	if cookie == nil {
		t.Fatal("expected session_id cookie")
	}
	if cookie.Value != "sess-abc" {
		t.Errorf("cookie value = %q, want sess-abc", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP only")
	}

	var respBody sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if respBody.UserID != "user-1" {
		t.Errorf("user_id = %q, want user-1", respBody.UserID)
	}
	if m.signUps != 1 {
		t.Errorf("signup metric = %d, want 1", m.signUps)
	}
}

func TestAuthHandler_SignUp_ValidationError_Returns400(t *testing.T) {
	service := &mockAuthService{
		signUpFn: func(ctx context.Context, input auth.SignUpInput) (*model.Session, error) {
			return nil, model.NewPasswordTooShortError(6)
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	body := `{"email":"ana@x.com","password":"abc","nickname":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if sessionCookieFrom(t, resp) != nil {
		t.Error("no session cookie should be set on failure")
	}
}

func TestAuthHandler_SignUp_DuplicateEmail_Returns409(t *testing.T) {
	service := &mockAuthService{
		signUpFn: func(ctx context.Context, input auth.SignUpInput) (*model.Session, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	body := `{"email":"ana@x.com","password":"senha1","nickname":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

func TestAuthHandler_SignUp_MalformedBody_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	service := &mockAuthService{
		signInFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			if email == "ana@x.com" && password == "senha1" {
				return testSession(), nil
			}
			return nil, model.NewInvalidCredentialsError()
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(service, m, AuthHandlerConfig{SessionMaxAge: 86400})

	body := `{"email":"ana@x.com","password":"senha1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if sessionCookieFrom(t, resp) == nil {
		t.Error("expected session cookie")
	}
	if m.successes != 1 || m.failures != 0 {
		t.Errorf("metrics = %d success %d fail, want 1/0", m.successes, m.failures)
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns401(t *testing.T) {
	service := &mockAuthService{
		signInFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(service, m, AuthHandlerConfig{})

	body := `{"email":"ana@x.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
	if m.failures != 1 {
		t.Errorf("failure metric = %d, want 1", m.failures)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var signedOutID string
	service := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			signedOutID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if signedOutID != "sess-abc" {
		t.Errorf("signed out session = %q, want sess-abc", signedOutID)
	}

	cookie := sessionCookieFrom(t, resp)
	if cookie == nil {
		t.Fatal("expected clearing cookie")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Errorf("cookie not cleared: value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestAuthHandler_Logout_ServerErrorStillClearsCookie(t *testing.T) {
	service := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			return context.DeadlineExceeded
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	cookie := sessionCookieFrom(t, resp)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("cookie must be cleared even when server-side sign-out fails")
	}
}

func TestAuthHandler_Me_ReturnsCurrentUser(t *testing.T) {
	service := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			if sessionID == "sess-abc" {
				return &model.User{ID: "user-1", Email: "ana@x.com"}, nil
			}
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()

	h.Me(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != "user-1" || body.Email != "ana@x.com" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAuthHandler_Me_NoCookie_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
