package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/response"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/handlers"
	"github.com/diagnosis/restaurant-management/services/identity/internal/service"
)

// ---------- Mocks ----------

type mockAuthService struct {
	registerErr error
	loginErr    error
	refreshErr  error
	verifyErr   error
	resendErr   error

	lastRegister *domain.RegisterRequest
}

func (m *mockAuthService) Register(_ context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	m.lastRegister = req
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &domain.RegisterResponse{UserID: uuid.New(), Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}, nil
}

func (m *mockAuthService) Login(_ context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &domain.AuthResponse{UserID: uuid.New(), Email: req.Email, Token: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) RefreshToken(_ context.Context, req *domain.RefreshRequest) (*domain.AuthResponse, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &domain.AuthResponse{Email: req.Email, Token: "access-2", RefreshToken: "refresh-2"}, nil
}

func (m *mockAuthService) VerifyEmail(_ context.Context, _ *domain.VerifyEmailRequest) (string, error) {
	if m.verifyErr != nil {
		return "", m.verifyErr
	}
	return service.MsgEmailVerified, nil
}

func (m *mockAuthService) ResendVerification(_ context.Context, _ *domain.ResendVerificationRequest) (string, error) {
	if m.resendErr != nil {
		return "", m.resendErr
	}
	return service.MsgVerificationSent, nil
}

func newRouter(svc service.AuthService, env string) http.Handler {
	cfg := &config.Config{
		App:       config.AppConfig{Environment: env},
		RateLimit: config.RateLimitConfig{Requests: 10, Window: time.Minute},
	}
	r := chi.NewRouter()
	handlers.New(svc, nil, cfg).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

// ---------- Tests ----------

func TestRegister(t *testing.T) {
	svc := &mockAuthService{}
	h := newRouter(svc, "development")

	rr := do(t, h, "/auth/register", `{"email":"ada@example.com","password":"Secret#123","firstName":"Ada","lastName":"Lovelace"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rr.Code, rr.Body.String())
	}
	var resp domain.RegisterResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Email != "ada@example.com" || resp.UserID == uuid.Nil {
		t.Errorf("unexpected response %+v", resp)
	}
	if svc.lastRegister.FirstName != "Ada" {
		t.Errorf("request not decoded: %+v", svc.lastRegister)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed json",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid JSON format",
		},
		{
			name:       "duplicate email",
			body:       `{"email":"ada@example.com"}`,
			err:        service.ErrEmailAlreadyRegistered(),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Email is already registered.",
		},
		{
			name:       "unexpected failure",
			body:       `{"email":"ada@example.com"}`,
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    response.UnexpectedErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&mockAuthService{registerErr: tt.err}, "production")
			rr := do(t, h, "/auth/register", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			body := decodeError(t, rr)
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
			if body.Detail != "" {
				t.Errorf("detail leaked in production: %q", body.Detail)
			}
		})
	}
}

func TestUnexpectedError_DetailOutsideProduction(t *testing.T) {
	h := newRouter(&mockAuthService{loginErr: errors.New("connection reset")}, "development")
	rr := do(t, h, "/auth/login", `{"email":"ada@example.com","password":"x"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if body := decodeError(t, rr); body.Detail != "connection reset" {
		t.Errorf("detail = %q, want raw error text", body.Detail)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"bad password", service.ErrInvalidPassword(), http.StatusUnauthorized},
		{"locked", service.ErrAccountLocked(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)), http.StatusLocked},
		{"unverified", service.ErrUserNotVerified(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&mockAuthService{loginErr: tt.err}, "development")
			rr := do(t, h, "/auth/login", `{"email":"ada@example.com","password":"Secret#123"}`)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.err != nil {
				return
			}
			var resp domain.AuthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Token != "access" || resp.RefreshToken != "refresh" {
				t.Errorf("unexpected tokens %+v", resp)
			}
		})
	}
}

func TestLogin_LockedMessage(t *testing.T) {
	until := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	h := newRouter(&mockAuthService{loginErr: service.ErrAccountLocked(until)}, "development")
	rr := do(t, h, "/auth/login", `{"email":"ada@example.com","password":"x"}`)
	if got := decodeError(t, rr).Error; got != "Account locked until 2025-01-01 12:00:00Z" {
		t.Errorf("error = %q", got)
	}
}

func TestRefresh(t *testing.T) {
	h := newRouter(&mockAuthService{}, "development")
	rr := do(t, h, "/auth/refresh", `{"email":"ada@example.com","refreshToken":"abc"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	h = newRouter(&mockAuthService{refreshErr: service.ErrInvalidRefreshToken()}, "development")
	rr = do(t, h, "/auth/refresh", `{"email":"ada@example.com","refreshToken":"abc"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestVerifyAndResend_PlainText(t *testing.T) {
	tests := []struct {
		path string
		body string
		want string
	}{
		{"/auth/verify", `{"email":"ada@example.com","code":"123456"}`, service.MsgEmailVerified},
		{"/auth/resend-verification", `{"email":"ada@example.com"}`, service.MsgVerificationSent},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := do(t, newRouter(&mockAuthService{}, "development"), tt.path, tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("content type = %q", ct)
			}
			if rr.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rr.Body.String(), tt.want)
			}
		})
	}
}

func TestResend_Cooldown(t *testing.T) {
	h := newRouter(&mockAuthService{resendErr: service.ErrVerificationCodeRecentlySent()}, "development")
	rr := do(t, h, "/auth/resend-verification", `{"email":"ada@example.com"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
}
