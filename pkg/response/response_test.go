package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/response"
)

func TestError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		exposeDetail bool
		wantStatus   int
		wantError    string
		wantDetail   string
	}{
		{
			name:       "business error keeps status and message",
			err:        apperr.New(apperr.KindAccountLocked, "Account locked", http.StatusLocked),
			wantStatus: http.StatusLocked,
			wantError:  "Account locked",
		},
		{
			name:         "wrapped business error is unwrapped",
			err:          fmt.Errorf("login: %w", apperr.NotFound("Menu not found.")),
			exposeDetail: true,
			wantStatus:   http.StatusNotFound,
			wantError:    "Menu not found.",
		},
		{
			name:         "unexpected error hides detail in production",
			err:          errors.New("connection refused"),
			exposeDetail: false,
			wantStatus:   http.StatusInternalServerError,
			wantError:    response.UnexpectedErrorMessage,
		},
		{
			name:         "unexpected error exposes detail outside production",
			err:          errors.New("connection refused"),
			exposeDetail: true,
			wantStatus:   http.StatusInternalServerError,
			wantError:    response.UnexpectedErrorMessage,
			wantDetail:   "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			response.Error(rec, req, tt.err, tt.exposeDetail)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body response.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WriteText(rec, http.StatusOK, "Email verified successfully.")

	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.String() != "Email verified successfully." {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantEmail string
	}{
		{"valid", `{"email":"a@b.co"}`, false, "a@b.co"},
		{"unknown fields ignored", `{"email":"a@b.co","nickname":"ada"}`, false, "a@b.co"},
		{"malformed", `{"email":`, true, ""},
		{"empty", ``, true, ""},
		{"oversized", `{"email":"` + strings.Repeat("a", 1<<20) + `"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got payload
			err := response.DecodeJSON(httptest.NewRecorder(), req, &got)
			if tt.wantErr {
				if !apperr.IsKind(err, apperr.KindValidation) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("email = %q, want %q", got.Email, tt.wantEmail)
			}
		})
	}
}
