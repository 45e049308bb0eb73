package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.StatusCode() != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.StatusCode())
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("mongo: connection reset")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Staff", "s-1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad booking", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("date must be YYYY-MM-DD"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("login"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not your business"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("day is locked"), CodeConflict, http.StatusConflict},
		{"internal", Internal("load snapshot", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("snapshot load timed out"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Availability"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"rejected", Rejected("booking rejected", []string{"capacity-exceeded"}), CodeBookingRejected, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "65f1c0ffee")

	if err.Message != "Booking not found" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["id"] != "65f1c0ffee" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestRejected_CarriesConflicts(t *testing.T) {
	conflicts := []map[string]string{{"kind": "staff-double-booking", "related_booking_id": "b1"}}
	err := Rejected("booking rejected", conflicts)

	got, ok := err.Details["conflicts"].([]map[string]string)
	if !ok || len(got) != 1 || got[0]["related_booking_id"] != "b1" {
		t.Errorf("conflicts not carried through: %v", err.Details)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "service not found"},
			expected: "NOT_FOUND: service not found",
		},
		{
			name:     "with underlying error",
			appErr:   Wrap(errors.New("lock held"), CodeConflict, "retry later", http.StatusConflict),
			expected: "CONFLICT: retry later (caused by: lock held)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should see through AppError")
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := Validation("booking validation failed", nil).WithDetails(map[string]any{"field": "end_time"})

	if err.Details["field"] != "end_time" {
		t.Errorf("expected field 'end_time', got %v", err.Details["field"])
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("Booking")
	wrapped := fmt.Errorf("create booking: %w", appErr)

	if !IsAppError(appErr) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should return true for a wrapped AppError")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("day is locked")
	if AsAppError(fmt.Errorf("tx: %w", appErr)) != appErr {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("commit: %w", Rejected("booking rejected", nil))

	if !HasCode(err, CodeBookingRejected) {
		t.Errorf("HasCode should find BOOKING_REJECTED")
	}
	if HasCode(err, CodeConflict) {
		t.Errorf("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode should be false for non AppError")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	data := NotFoundWithID("Booking", "12345").ToJSON()

	jsonStr := string(data)
	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "not found") {
		t.Errorf("ToJSON() should contain error message")
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"app error", NotFound("Service"), http.StatusNotFound, CodeNotFound, "Service not found"},
		{"plain error hides cause", errors.New("secret dsn"), http.StatusInternalServerError, CodeInternal, "An unexpected error occurred"},
		{"rejected", Rejected("booking rejected", []string{"past-date"}), http.StatusConflict, CodeBookingRejected, "booking rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError() error = %v", err)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Code != tt.wantCode || resp.Message != tt.wantMessage {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
